package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-library/internal/config"
	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// newTestDB connects to ALEXANDER_TEST_MONGO_URI using a throwaway database.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping MongoDB test in short mode")
	}
	uri := os.Getenv("ALEXANDER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ALEXANDER_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{
		Driver:         config.DriverMongo,
		URI:            uri,
		MongoDatabase:  "alexander_test_" + uuid.NewString()[:8],
		ConnectTimeout: 5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.db.Drop(context.Background())
		_ = db.Close()
	})

	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestMongo_Migrate(t *testing.T) {
	db := newTestDB(t)

	version, err := db.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, schemaVersion, version)
}

func TestMongo_OwnershipAndCounter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	users := NewUserRepository(db)
	alice := domain.NewUser("Alice", "alice@example.com", "hash")
	require.NoError(t, users.Create(ctx, alice))
	require.ErrorIs(t, users.Create(ctx, domain.NewUser("A", "alice@example.com", "x")), domain.ErrUserAlreadyExists)

	shelves := NewBookshelfRepository(db)
	shelf := domain.NewBookshelf(alice.ID, "Fiction")
	require.NoError(t, shelves.Create(ctx, shelf))
	require.ErrorIs(t, shelves.Create(ctx, domain.NewBookshelf(alice.ID, "Fiction")), domain.ErrBookshelfAlreadyExists)

	categories := NewCategoryRepository(db)
	category := domain.NewCategory(shelf.ID, "SciFi")
	require.NoError(t, categories.Create(ctx, category))
	require.ErrorIs(t, categories.Create(ctx, domain.NewCategory(uuid.New(), "x")), domain.ErrBookshelfNotFound)

	books := NewBookRepository(db)
	book := domain.NewBook(shelf.ID, &category.ID, "Dune", domain.BookContent{Hash: "abc", Size: 3})
	require.NoError(t, books.Create(ctx, book))

	n, err := categories.AdjustBookCount(ctx, category.ID, 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = categories.AdjustBookCount(ctx, category.ID, -2)
	require.ErrorIs(t, err, domain.ErrCategoryCountUnderflow)

	count, err := books.Count(ctx, repository.BookFilter{OwnerID: alice.ID, CategoryID: &category.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, err = categories.Count(ctx, repository.CategoryFilter{OwnerID: uuid.New()})
	require.NoError(t, err)
	require.Zero(t, count)

	require.ErrorIs(t, categories.Delete(ctx, category.ID), domain.ErrCategoryNotEmpty)
	require.ErrorIs(t, shelves.Delete(ctx, shelf.ID), domain.ErrBookshelfNotEmpty)

	require.NoError(t, books.Delete(ctx, book.ID))
	require.ErrorIs(t, books.Delete(ctx, book.ID), domain.ErrBookNotFound)
}
