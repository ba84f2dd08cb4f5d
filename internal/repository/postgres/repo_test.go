package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-library/internal/config"
	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// newTestDB connects to the database named by ALEXANDER_TEST_POSTGRES_DSN.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL test in short mode")
	}
	dsn := os.Getenv("ALEXANDER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ALEXANDER_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		URI:          dsn,
		MaxOpenConns: 4,
		MaxIdleConns: 1,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db
}

func testHash() string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	return hex.EncodeToString(sum[:])
}

func TestPostgres_CategoryCounter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := domain.NewUser("Reader", uuid.NewString()+"@example.com", "hash")
	require.NoError(t, NewUserRepository(db).Create(ctx, user))

	shelf := domain.NewBookshelf(user.ID, "Shelf")
	require.NoError(t, NewBookshelfRepository(db).Create(ctx, shelf))

	categories := NewCategoryRepository(db)
	category := domain.NewCategory(shelf.ID, "SciFi")
	require.NoError(t, categories.Create(ctx, category))

	err := categories.Create(ctx, domain.NewCategory(shelf.ID, "SciFi"))
	require.ErrorIs(t, err, domain.ErrCategoryAlreadyExists)

	n, err := categories.AdjustBookCount(ctx, category.ID, 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = categories.AdjustBookCount(ctx, category.ID, -3)
	require.ErrorIs(t, err, domain.ErrCategoryCountUnderflow)

	_, err = categories.AdjustBookCount(ctx, uuid.New(), 1)
	require.ErrorIs(t, err, domain.ErrCategoryNotFound)

	count, err := categories.Count(ctx, repository.CategoryFilter{OwnerID: user.ID, BookshelfID: &shelf.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestPostgres_Books(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := domain.NewUser("Reader", uuid.NewString()+"@example.com", "hash")
	require.NoError(t, NewUserRepository(db).Create(ctx, user))

	shelves := NewBookshelfRepository(db)
	shelf := domain.NewBookshelf(user.ID, "Shelf")
	require.NoError(t, shelves.Create(ctx, shelf))

	books := NewBookRepository(db)
	book := domain.NewBook(shelf.ID, nil, "Dune", domain.BookContent{Hash: testHash(), Size: 3})
	require.NoError(t, books.Create(ctx, book))

	got, err := books.GetByID(ctx, book.ID)
	require.NoError(t, err)
	require.Nil(t, got.CategoryID)
	require.Equal(t, book.ContentHash, got.ContentHash)

	empty, err := shelves.IsEmpty(ctx, shelf.ID)
	require.NoError(t, err)
	require.False(t, empty)

	listed, err := books.List(ctx, repository.BookFilter{OwnerID: user.ID}, repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, books.Delete(ctx, book.ID))
	require.ErrorIs(t, books.Delete(ctx, book.ID), domain.ErrBookNotFound)
	require.NoError(t, shelves.Delete(ctx, shelf.ID))
}
