package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/alexander-library/internal/auth"
	"github.com/prn-tf/alexander-library/internal/cache/memory"
	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/lock"
	"github.com/prn-tf/alexander-library/internal/repository"
	"github.com/prn-tf/alexander-library/internal/repository/sqlite"
	"github.com/prn-tf/alexander-library/internal/storage/filesystem"
)

// testEnv wires the services over an in-memory SQLite database and a
// temporary content directory.
type testEnv struct {
	repos    *repository.Repositories
	content  *filesystem.Storage
	locker   *lock.MemoryLocker
	sessions *auth.SessionManager
	svc      *Services
	deps     Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(":memory:"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	repos := &repository.Repositories{
		User:      sqlite.NewUserRepository(db),
		Bookshelf: sqlite.NewBookshelfRepository(db),
		Category:  sqlite.NewCategoryRepository(db),
		Book:      sqlite.NewBookRepository(db),
	}

	dir := t.TempDir()
	content, err := filesystem.New(filepath.Join(dir, "data"), filepath.Join(dir, "tmp"), zerolog.Nop())
	require.NoError(t, err)

	cache := memory.NewCache()
	t.Cleanup(cache.Stop)
	sessions, err := auth.NewSessionManager(cache, "", time.Hour, zerolog.Nop())
	require.NoError(t, err)

	locker := lock.NewMemoryLocker()
	t.Cleanup(locker.Stop)

	env := &testEnv{repos: repos, content: content, locker: locker, sessions: sessions}
	env.deps = Deps{
		Repos:    repos,
		Content:  content,
		Sessions: sessions,
		Locker:   locker,
		LockOptions: lock.Options{
			TTL:        5 * time.Second,
			Retries:    2,
			RetryDelay: 5 * time.Millisecond,
		},
		BcryptCost: bcrypt.MinCost,
		Logger:     zerolog.Nop(),
	}
	env.svc = New(env.deps)
	return env
}

func (e *testEnv) user(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := e.svc.Users.Register(context.Background(), RegisterInput{
		Name:     "Reader",
		Email:    email,
		Password: "Passw0rd!",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) shelf(t *testing.T, owner uuid.UUID, name string) *domain.Bookshelf {
	t.Helper()
	shelf, err := e.svc.Bookshelves.Create(context.Background(), owner, BookshelfInput{Name: name})
	require.NoError(t, err)
	return shelf
}

func (e *testEnv) category(t *testing.T, owner, shelf uuid.UUID, name string) *domain.Category {
	t.Helper()
	category, err := e.svc.Categories.Create(context.Background(), owner, CreateCategoryInput{Name: name, ParentID: shelf})
	require.NoError(t, err)
	return category
}

func (e *testEnv) book(t *testing.T, owner, shelf uuid.UUID, category *uuid.UUID, name string) *domain.Book {
	t.Helper()
	book, err := e.svc.Books.Create(context.Background(), owner, bookInput(shelf, category, name))
	require.NoError(t, err)
	return book
}

func (e *testEnv) nBooks(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	category, err := e.repos.Category.GetByID(context.Background(), id)
	require.NoError(t, err)
	return category.NBooks
}

func bookInput(shelf uuid.UUID, category *uuid.UUID, name string) CreateBookInput {
	return CreateBookInput{
		Name:        name,
		Author:      "Author",
		BookshelfID: shelf,
		CategoryID:  category,
		Content:     strings.NewReader("content of " + name),
		ContentName: name + ".epub",
		ContentType: "application/epub+zip",
	}
}

func ptr[T any](v T) *T {
	return &v
}
