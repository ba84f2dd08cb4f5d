// Package repository defines data access interfaces for the Alexander library.
// These interfaces abstract database operations, allowing for different implementations
// (SQLite, PostgreSQL, MongoDB, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/prn-tf/alexander-library/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	// Returns domain.ErrUserAlreadyExists if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by (normalized) email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns users newest first.
	List(ctx context.Context, opts ListOptions) ([]*domain.User, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int64, error)
}

// =============================================================================
// Bookshelf Repository
// =============================================================================

// BookshelfFilter scopes bookshelf queries.
type BookshelfFilter struct {
	// OwnerID restricts results to one user's bookshelves.
	// uuid.Nil leaves the query unscoped (admin tooling only).
	OwnerID uuid.UUID
}

// BookshelfRepository defines the interface for bookshelf data access.
type BookshelfRepository interface {
	// Create creates a new bookshelf.
	// Returns domain.ErrBookshelfAlreadyExists on a duplicate (owner, name).
	Create(ctx context.Context, shelf *domain.Bookshelf) error

	// GetByID retrieves a bookshelf by ID.
	// Returns domain.ErrBookshelfNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Bookshelf, error)

	// Update persists the name and modification time.
	Update(ctx context.Context, shelf *domain.Bookshelf) error

	// Delete deletes a bookshelf by ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsByName checks if the owner already has a bookshelf with name.
	ExistsByName(ctx context.Context, ownerID uuid.UUID, name string) (bool, error)

	// List returns one window of bookshelves ordered newest first.
	List(ctx context.Context, filter BookshelfFilter, opts ListOptions) ([]*domain.Bookshelf, error)

	// Count returns the number of bookshelves matching filter.
	Count(ctx context.Context, filter BookshelfFilter) (int64, error)

	// IsEmpty reports whether the bookshelf has no categories and no books.
	IsEmpty(ctx context.Context, id uuid.UUID) (bool, error)
}

// =============================================================================
// Category Repository
// =============================================================================

// CategoryFilter scopes category queries.
type CategoryFilter struct {
	// OwnerID restricts results to categories on the user's bookshelves.
	OwnerID uuid.UUID

	// BookshelfID optionally narrows to a single bookshelf.
	BookshelfID *uuid.UUID
}

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	// Create creates a new category.
	// Returns domain.ErrCategoryAlreadyExists on a duplicate (bookshelf, name).
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by ID.
	// Returns domain.ErrCategoryNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// Update persists the name and modification time. NBooks is not written.
	Update(ctx context.Context, category *domain.Category) error

	// Delete deletes a category by ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsByName checks if the bookshelf already has a category with name.
	ExistsByName(ctx context.Context, bookshelfID uuid.UUID, name string) (bool, error)

	// List returns one window of categories ordered newest first.
	List(ctx context.Context, filter CategoryFilter, opts ListOptions) ([]*domain.Category, error)

	// Count returns the number of categories matching filter.
	Count(ctx context.Context, filter CategoryFilter) (int64, error)

	// AdjustBookCount atomically adds delta to the category's book count and
	// returns the new value. The store performs the increment itself; callers
	// never read-modify-write. Returns domain.ErrCategoryCountUnderflow when the
	// result would be negative and domain.ErrCategoryNotFound if the category is gone.
	AdjustBookCount(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
}

// =============================================================================
// Book Repository
// =============================================================================

// BookFilter scopes book queries.
type BookFilter struct {
	// OwnerID restricts results to books on the user's bookshelves.
	OwnerID uuid.UUID

	// BookshelfID optionally narrows to a single bookshelf.
	BookshelfID *uuid.UUID

	// CategoryID optionally narrows to a single category.
	CategoryID *uuid.UUID
}

// BookRepository defines the interface for book data access.
type BookRepository interface {
	// Create creates a new book.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book by ID.
	// Returns domain.ErrBookNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error)

	// Update persists metadata, category assignment and modification time.
	Update(ctx context.Context, book *domain.Book) error

	// Delete deletes a book by ID.
	// Returns domain.ErrBookNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns one window of books ordered newest first.
	List(ctx context.Context, filter BookFilter, opts ListOptions) ([]*domain.Book, error)

	// Count returns the number of books matching filter.
	Count(ctx context.Context, filter BookFilter) (int64, error)

	// CountByContentHash returns how many books reference the given content.
	CountByContentHash(ctx context.Context, contentHash string) (int64, error)
}

// =============================================================================
// Common Types
// =============================================================================

// ListOptions contains pagination options for list operations.
// Ordering is fixed for every listing: creation time descending, then id
// descending, so windows are stable across queries.
type ListOptions struct {
	// Offset is the number of items to skip.
	Offset int

	// Limit is the maximum number of items to return.
	Limit int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset: 0,
		Limit:  100,
	}
}
