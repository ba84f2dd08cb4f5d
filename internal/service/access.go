package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// AccessResolver decides whether a user may act on an entity by walking the
// ownership chain user -> bookshelf -> category/book. Only bookshelves store
// an owner; everything below is owned through its bookshelf.
type AccessResolver struct {
	shelves    repository.BookshelfRepository
	categories repository.CategoryRepository
	books      repository.BookRepository
	logger     zerolog.Logger
}

// NewAccessResolver creates an AccessResolver.
func NewAccessResolver(repos *repository.Repositories, logger zerolog.Logger) *AccessResolver {
	return &AccessResolver{
		shelves:    repos.Bookshelf,
		categories: repos.Category,
		books:      repos.Book,
		logger:     logger.With().Str("service", "access").Logger(),
	}
}

// OwnsBookshelf reports whether userID owns bookshelfID.
// Unknown ids and store failures answer false.
func (a *AccessResolver) OwnsBookshelf(ctx context.Context, userID, bookshelfID uuid.UUID) bool {
	_, err := a.RequireBookshelf(ctx, userID, bookshelfID)
	return err == nil
}

// OwnsCategory reports whether userID owns the bookshelf holding categoryID.
func (a *AccessResolver) OwnsCategory(ctx context.Context, userID, categoryID uuid.UUID) bool {
	_, _, err := a.RequireCategory(ctx, userID, categoryID)
	return err == nil
}

// CategoryBelongsToBookshelf reports whether categoryID's parent is bookshelfID.
func (a *AccessResolver) CategoryBelongsToBookshelf(ctx context.Context, bookshelfID, categoryID uuid.UUID) bool {
	if bookshelfID == uuid.Nil || categoryID == uuid.Nil {
		return false
	}

	category, err := a.categories.GetByID(ctx, categoryID)
	if err != nil {
		a.logLookupFailure(err, "category", categoryID)
		return false
	}
	return category.BookshelfID == bookshelfID
}

// RequireBookshelf loads bookshelfID and checks that userID owns it.
// It returns domain.ErrBookshelfNotFound, domain.ErrAccessDenied or
// ErrInternalError.
func (a *AccessResolver) RequireBookshelf(ctx context.Context, userID, bookshelfID uuid.UUID) (*domain.Bookshelf, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrAccessDenied
	}
	if bookshelfID == uuid.Nil {
		return nil, domain.ErrBookshelfNotFound
	}

	shelf, err := a.shelves.GetByID(ctx, bookshelfID)
	if err != nil {
		if errors.Is(err, domain.ErrBookshelfNotFound) {
			return nil, domain.ErrBookshelfNotFound
		}
		a.logLookupFailure(err, "bookshelf", bookshelfID)
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if shelf.OwnerID != userID {
		return nil, domain.ErrAccessDenied
	}
	return shelf, nil
}

// RequireCategory loads categoryID and its parent bookshelf and checks that
// userID owns the bookshelf.
func (a *AccessResolver) RequireCategory(ctx context.Context, userID, categoryID uuid.UUID) (*domain.Category, *domain.Bookshelf, error) {
	if categoryID == uuid.Nil {
		return nil, nil, domain.ErrCategoryNotFound
	}

	category, err := a.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, nil, domain.ErrCategoryNotFound
		}
		a.logLookupFailure(err, "category", categoryID)
		return nil, nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	shelf, err := a.RequireBookshelf(ctx, userID, category.BookshelfID)
	if err != nil {
		// A category whose bookshelf is gone is unreachable.
		if errors.Is(err, domain.ErrBookshelfNotFound) {
			return nil, nil, domain.ErrCategoryNotFound
		}
		return nil, nil, err
	}
	return category, shelf, nil
}

// RequireBook loads bookID and checks that userID owns its bookshelf.
func (a *AccessResolver) RequireBook(ctx context.Context, userID, bookID uuid.UUID) (*domain.Book, error) {
	if bookID == uuid.Nil {
		return nil, domain.ErrBookNotFound
	}

	book, err := a.books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, domain.ErrBookNotFound
		}
		a.logLookupFailure(err, "book", bookID)
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if _, err := a.RequireBookshelf(ctx, userID, book.BookshelfID); err != nil {
		if errors.Is(err, domain.ErrBookshelfNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

func (a *AccessResolver) logLookupFailure(err error, kind string, id uuid.UUID) {
	if errors.Is(err, domain.ErrBookshelfNotFound) ||
		errors.Is(err, domain.ErrCategoryNotFound) ||
		errors.Is(err, domain.ErrBookNotFound) {
		return
	}
	a.logger.Warn().Err(err).Str("kind", kind).Str("id", id.String()).Msg("ownership lookup failed")
}
