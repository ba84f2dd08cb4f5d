package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/metrics"
	"github.com/prn-tf/alexander-library/internal/repository"
	"github.com/prn-tf/alexander-library/internal/storage"
	"github.com/prn-tf/alexander-library/internal/validation"
)

// BookService handles book operations and keeps category book counters in
// step with the books that reference each category.
type BookService struct {
	books      repository.BookRepository
	categories repository.CategoryRepository
	content    storage.Backend
	access     *AccessResolver
	guard      guard
	validate   *validation.Validator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewBookService creates a new BookService.
func NewBookService(deps Deps, access *AccessResolver) *BookService {
	return &BookService{
		books:      deps.Repos.Book,
		categories: deps.Repos.Category,
		content:    deps.Content,
		access:     access,
		guard:      newGuard(deps),
		validate:   deps.Validator,
		metrics:    deps.Metrics,
		logger:     deps.Logger.With().Str("service", "book").Logger(),
	}
}

// OptionalID is a JSON id field that tells an absent field apart from an
// explicit null.
type OptionalID struct {
	Set bool
	ID  *uuid.UUID
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.ID = nil
		return nil
	}

	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.ID = &id
	return nil
}

// CreateBookInput is the payload for creating a book.
type CreateBookInput struct {
	Name            string     `json:"name" validate:"required,max=255"`
	Author          string     `json:"author" validate:"max=255"`
	PublishedInYear int        `json:"publishedInYear" validate:"gte=0,lte=9999"`
	NumberOfPages   int        `json:"numberOfPages" validate:"gte=0"`
	BookshelfID     uuid.UUID  `json:"bookshelfId" validate:"required"`
	CategoryID      *uuid.UUID `json:"categoryId"`

	Content     io.Reader `json:"-" validate:"-"`
	ContentName string    `json:"-" validate:"-"`
	ContentType string    `json:"-" validate:"-"`
}

// UpdateBookInput is the payload for updating a book. An absent categoryId
// keeps the current category; an explicit null removes it.
type UpdateBookInput struct {
	Name            string     `json:"name" validate:"required,max=255"`
	Author          string     `json:"author" validate:"max=255"`
	PublishedInYear int        `json:"publishedInYear" validate:"gte=0,lte=9999"`
	NumberOfPages   int        `json:"numberOfPages" validate:"gte=0"`
	BookshelfID     *uuid.UUID `json:"bookshelfId"`
	CategoryID      OptionalID `json:"categoryId" validate:"-"`
}

// Create stores the content and creates a book on a bookshelf owned by
// userID, optionally in one of that bookshelf's categories.
func (s *BookService) Create(ctx context.Context, userID uuid.UUID, input CreateBookInput) (*domain.Book, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateBookDetails(input.PublishedInYear, input.NumberOfPages); err != nil {
		return nil, err
	}
	if input.Content == nil {
		return nil, domain.ErrBookContentMissing
	}
	if s.content == nil {
		return nil, fmt.Errorf("%w: no content store configured", ErrInternalError)
	}

	shelf, err := s.access.RequireBookshelf(ctx, userID, input.BookshelfID)
	if err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if err := s.checkCategory(ctx, userID, shelf.ID, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	hash, size, err := s.content.Store(ctx, input.Content)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to store book content")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	s.metrics.ContentStored(size)

	book := domain.NewBook(shelf.ID, input.CategoryID, input.Name, domain.BookContent{
		Hash: hash,
		Size: size,
		Name: input.ContentName,
		Type: input.ContentType,
	})
	book.Author = input.Author
	book.PublishedInYear = input.PublishedInYear
	book.NumberOfPages = input.NumberOfPages

	err = s.guard.bookshelf(ctx, shelf.ID, func() error {
		return s.guard.content(ctx, hash, func() error {
			return s.insert(ctx, book)
		})
	})
	if err != nil {
		s.releaseContent(ctx, hash)
		return nil, err
	}

	s.logger.Info().
		Str("book_id", book.ID.String()).
		Str("bookshelf_id", book.BookshelfID.String()).
		Str("content_hash", hash).
		Msg("book created")

	return book, nil
}

// insert writes the book row and bumps its category counter. It runs under
// the bookshelf and content locks. If the counter cannot be bumped the row is
// removed again.
func (s *BookService) insert(ctx context.Context, book *domain.Book) error {
	exists, err := s.content.Exists(ctx, book.ContentHash)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !exists {
		// Released by a concurrent delete between Store and now.
		return ErrResourceBusy
	}

	if book.CategoryID != nil {
		category, err := s.categories.GetByID(ctx, *book.CategoryID)
		if err != nil {
			return s.internal(err, "failed to reload category")
		}
		if category.BookshelfID != book.BookshelfID {
			return domain.ErrCategoryNotInBookshelf
		}
	}

	if err := s.books.Create(ctx, book); err != nil {
		return s.internal(err, "failed to create book")
	}

	if book.CategoryID == nil {
		return nil
	}

	if _, err := s.adjust(ctx, *book.CategoryID, 1); err != nil {
		if delErr := s.books.Delete(context.WithoutCancel(ctx), book.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("book_id", book.ID.String()).Msg("failed to roll back book after counter failure")
		}
		return err
	}
	return nil
}

// Get returns a book on a bookshelf userID owns.
func (s *BookService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Book, error) {
	return s.access.RequireBook(ctx, userID, id)
}

// Update changes a book's metadata and category. Moving between categories
// decrements the old counter and increments the new one.
func (s *BookService) Update(ctx context.Context, userID, id uuid.UUID, input UpdateBookInput) (*domain.Book, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateBookDetails(input.PublishedInYear, input.NumberOfPages); err != nil {
		return nil, err
	}

	book, err := s.access.RequireBook(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if input.BookshelfID != nil && *input.BookshelfID != book.BookshelfID {
		return nil, domain.ErrBookshelfImmutable
	}
	if input.CategoryID.Set && input.CategoryID.ID != nil && !book.InCategory(*input.CategoryID.ID) {
		if err := s.checkCategory(ctx, userID, book.BookshelfID, *input.CategoryID.ID); err != nil {
			return nil, err
		}
	}

	var updated *domain.Book
	err = s.guard.bookshelf(ctx, book.BookshelfID, func() error {
		current, err := s.books.GetByID(ctx, id)
		if err != nil {
			return s.internal(err, "failed to reload book")
		}

		oldCategory := current.CategoryID
		newCategory := oldCategory
		if input.CategoryID.Set {
			newCategory = input.CategoryID.ID
		}
		moved := !domain.SameCategory(oldCategory, newCategory)

		if moved && newCategory != nil {
			category, err := s.categories.GetByID(ctx, *newCategory)
			if err != nil {
				return s.internal(err, "failed to reload category")
			}
			if category.BookshelfID != current.BookshelfID {
				return domain.ErrCategoryNotInBookshelf
			}
			if _, err := s.adjust(ctx, *newCategory, 1); err != nil {
				return err
			}
		}

		current.Name = input.Name
		current.Author = input.Author
		current.PublishedInYear = input.PublishedInYear
		current.NumberOfPages = input.NumberOfPages
		current.CategoryID = newCategory
		current.Touch()

		if err := s.books.Update(ctx, current); err != nil {
			if moved && newCategory != nil {
				if _, undoErr := s.adjust(context.WithoutCancel(ctx), *newCategory, -1); undoErr != nil {
					s.logger.Error().Err(undoErr).Str("category_id", newCategory.String()).Msg("failed to undo counter increment")
				}
			}
			return s.internal(err, "failed to update book")
		}

		if moved && oldCategory != nil {
			if _, err := s.adjust(ctx, *oldCategory, -1); err != nil {
				return err
			}
		}

		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete deletes a book and decrements its category counter. Deleting the
// same id again yields domain.ErrBookNotFound.
func (s *BookService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	book, err := s.access.RequireBook(ctx, userID, id)
	if err != nil {
		return err
	}

	var contentHash string
	err = s.guard.bookshelf(ctx, book.BookshelfID, func() error {
		current, err := s.books.GetByID(ctx, id)
		if err != nil {
			return s.internal(err, "failed to reload book")
		}

		if err := s.books.Delete(ctx, id); err != nil {
			return s.internal(err, "failed to delete book")
		}
		contentHash = current.ContentHash

		if current.CategoryID != nil {
			if _, err := s.adjust(ctx, *current.CategoryID, -1); err != nil {
				return err
			}
		}
		return nil
	})
	if contentHash != "" {
		s.releaseContent(ctx, contentHash)
	}
	if err != nil {
		return err
	}

	s.logger.Info().Str("book_id", id.String()).Msg("book deleted")
	return nil
}

// Content opens the stored content of a book on a bookshelf userID owns.
// The caller must close the reader.
func (s *BookService) Content(ctx context.Context, userID, id uuid.UUID) (*domain.Book, io.ReadCloser, error) {
	book, err := s.access.RequireBook(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	if s.content == nil {
		return nil, nil, fmt.Errorf("%w: no content store configured", ErrInternalError)
	}

	rc, err := s.content.Retrieve(ctx, book.ContentHash)
	if err != nil {
		if errors.Is(err, storage.ErrContentNotFound) || errors.Is(err, storage.ErrInvalidHash) {
			s.logger.Warn().Str("book_id", id.String()).Str("content_hash", book.ContentHash).Msg("book content missing")
			return nil, nil, domain.ErrContentNotFound
		}
		return nil, nil, s.internal(err, "failed to open book content")
	}
	return book, rc, nil
}

// List returns one page of the books userID owns, optionally narrowed to a
// bookshelf, a category, or both.
func (s *BookService) List(ctx context.Context, userID uuid.UUID, bookshelfID, categoryID *uuid.UUID, page int) (*Page[*domain.Book], error) {
	if page < 0 {
		return nil, ErrInvalidPage
	}
	if bookshelfID != nil {
		if _, err := s.access.RequireBookshelf(ctx, userID, *bookshelfID); err != nil {
			return nil, err
		}
	}
	if categoryID != nil {
		category, _, err := s.access.RequireCategory(ctx, userID, *categoryID)
		if err != nil {
			return nil, err
		}
		if bookshelfID != nil && category.BookshelfID != *bookshelfID {
			return nil, domain.ErrCategoryNotInBookshelf
		}
	}

	filter := repository.BookFilter{OwnerID: userID, BookshelfID: bookshelfID, CategoryID: categoryID}
	return ListPage[*domain.Book, repository.BookFilter](ctx, s.books, filter, page)
}

// checkCategory verifies userID owns categoryID and that it lives on bookshelfID.
func (s *BookService) checkCategory(ctx context.Context, userID, bookshelfID, categoryID uuid.UUID) error {
	category, _, err := s.access.RequireCategory(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	if category.BookshelfID != bookshelfID {
		return domain.ErrCategoryNotInBookshelf
	}
	return nil
}

// adjust applies an atomic counter delta. An underflow means the counter has
// drifted from the books referencing the category; it is logged and returned.
func (s *BookService) adjust(ctx context.Context, categoryID uuid.UUID, delta int64) (int64, error) {
	n, err := s.categories.AdjustBookCount(ctx, categoryID, delta)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryCountUnderflow) {
			s.logger.Error().
				Str("category_id", categoryID.String()).
				Int64("delta", delta).
				Msg("category book counter would go negative")
			return 0, err
		}
		return 0, s.internal(err, "failed to adjust category book counter")
	}

	s.metrics.CategoryAdjusted(delta)
	return n, nil
}

// releaseContent deletes stored content once no book references it.
// Failures are logged; the blob is left for a later release.
func (s *BookService) releaseContent(ctx context.Context, hash string) {
	if s.content == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	err := s.guard.content(ctx, hash, func() error {
		refs, err := s.books.CountByContentHash(ctx, hash)
		if err != nil {
			return err
		}
		if refs > 0 {
			return nil
		}
		return s.content.Delete(ctx, hash)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("content_hash", hash).Msg("failed to release book content")
	}
}

// internal passes domain errors through and wraps everything else.
func (s *BookService) internal(err error, msg string) error {
	var domainErr *domain.DomainError
	switch {
	case errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrBookshelfNotFound),
		errors.Is(err, domain.ErrCategoryNotInBookshelf),
		errors.As(err, &domainErr):
		return err
	}
	s.logger.Error().Err(err).Msg(msg)
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}
