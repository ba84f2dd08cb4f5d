package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
	"github.com/prn-tf/alexander-library/internal/validation"
)

// CategoryService handles category operations.
type CategoryService struct {
	categories repository.CategoryRepository
	books      repository.BookRepository
	access     *AccessResolver
	guard      guard
	validate   *validation.Validator
	logger     zerolog.Logger
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(deps Deps, access *AccessResolver) *CategoryService {
	return &CategoryService{
		categories: deps.Repos.Category,
		books:      deps.Repos.Book,
		access:     access,
		guard:      newGuard(deps),
		validate:   deps.Validator,
		logger:     deps.Logger.With().Str("service", "category").Logger(),
	}
}

// CreateCategoryInput is the payload for creating a category.
type CreateCategoryInput struct {
	Name     string    `json:"name" validate:"required,max=255"`
	ParentID uuid.UUID `json:"parentId" validate:"required"`
}

// RenameCategoryInput is the payload for renaming a category.
type RenameCategoryInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// Create creates an empty category under a bookshelf owned by userID.
func (s *CategoryService) Create(ctx context.Context, userID uuid.UUID, input CreateCategoryInput) (*domain.Category, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	if _, err := s.access.RequireBookshelf(ctx, userID, input.ParentID); err != nil {
		return nil, err
	}

	category := domain.NewCategory(input.ParentID, input.Name)

	err := s.guard.bookshelf(ctx, input.ParentID, func() error {
		exists, err := s.categories.ExistsByName(ctx, input.ParentID, category.Name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if exists {
			return fmt.Errorf("%w: %s", domain.ErrCategoryAlreadyExists, category.Name)
		}

		if err := s.categories.Create(ctx, category); err != nil {
			if errors.Is(err, domain.ErrCategoryAlreadyExists) || errors.Is(err, domain.ErrBookshelfNotFound) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternalError) {
			s.logger.Error().Err(err).Str("bookshelf_id", input.ParentID.String()).Msg("failed to create category")
		}
		return nil, err
	}

	s.logger.Info().
		Str("category_id", category.ID.String()).
		Str("bookshelf_id", category.BookshelfID.String()).
		Msg("category created")

	return category, nil
}

// Get returns a category whose bookshelf userID owns.
func (s *CategoryService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Category, error) {
	category, _, err := s.access.RequireCategory(ctx, userID, id)
	return category, err
}

// Rename changes the name of a category. The book counter is untouched.
func (s *CategoryService) Rename(ctx context.Context, userID, id uuid.UUID, input RenameCategoryInput) (*domain.Category, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	category, _, err := s.access.RequireCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	category.Rename(input.Name)
	if err := s.categories.Update(ctx, category); err != nil {
		if errors.Is(err, domain.ErrCategoryAlreadyExists) || errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("category_id", id.String()).Msg("failed to rename category")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// Re-read so the response carries the stored counter.
	fresh, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return category, nil
	}
	return fresh, nil
}

// Delete deletes a category that no book references. The check and the
// delete run under the parent bookshelf lock, which every book mutation in
// that bookshelf also takes.
func (s *CategoryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	category, _, err := s.access.RequireCategory(ctx, userID, id)
	if err != nil {
		return err
	}

	return s.guard.bookshelf(ctx, category.BookshelfID, func() error {
		current, err := s.categories.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrCategoryNotFound) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if !current.IsEmpty() {
			return domain.ErrCategoryNotEmpty
		}

		referencing, err := s.books.Count(ctx, repository.BookFilter{CategoryID: &id})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if referencing > 0 {
			s.logger.Warn().
				Str("category_id", id.String()).
				Int64("referencing", referencing).
				Msg("empty category counter but books still reference it")
			return domain.ErrCategoryNotEmpty
		}

		if err := s.categories.Delete(ctx, id); err != nil {
			if errors.Is(err, domain.ErrCategoryNotFound) || errors.Is(err, domain.ErrCategoryNotEmpty) {
				return err
			}
			s.logger.Error().Err(err).Str("category_id", id.String()).Msg("failed to delete category")
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}

		s.logger.Info().Str("category_id", id.String()).Msg("category deleted")
		return nil
	})
}

// List returns one page of the categories userID owns, optionally narrowed
// to one of their bookshelves.
func (s *CategoryService) List(ctx context.Context, userID uuid.UUID, bookshelfID *uuid.UUID, page int) (*Page[*domain.Category], error) {
	if page < 0 {
		return nil, ErrInvalidPage
	}
	if bookshelfID != nil {
		if _, err := s.access.RequireBookshelf(ctx, userID, *bookshelfID); err != nil {
			return nil, err
		}
	}

	filter := repository.CategoryFilter{OwnerID: userID, BookshelfID: bookshelfID}
	return ListPage[*domain.Category, repository.CategoryFilter](ctx, s.categories, filter, page)
}
