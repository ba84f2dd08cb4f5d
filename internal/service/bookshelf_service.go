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

// BookshelfService handles bookshelf operations.
type BookshelfService struct {
	shelves  repository.BookshelfRepository
	access   *AccessResolver
	guard    guard
	validate *validation.Validator
	logger   zerolog.Logger
}

// NewBookshelfService creates a new BookshelfService.
func NewBookshelfService(deps Deps, access *AccessResolver) *BookshelfService {
	return &BookshelfService{
		shelves:  deps.Repos.Bookshelf,
		access:   access,
		guard:    newGuard(deps),
		validate: deps.Validator,
		logger:   deps.Logger.With().Str("service", "bookshelf").Logger(),
	}
}

// BookshelfInput is the payload for creating or renaming a bookshelf.
type BookshelfInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// Create creates a bookshelf owned by ownerID.
func (s *BookshelfService) Create(ctx context.Context, ownerID uuid.UUID, input BookshelfInput) (*domain.Bookshelf, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	shelf := domain.NewBookshelf(ownerID, input.Name)

	exists, err := s.shelves.ExistsByName(ctx, ownerID, shelf.Name)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check bookshelf name")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrBookshelfAlreadyExists, shelf.Name)
	}

	if err := s.shelves.Create(ctx, shelf); err != nil {
		if errors.Is(err, domain.ErrBookshelfAlreadyExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to create bookshelf")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("bookshelf_id", shelf.ID.String()).
		Str("owner_id", ownerID.String()).
		Msg("bookshelf created")

	return shelf, nil
}

// Get returns a bookshelf owned by userID.
func (s *BookshelfService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Bookshelf, error) {
	return s.access.RequireBookshelf(ctx, userID, id)
}

// Rename changes the name of a bookshelf owned by userID.
func (s *BookshelfService) Rename(ctx context.Context, userID, id uuid.UUID, input BookshelfInput) (*domain.Bookshelf, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	shelf, err := s.access.RequireBookshelf(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	shelf.Rename(input.Name)
	if err := s.shelves.Update(ctx, shelf); err != nil {
		if errors.Is(err, domain.ErrBookshelfAlreadyExists) || errors.Is(err, domain.ErrBookshelfNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("bookshelf_id", id.String()).Msg("failed to rename bookshelf")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return shelf, nil
}

// Delete deletes an empty bookshelf owned by userID.
// The emptiness check and the delete run under the bookshelf lock.
func (s *BookshelfService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.access.RequireBookshelf(ctx, userID, id); err != nil {
		return err
	}

	return s.guard.bookshelf(ctx, id, func() error {
		empty, err := s.shelves.IsEmpty(ctx, id)
		if err != nil {
			s.logger.Error().Err(err).Str("bookshelf_id", id.String()).Msg("failed to check bookshelf contents")
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if !empty {
			return domain.ErrBookshelfNotEmpty
		}

		if err := s.shelves.Delete(ctx, id); err != nil {
			if errors.Is(err, domain.ErrBookshelfNotFound) || errors.Is(err, domain.ErrBookshelfNotEmpty) {
				return err
			}
			s.logger.Error().Err(err).Str("bookshelf_id", id.String()).Msg("failed to delete bookshelf")
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}

		s.logger.Info().Str("bookshelf_id", id.String()).Msg("bookshelf deleted")
		return nil
	})
}

// List returns one page of the bookshelves owned by userID.
func (s *BookshelfService) List(ctx context.Context, userID uuid.UUID, page int) (*Page[*domain.Bookshelf], error) {
	return ListPage[*domain.Bookshelf, repository.BookshelfFilter](ctx, s.shelves, repository.BookshelfFilter{OwnerID: userID}, page)
}
