package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/alexander-library/internal/auth"
	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/metrics"
	"github.com/prn-tf/alexander-library/internal/repository"
	"github.com/prn-tf/alexander-library/internal/validation"
)

// UserService handles registration, sessions and profile lookups.
type UserService struct {
	users      repository.UserRepository
	shelves    repository.BookshelfRepository
	categories repository.CategoryRepository
	books      repository.BookRepository
	sessions   *auth.SessionManager
	validate   *validation.Validator
	metrics    *metrics.Metrics
	bcryptCost int
	logger     zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(deps Deps) *UserService {
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}

	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &UserService{
		users:      deps.Repos.User,
		shelves:    deps.Repos.Bookshelf,
		categories: deps.Repos.Category,
		books:      deps.Repos.Book,
		sessions:   deps.Sessions,
		validate:   deps.Validator,
		metrics:    deps.Metrics,
		bcryptCost: cost,
		logger:     deps.Logger.With().Str("service", "user").Logger(),
	}
}

// RegisterInput contains the data needed to create a new user.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// Register creates a new user account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(input.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to check email existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email '%s'", domain.ErrUserAlreadyExists, email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Name, email, string(passwordHash))
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("email", email).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}

// LoginInput contains login credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginOutput contains the session issued on a successful login.
type LoginOutput struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Login verifies credentials and starts a session.
// Unknown emails and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}
	if s.sessions == nil {
		return nil, ErrSessionsDisabled
	}

	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.metrics.SessionEvent(metrics.SessionRejected)
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Msg("failed to look up user for login")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.metrics.SessionEvent(metrics.SessionRejected)
		return nil, domain.ErrInvalidCredentials
	}

	session, err := s.sessions.Create(ctx, user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to create session")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.metrics.SessionEvent(metrics.SessionLogin)
	return &LoginOutput{User: user, Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

// Logout ends the session behind token. A missing or unknown token yields
// auth.ErrMissingToken or auth.ErrInvalidToken.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if s.sessions == nil {
		return ErrSessionsDisabled
	}

	if err := s.sessions.Destroy(ctx, token); err != nil {
		if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) {
			return err
		}
		s.logger.Error().Err(err).Msg("failed to destroy session")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.metrics.SessionEvent(metrics.SessionLogout)
	return nil
}

// Profile is a user together with how much they have stored.
type Profile struct {
	User         *domain.User
	NBookshelves int64
	NCategories  int64
	NBooks       int64
}

// Me returns the profile of userID.
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	profile := &Profile{User: user}
	if profile.NBookshelves, err = s.shelves.Count(ctx, repository.BookshelfFilter{OwnerID: userID}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if profile.NCategories, err = s.categories.Count(ctx, repository.CategoryFilter{OwnerID: userID}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if profile.NBooks, err = s.books.Count(ctx, repository.BookFilter{OwnerID: userID}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return profile, nil
}

// List returns users newest first. Used by admin tooling.
func (s *UserService) List(ctx context.Context, opts repository.ListOptions) ([]*domain.User, error) {
	users, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return users, nil
}

// Stats holds library-wide totals.
type Stats struct {
	Users       int64 `json:"users"`
	Bookshelves int64 `json:"bookshelves"`
	Categories  int64 `json:"categories"`
	Books       int64 `json:"books"`
}

// Stats counts every entity across all users.
func (s *UserService) Stats(ctx context.Context) (*Stats, error) {
	var (
		stats Stats
		err   error
	)
	if stats.Users, err = s.users.Count(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if stats.Bookshelves, err = s.shelves.Count(ctx, repository.BookshelfFilter{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if stats.Categories, err = s.categories.Count(ctx, repository.CategoryFilter{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if stats.Books, err = s.books.Count(ctx, repository.BookFilter{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return &stats, nil
}
