package service

import (
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-library/internal/auth"
	"github.com/prn-tf/alexander-library/internal/lock"
	"github.com/prn-tf/alexander-library/internal/metrics"
	"github.com/prn-tf/alexander-library/internal/repository"
	"github.com/prn-tf/alexander-library/internal/storage"
	"github.com/prn-tf/alexander-library/internal/validation"
)

// Deps holds everything the services are built from.
// Repos and Logger are required; the rest fall back to safe defaults.
type Deps struct {
	Repos       *repository.Repositories
	Content     storage.Backend
	Sessions    *auth.SessionManager
	Locker      lock.Locker
	LockOptions lock.Options
	Validator   *validation.Validator
	Metrics     *metrics.Metrics
	BcryptCost  int
	Logger      zerolog.Logger
}

// Services groups the services the HTTP layer talks to.
type Services struct {
	Access      *AccessResolver
	Users       *UserService
	Bookshelves *BookshelfService
	Categories  *CategoryService
	Books       *BookService
}

// New builds all services from deps. Services built here share one locker,
// which the bookshelf, category and book services rely on.
func New(deps Deps) *Services {
	deps = deps.withDefaults()
	access := NewAccessResolver(deps.Repos, deps.Logger)

	return &Services{
		Access:      access,
		Users:       NewUserService(deps),
		Bookshelves: NewBookshelfService(deps, access),
		Categories:  NewCategoryService(deps, access),
		Books:       NewBookService(deps, access),
	}
}

func (d Deps) withDefaults() Deps {
	if d.Locker == nil {
		d.Locker = lock.NewMemoryLocker()
	}
	if d.LockOptions == (lock.Options{}) {
		d.LockOptions = lock.DefaultOptions()
	}
	if d.Validator == nil {
		d.Validator = validation.New()
	}
	return d
}
