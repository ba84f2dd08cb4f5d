package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/prn-tf/alexander-library/internal/lock"
	"github.com/prn-tf/alexander-library/internal/metrics"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// guard serializes structural changes. Bookshelf locks are always taken
// before content locks.
type guard struct {
	locker  lock.Locker
	opts    lock.Options
	metrics *metrics.Metrics
}

func newGuard(deps Deps) guard {
	return guard{locker: deps.Locker, opts: deps.LockOptions, metrics: deps.Metrics}
}

// bookshelf runs fn while holding the lock for bookshelfID.
func (g guard) bookshelf(ctx context.Context, bookshelfID uuid.UUID, fn func() error) error {
	return g.run(ctx, lock.Keys.Bookshelf(bookshelfID), fn)
}

// content runs fn while holding the lock for a content hash.
func (g guard) content(ctx context.Context, hash string, fn func() error) error {
	return g.run(ctx, lock.Keys.Content(hash), fn)
}

func (g guard) run(ctx context.Context, key string, fn func() error) error {
	acquired := false
	err := lock.WithLock(ctx, g.locker, key, g.opts, func() error {
		acquired = true
		g.metrics.LockAcquired(false)
		return fn()
	})
	if acquired {
		return err
	}

	if errors.Is(err, repository.ErrLockNotAcquired) {
		g.metrics.LockAcquired(true)
		return ErrResourceBusy
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}
