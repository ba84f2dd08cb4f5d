// Package lock provides distributed and local locking abstractions.
// For single-node deployments, memory-based locks are used.
// For distributed deployments, Redis-based locks can be used.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/alexander-library/internal/repository"
)

// Locker defines the interface for distributed/local locking.
// This abstraction allows switching between in-memory locks (single-node)
// and Redis-based locks (distributed) without changing business logic.
type Locker interface {
	// Acquire attempts to acquire a lock.
	// Returns true if the lock was acquired, false if it's held by another process.
	// The lock will automatically expire after the specified TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// AcquireWithRetry attempts to acquire a lock with retries.
	// Will retry up to maxRetries times with retryDelay between attempts.
	AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error)

	// Release releases a lock.
	// Returns true if the lock was released, false if it wasn't held.
	Release(ctx context.Context, key string) (bool, error)

	// Extend extends the TTL of a held lock.
	// Returns true if the lock was extended, false if it's not held.
	Extend(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsHeld checks if the lock is currently held.
	IsHeld(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Scoped Locking
// =============================================================================

// Options controls how a scoped lock is acquired.
type Options struct {
	// TTL bounds how long the lock may be held if the holder dies.
	TTL time.Duration

	// Retries is how many extra attempts are made while the lock is busy.
	Retries int

	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration
}

// DefaultOptions returns the lock options used when none are configured.
func DefaultOptions() Options {
	return Options{
		TTL:        30 * time.Second,
		Retries:    20,
		RetryDelay: 50 * time.Millisecond,
	}
}

// WithLock runs fn while holding key. It returns repository.ErrLockNotAcquired
// when the lock stays busy for every attempt. The lock is released even if
// ctx is cancelled while fn runs.
func WithLock(ctx context.Context, locker Locker, key string, opts Options, fn func() error) error {
	acquired, err := locker.AcquireWithRetry(ctx, key, opts.TTL, opts.Retries, opts.RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", repository.ErrLockNotAcquired, key)
	}

	defer func() {
		_, _ = locker.Release(context.WithoutCancel(ctx), key)
	}()

	return fn()
}

// =============================================================================
// Common Lock Keys
// =============================================================================

// Keys provides lock key generation for common scenarios.
var Keys = lockKeys{}

type lockKeys struct{}

// Bookshelf returns the lock key guarding structural changes to a bookshelf:
// adding or removing its categories and books, and deleting the bookshelf.
func (lockKeys) Bookshelf(id uuid.UUID) string {
	return "lock:bookshelf:" + id.String()
}

// Content returns the lock key guarding the release of stored content, so a
// blob is never deleted while a new book starts referencing it.
func (lockKeys) Content(hash string) string {
	return "lock:content:" + hash
}
