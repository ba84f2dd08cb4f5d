package repository

import "errors"

// Errors shared by the session cache and the lock backends. Entity lookups
// report the domain sentinels (domain.ErrBookNotFound, ...) instead.
var (
	// ErrCacheMiss is returned by Cache.Get for an absent or expired key.
	// Sessions treat it as an unknown token.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable wraps a backend failure so callers can tell an
	// outage from a miss.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrLockNotAcquired means every retry found the key held. Services
	// surface it as a busy resource.
	ErrLockNotAcquired = errors.New("lock not acquired")
)
