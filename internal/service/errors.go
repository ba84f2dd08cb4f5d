// Package service provides the business logic of the Alexander library:
// ownership checks, paginated listings and the mutations that keep
// category book counters consistent.
package service

import (
	"errors"

	"github.com/prn-tf/alexander-library/internal/domain"
)

// Common service errors.
var (
	// ErrInternalError hides store, cache and content failures from clients.
	ErrInternalError = errors.New("internal server error")

	// ErrResourceBusy indicates the bookshelf lock could not be acquired in time.
	ErrResourceBusy = errors.New("resource is busy, try again later")

	// ErrInvalidPage indicates a negative or out-of-range page number.
	ErrInvalidPage = errors.New("page must be a non-negative integer within range")

	// ErrInvalidPassword indicates the password does not meet the strength rules.
	ErrInvalidPassword = domain.ErrWeakPassword

	// ErrSessionsDisabled indicates a login was attempted without a session manager.
	ErrSessionsDisabled = errors.New("sessions are not configured")
)
