// Package auth provides session authentication for the Alexander library API.
package auth

import "errors"

// Session errors.
var (
	// ErrMissingToken indicates the request carried no session token.
	ErrMissingToken = errors.New("missing session token")

	// ErrInvalidToken indicates the token is unknown, expired or tampered with.
	ErrInvalidToken = errors.New("invalid or expired session token")

	// ErrUnauthenticated indicates no identity is attached to the context.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrSessionStoreUnavailable indicates the cache holding sessions failed.
	ErrSessionStoreUnavailable = errors.New("session store unavailable")
)
