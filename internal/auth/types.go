package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Identity is the authenticated user behind a session token.
type Identity struct {
	// UserID is the authenticated user.
	UserID uuid.UUID

	Email string
	Name  string

	// Token is the opaque session token the identity was resolved from.
	Token string

	IssuedAt  time.Time
	ExpiresAt time.Time
}

type contextKey string

// IdentityContextKey is the context key for the authenticated Identity.
const IdentityContextKey contextKey = "alexander-identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

// GetIdentity retrieves the Identity from a request context.
func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(IdentityContextKey).(*Identity); ok {
		return id
	}
	return nil
}

// RequireIdentity is a helper to get the identity or return an error.
func RequireIdentity(ctx context.Context) (*Identity, error) {
	id := GetIdentity(ctx)
	if id == nil {
		return nil, ErrUnauthenticated
	}
	return id, nil
}
