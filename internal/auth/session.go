package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/pkg/crypto"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// DefaultSessionTTL is how long a session lives when no TTL is configured.
const DefaultSessionTTL = 24 * time.Hour

// SessionResolver resolves a session token to an identity.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// SessionManager issues, resolves and destroys login sessions.
//
// The client only ever sees a short opaque token. The cache maps
// session:<token> to a PASETO v4.local payload sealed with the server key,
// so a cache entry cannot be forged or edited without the key.
type SessionManager struct {
	cache  repository.Cache
	key    paseto.V4SymmetricKey
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewSessionManager creates a SessionManager. keyHex is the 64-character hex
// session key; an empty key generates a random one.
func NewSessionManager(cache repository.Cache, keyHex string, ttl time.Duration, logger zerolog.Logger) (*SessionManager, error) {
	var key paseto.V4SymmetricKey
	if keyHex == "" {
		key = paseto.NewV4SymmetricKey()
		logger.Warn().Msg("no session key configured, sessions will not survive a restart")
	} else {
		raw, err := crypto.ParseHexKey(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid session key: %w", err)
		}
		key, err = paseto.V4SymmetricKeyFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to create session key: %w", err)
		}
	}

	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &SessionManager{
		cache:  cache,
		key:    key,
		ttl:    ttl,
		logger: logger.With().Str("component", "sessions").Logger(),
		now:    time.Now,
	}, nil
}

// TTL returns the session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Create starts a session for user and returns its token.
func (m *SessionManager) Create(ctx context.Context, user *domain.User) (*Identity, error) {
	token, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := m.now()
	expires := now.Add(m.ttl)

	pt := paseto.NewToken()
	pt.SetIssuer(tokenIssuer)
	pt.SetAudience(tokenAudience)
	pt.SetSubject(user.ID.String())
	pt.SetJti(token)
	pt.SetIssuedAt(now)
	pt.SetNotBefore(now)
	pt.SetExpiration(expires)
	pt.SetString(claimEmail, user.Email)
	pt.SetString(claimName, user.Name)

	sealed := pt.V4Encrypt(m.key, nil)

	if err := m.cache.Set(ctx, repository.CacheKey{}.Session(token), []byte(sealed), m.ttl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
	}

	m.logger.Debug().Str("user_id", user.ID.String()).Msg("session created")

	return &Identity{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: expires,
	}, nil
}

// Resolve looks up token and verifies the sealed payload behind it.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	sealed, err := m.cache.Get(ctx, repository.CacheKey{}.Session(token))
	if err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
	}

	now := m.now()
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.IdentifiedBy(token))
	parser.AddRule(paseto.ValidAt(now))

	pt, err := parser.ParseV4Local(m.key, string(sealed), nil)
	if err != nil {
		m.logger.Debug().Err(err).Msg("rejected session payload")
		return nil, ErrInvalidToken
	}

	subject, err := pt.GetSubject()
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	id := &Identity{UserID: userID, Token: token}
	id.Email, _ = pt.GetString(claimEmail)
	id.Name, _ = pt.GetString(claimName)
	id.IssuedAt, _ = pt.GetIssuedAt()
	id.ExpiresAt, _ = pt.GetExpiration()

	return id, nil
}

// Destroy ends the session behind token.
// Returns ErrInvalidToken if no such session exists.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissingToken
	}

	key := repository.CacheKey{}.Session(token)
	exists, err := m.cache.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
	}
	if !exists {
		return ErrInvalidToken
	}

	if err := m.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
	}
	return nil
}

var _ SessionResolver = (*SessionManager)(nil)
