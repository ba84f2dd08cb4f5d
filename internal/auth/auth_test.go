package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-library/internal/cache/memory"
	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/pkg/crypto"
	"github.com/prn-tf/alexander-library/internal/repository"
)

func newTestManager(t *testing.T) (*SessionManager, *memory.Cache) {
	t.Helper()

	cache := memory.NewCache()
	t.Cleanup(cache.Stop)

	key, err := crypto.GenerateHexKey()
	require.NoError(t, err)

	m, err := NewSessionManager(cache, key, time.Hour, zerolog.Nop())
	require.NoError(t, err)
	return m, cache
}

func TestSessionManager_Lifecycle(t *testing.T) {
	m, cache := newTestManager(t)
	ctx := context.Background()
	user := domain.NewUser("Ada", "ada@example.com", "hash")

	created, err := m.Create(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, created.Token)
	assert.Equal(t, user.ID, created.UserID)

	ttl, err := cache.TTL(ctx, repository.CacheKey{}.Session(created.Token))
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	resolved, err := m.Resolve(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.UserID)
	assert.Equal(t, "ada@example.com", resolved.Email)
	assert.Equal(t, "Ada", resolved.Name)

	require.NoError(t, m.Destroy(ctx, created.Token))

	_, err = m.Resolve(ctx, created.Token)
	require.ErrorIs(t, err, ErrInvalidToken)

	require.ErrorIs(t, m.Destroy(ctx, created.Token), ErrInvalidToken)
	require.ErrorIs(t, m.Destroy(ctx, ""), ErrMissingToken)
}

func TestSessionManager_RejectsForeignPayload(t *testing.T) {
	m, cache := newTestManager(t)
	other, _ := newTestManager(t)
	ctx := context.Background()

	// A payload sealed with another key is rejected.
	created, err := other.Create(ctx, domain.NewUser("Eve", "eve@example.com", "hash"))
	require.NoError(t, err)
	sealed, err := other.cache.Get(ctx, repository.CacheKey{}.Session(created.Token))
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, repository.CacheKey{}.Session(created.Token), sealed, time.Hour))

	_, err = m.Resolve(ctx, created.Token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// A payload moved to a different token is rejected.
	own, err := m.Create(ctx, domain.NewUser("Ada", "ada@example.com", "hash"))
	require.NoError(t, err)
	sealed, err = cache.Get(ctx, repository.CacheKey{}.Session(own.Token))
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, repository.CacheKey{}.Session("stolen"), sealed, time.Hour))

	_, err = m.Resolve(ctx, "stolen")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSessionManager_InvalidKey(t *testing.T) {
	_, err := NewSessionManager(memory.NewCache(), "abc", time.Hour, zerolog.Nop())
	require.ErrorIs(t, err, crypto.ErrInvalidHexKey)

	m, err := NewSessionManager(memory.NewCache(), "", 0, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionTTL, m.TTL())
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(r))

	r.Header.Set(TokenHeader, "from-x-token")
	assert.Equal(t, "from-x-token", TokenFromRequest(r))

	r.Header.Set(AuthorizationHeader, "Bearer from-bearer")
	assert.Equal(t, "from-bearer", TokenFromRequest(r))

	r.Header.Set(AuthorizationHeader, "Basic abc")
	assert.Equal(t, "from-x-token", TokenFromRequest(r))
}

func TestMiddleware(t *testing.T) {
	m, _ := newTestManager(t)
	user := domain.NewUser("Ada", "ada@example.com", "hash")
	session, err := m.Create(context.Background(), user)
	require.NoError(t, err)

	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := RequireIdentity(r.Context())
		require.NoError(t, err)
		assert.Equal(t, user.ID, id.UserID)
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	})

	t.Run("unknown token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(AuthorizationHeader, "Bearer nope")
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(AuthorizationHeader, "Bearer "+session.Token)
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRequireIdentity(t *testing.T) {
	_, err := RequireIdentity(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)
}
