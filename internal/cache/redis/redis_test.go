package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-library/internal/config"
	"github.com/prn-tf/alexander-library/internal/repository"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCache(t *testing.T) {
	mr, client := newTestClient(t)
	c := NewCache(client)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	_, err := c.Get(ctx, repository.CacheKey{}.Session("abc"))
	require.ErrorIs(t, err, repository.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "session:abc", []byte("payload"), time.Hour))
	got, err := c.Get(ctx, "session:abc")
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))

	ttl, err := c.TTL(ctx, "session:abc")
	require.NoError(t, err)
	require.Equal(t, time.Hour, ttl)

	ttl, err = c.TTL(ctx, "missing")
	require.NoError(t, err)
	require.Equal(t, time.Duration(-1), ttl)

	require.NoError(t, c.Set(ctx, "forever", []byte("x"), 0))
	ttl, err = c.TTL(ctx, "forever")
	require.NoError(t, err)
	require.Equal(t, time.Duration(-2), ttl)

	ok, err := c.SetNX(ctx, "session:abc", []byte("other"), time.Hour)
	require.NoError(t, err)
	require.False(t, ok)

	mr.FastForward(2 * time.Hour)
	ok, err = c.Exists(ctx, "session:abc")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestCache_Unavailable(t *testing.T) {
	mr, client := newTestClient(t)
	c := NewCache(client)
	mr.SetError("ERR injected failure")

	_, err := c.Get(context.Background(), "k")
	require.ErrorIs(t, err, repository.ErrCacheUnavailable)
}

func TestLock(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	first := NewLock(client)
	second := NewLock(client)

	ok, err := first.Acquire(ctx, "lock:bookshelf:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.AcquireWithRetry(ctx, "lock:bookshelf:1", time.Minute, 2, time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)

	held, err := second.IsHeld(ctx, "lock:bookshelf:1")
	require.NoError(t, err)
	require.True(t, held)

	// A lock is only released by the instance that took it.
	released, err := second.Release(ctx, "lock:bookshelf:1")
	require.NoError(t, err)
	require.False(t, released)

	extended, err := first.Extend(ctx, "lock:bookshelf:1", 2*time.Minute)
	require.NoError(t, err)
	require.True(t, extended)
	require.Equal(t, 2*time.Minute, mr.TTL("lock:bookshelf:1"))

	released, err = first.Release(ctx, "lock:bookshelf:1")
	require.NoError(t, err)
	require.True(t, released)

	ok, err = second.Acquire(ctx, "lock:bookshelf:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLock_ExpiredTokenIsNotReleased(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	first := NewLock(client)
	second := NewLock(client)

	ok, err := first.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = second.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := first.Release(ctx, "k")
	require.NoError(t, err)
	require.False(t, released)
	require.True(t, mr.Exists("k"))
}
