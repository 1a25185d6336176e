package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type view struct {
	Labels []string `json:"labels"`
	Total  int      `json:"total"`
}

func newClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewClientUnreachable(t *testing.T) {
	_, err := NewClient(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}

func TestViewCache(t *testing.T) {
	c, mr := newClient(t)
	ctx := context.Background()
	cache := NewViewCache[view](c.Client, time.Minute, zerolog.Nop())

	_, ok := cache.Get(ctx, "history:1:0")
	assert.False(t, ok)

	cache.Set(ctx, "history:1:0", &view{Labels: []string{"a"}, Total: 3})
	got, ok := cache.Get(ctx, "history:1:0")
	require.True(t, ok)
	assert.Equal(t, view{Labels: []string{"a"}, Total: 3}, *got)
	assert.Equal(t, time.Minute, mr.TTL("history:1:0"))

	cache.Delete(ctx, "history:1:0")
	_, ok = cache.Get(ctx, "history:1:0")
	assert.False(t, ok)

	mr.Set("bad", "{not json")
	_, ok = cache.Get(ctx, "bad")
	assert.False(t, ok)
}

func TestNilViewCache(t *testing.T) {
	var cache *ViewCache[view]
	ctx := context.Background()

	cache.Set(ctx, "k", &view{})
	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok)
	cache.Delete(ctx, "k")
}

func TestLocker(t *testing.T) {
	c, mr := newClient(t)
	ctx := context.Background()
	locker := NewLocker(c.Client)

	release, ok, err := locker.Acquire(ctx, "lock:term", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.Acquire(ctx, "lock:term", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("lock:term"))

	_, ok, err = locker.Acquire(ctx, "lock:term", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockerReleaseAfterTakeover(t *testing.T) {
	c, mr := newClient(t)
	ctx := context.Background()
	locker := NewLocker(c.Client)

	release, ok, err := locker.Acquire(ctx, "lock:term", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok, err = locker.Acquire(ctx, "lock:term", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, release(ctx))
	assert.True(t, mr.Exists("lock:term"))
}
