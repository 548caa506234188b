package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "rl:"), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	reset := time.Now().Add(time.Minute).UTC().Truncate(time.Millisecond)
	require.NoError(t, s.Set(ctx, "k", Entry{Count: 2, ResetAt: reset}))
	assert.True(t, mr.Exists("rl:k"))
	assert.Greater(t, mr.TTL("rl:k"), time.Minute-time.Second)

	e, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, e.Count)
	assert.True(t, reset.Equal(e.ResetAt))

	require.NoError(t, s.Delete(ctx, "k"))
	assert.False(t, mr.Exists("rl:k"))
}

func TestRedisStore_ExpiresWithWindow(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	require.NoError(t, s.Set(ctx, "k", Entry{Count: 1, ResetAt: time.Now().Add(time.Second)}))
	mr.FastForward(3 * time.Second)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLimiter_WithRedisStore(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t)
	l := New(s)

	var limited []bool
	for i := 0; i < 4; i++ {
		r, err := l.Check(ctx, "login:10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		limited = append(limited, r.Limited)
	}
	assert.Equal(t, []bool{false, false, false, true}, limited)

	n, err := l.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)
	mr.Close()

	_, _, err := s.Get(ctx, "k")
	assert.Error(t, err)
}
