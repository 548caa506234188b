package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCheck_FixedWindow(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	l := New(NewMemoryStore()).WithClock(clock.Now)

	var limited []bool
	for i := 0; i < 4; i++ {
		r, err := l.Check(ctx, "k", 3, time.Second)
		require.NoError(t, err)
		limited = append(limited, r.Limited)
	}
	assert.Equal(t, []bool{false, false, false, true}, limited)

	clock.Advance(1001 * time.Millisecond)

	r, err := l.Check(ctx, "k", 3, time.Second)
	require.NoError(t, err)
	assert.False(t, r.Limited)
	assert.Equal(t, 2, r.Remaining)
}

func TestCheck_RealClock(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore())

	for i, want := range []bool{false, false, false, true} {
		r, err := l.Check(ctx, "k", 3, 100*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, want, r.Limited, "call %d", i+1)
	}

	time.Sleep(150 * time.Millisecond)

	r, err := l.Check(ctx, "k", 3, 100*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, r.Limited)
}

func TestCheck_RemainingAndReset(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	start := clock.Now()
	l := New(NewMemoryStore()).WithClock(clock.Now)

	tests := []struct {
		remaining int
		limited   bool
	}{
		{remaining: 1},
		{remaining: 0},
		{remaining: 0, limited: true},
		{remaining: 0, limited: true},
	}
	for i, tt := range tests {
		clock.Advance(10 * time.Millisecond)
		r, err := l.Check(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, tt.remaining, r.Remaining, "call %d", i+1)
		assert.Equal(t, tt.limited, r.Limited, "call %d", i+1)
		assert.Equal(t, start.Add(10*time.Millisecond+time.Minute), r.ResetAt, "window is anchored at the first hit")
	}
}

func TestCheck_ResetInstantStillCounts(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	l := New(NewMemoryStore()).WithClock(clock.Now)

	_, err := l.Check(ctx, "k", 1, time.Second)
	require.NoError(t, err)

	clock.Advance(time.Second)
	r, err := l.Check(ctx, "k", 1, time.Second)
	require.NoError(t, err)
	assert.True(t, r.Limited, "now == reset_at is still inside the window")

	clock.Advance(time.Nanosecond)
	r, err = l.Check(ctx, "k", 1, time.Second)
	require.NoError(t, err)
	assert.False(t, r.Limited)
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore())

	r, err := l.Check(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, r.Limited)

	r, err = l.Check(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, r.Limited)

	r, err = l.Check(ctx, "b", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, r.Limited)
}

func TestCheck_Concurrent(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore())

	const callers = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := l.Check(ctx, "k", 10, time.Minute)
			if err != nil {
				t.Error(err)
				return
			}
			if !r.Limited {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, allowed)
}

func TestSweep_RemovesExpiredEntries(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := NewMemoryStore()
	l := New(store).WithClock(clock.Now)

	_, err := l.Check(ctx, "old", 5, time.Second)
	require.NoError(t, err)
	clock.Advance(500 * time.Millisecond)
	_, err = l.Check(ctx, "young", 5, time.Second)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	clock.Advance(500*time.Millisecond + time.Millisecond)
	n, err := l.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Len())

	_, ok, _ := store.Get(ctx, "old")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "young")
	assert.True(t, ok)
}

func TestResult_RetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3*time.Second, Result{ResetAt: now.Add(2500 * time.Millisecond)}.RetryAfter(now))
	assert.Equal(t, 2*time.Second, Result{ResetAt: now.Add(2 * time.Second)}.RetryAfter(now))
	assert.Equal(t, time.Second, Result{ResetAt: now.Add(time.Nanosecond)}.RetryAfter(now))
	assert.Equal(t, time.Duration(0), Result{ResetAt: now.Add(-time.Second)}.RetryAfter(now))
}

type failingStore struct{ MemoryStore }

func (failingStore) Get(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errors.New("store down")
}

func TestCheck_StoreError(t *testing.T) {
	l := New(&failingStore{})
	_, err := l.Check(context.Background(), "k", 1, time.Second)
	assert.EqualError(t, err, "store down")
}

// gatedStore blocks Get for one key until released.
type gatedStore struct {
	*MemoryStore
	key     string
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	if key == s.key {
		close(s.entered)
		<-s.release
	}
	return s.MemoryStore.Get(ctx, key)
}

func TestCheck_SlowKeyDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{MemoryStore: NewMemoryStore(), key: "slow", entered: make(chan struct{}), release: make(chan struct{})}
	l := New(store)

	slowDone := make(chan error, 1)
	go func() {
		_, err := l.Check(ctx, "slow", 5, time.Minute)
		slowDone <- err
	}()
	<-store.entered

	fastDone := make(chan error, 1)
	go func() {
		_, err := l.Check(ctx, "fast", 5, time.Minute)
		fastDone <- err
	}()
	select {
	case err := <-fastDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("a check on another key waited for the slow one")
	}

	close(store.release)
	require.NoError(t, <-slowDone)

	l.locks.mu.Lock()
	assert.Empty(t, l.locks.held)
	l.locks.mu.Unlock()
}
