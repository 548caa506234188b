// Package ratelimit implements a fixed-window request counter keyed by an
// arbitrary string (usually route class plus client IP).
//
// A key moves from fresh to counting on its first hit. While now is at or
// before the window reset time, hits increment the counter and a hit that
// pushes it past max is limited, as is every later hit in the same window.
// The first hit after the reset time starts a new window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/logging"
)

// Entry is the persisted state of one key.
type Entry struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

// Store holds entries. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry) error
	Delete(ctx context.Context, key string) error
}

// Sweeper is implemented by stores that cannot expire entries on their own.
type Sweeper interface {
	// Sweep removes every entry whose window ended before now and returns
	// how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Result describes the outcome of one Check.
type Result struct {
	Limited   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left until the window rolls over, rounded up to
// whole seconds.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return (d + time.Second - 1).Truncate(time.Second)
}

type Limiter struct {
	store Store
	now   func() time.Time
	// locks makes the read-modify-write of one key atomic within the
	// process. Separate processes sharing a Redis store may still interleave.
	locks keyLocks
}

func New(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now, locks: keyLocks{held: make(map[string]*keyLock)}}
}

// WithClock replaces the time source.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Check records a hit for key and reports whether it exceeds max hits per
// window.
func (l *Limiter) Check(ctx context.Context, key string, max int, window time.Duration) (Result, error) {
	unlock := l.locks.lock(key)
	defer unlock()

	now := l.now()

	e, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}

	if !ok || now.After(e.ResetAt) {
		e = Entry{Count: 1, ResetAt: now.Add(window)}
		if err := l.store.Set(ctx, key, e); err != nil {
			return Result{}, err
		}
		if max < 1 {
			return Result{Limited: true, ResetAt: e.ResetAt}, nil
		}
		return Result{Remaining: max - 1, ResetAt: e.ResetAt}, nil
	}

	e.Count++
	if err := l.store.Set(ctx, key, e); err != nil {
		return Result{}, err
	}

	if e.Count > max {
		return Result{Limited: true, Remaining: 0, ResetAt: e.ResetAt}, nil
	}
	return Result{Limited: false, Remaining: max - e.Count, ResetAt: e.ResetAt}, nil
}

// Sweep drops expired entries if the store needs it. Stores that expire
// entries themselves report zero.
func (l *Limiter) Sweep(ctx context.Context) (int, error) {
	s, ok := l.store.(Sweeper)
	if !ok {
		return 0, nil
	}
	return s.Sweep(ctx, l.now())
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *Limiter) RunSweeper(ctx context.Context, interval time.Duration, log logging.Logger) {
	if _, ok := l.store.(Sweeper); !ok || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := l.Sweep(ctx)
			if err != nil {
				log.Warn(ctx, "rate limit sweep failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debug(ctx, "rate limit sweep", "removed", n)
			}
		}
	}
}

// keyLocks hands out one mutex per key and forgets it once nobody holds or
// waits for it.
type keyLocks struct {
	mu   sync.Mutex
	held map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyLocks) lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.held[key]
	if !ok {
		l = &keyLock{}
		k.held[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.held, key)
		}
		k.mu.Unlock()
	}
}
