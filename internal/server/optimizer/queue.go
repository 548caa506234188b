package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/eventphotos/internal/logging"
	"github.com/dmitrijs2005/eventphotos/internal/server/metrics"
)

// Handler optimizes one photo. It must be idempotent: a photo may be handed
// over more than once (for example after a restart).
type Handler func(ctx context.Context, photoID string) error

// QueueOptions tunes a Queue.
type QueueOptions struct {
	Size          int
	Workers       int
	RatePerSecond float64
}

// Queue hands photo ids to a fixed set of workers. It lives in memory only.
// Photos still lacking a display URL are found again from the database by
// the periodic recovery, which gives at-least-once processing.
type Queue struct {
	jobs    chan string
	workers int
	limiter *rate.Limiter
	handle  Handler
	log     logging.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	queued map[string]struct{}
}

func NewQueue(o QueueOptions, handle Handler, log logging.Logger, m *metrics.Metrics) *Queue {
	if o.Size <= 0 {
		o.Size = 1
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	limit := rate.Inf
	if o.RatePerSecond > 0 {
		limit = rate.Limit(o.RatePerSecond)
	}
	return &Queue{
		jobs:    make(chan string, o.Size),
		workers: o.Workers,
		limiter: rate.NewLimiter(limit, o.Workers),
		handle:  handle,
		log:     log.With("module", "optimizer"),
		metrics: m,
		queued:  make(map[string]struct{}),
	}
}

// Enqueue schedules photoID without blocking. It returns false when the
// photo is already waiting or the queue is full.
func (q *Queue) Enqueue(photoID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.queued[photoID]; ok {
		return false
	}
	select {
	case q.jobs <- photoID:
		q.queued[photoID] = struct{}{}
		q.gauge(len(q.queued))
		return true
	default:
		return false
	}
}

// EnqueueWait schedules photoID, waiting for free space until ctx is done.
// It returns false without an error when the photo is already waiting.
func (q *Queue) EnqueueWait(ctx context.Context, photoID string) (bool, error) {
	q.mu.Lock()
	if _, ok := q.queued[photoID]; ok {
		q.mu.Unlock()
		return false, nil
	}
	q.queued[photoID] = struct{}{}
	n := len(q.queued)
	q.mu.Unlock()
	q.gauge(n)

	select {
	case q.jobs <- photoID:
		return true, nil
	case <-ctx.Done():
		q.release(photoID)
		return false, ctx.Err()
	}
}

// Len reports how many photos are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queued)
}

// Run starts the workers and blocks until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	q.log.Info(ctx, "starting optimizer", "workers", q.workers)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			return q.work(ctx)
		})
	}
	err := g.Wait()
	q.log.Info(context.Background(), "optimizer stopped")
	return err
}

func (q *Queue) work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case id := <-q.jobs:
			if err := q.limiter.Wait(ctx); err != nil {
				q.release(id)
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
					return nil
				}
				return err
			}
			q.process(ctx, id)
		}
	}
}

func (q *Queue) process(ctx context.Context, id string) {
	defer q.release(id)

	err := q.safeHandle(ctx, id)
	result := "ok"
	if err != nil {
		result = "error"
		q.log.Warn(ctx, "photo optimization failed", "photo_id", id, "error", err)
	} else {
		q.log.Debug(ctx, "photo optimized", "photo_id", id)
	}
	if q.metrics != nil {
		q.metrics.OptimizerJobs.WithLabelValues(result).Inc()
	}
}

func (q *Queue) safeHandle(ctx context.Context, id string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return q.handle(ctx, id)
}

func (q *Queue) release(id string) {
	q.mu.Lock()
	delete(q.queued, id)
	n := len(q.queued)
	q.mu.Unlock()
	q.gauge(n)
}

func (q *Queue) gauge(n int) {
	if q.metrics != nil {
		q.metrics.OptimizerQueued.Set(float64(n))
	}
}
