package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// sleepFn is swapped out by tests to avoid real backoff waits.
var sleepFn = sleepContext

// sleepContext waits out the backoff, cut short by shutdown. Returns false
// when the context won.
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// PushJob is the unit of work handed to the push delivery worker. Tokens, if
// set, bypasses the registry lookup for UserID.
type PushJob struct {
	UserID   string
	Tokens   []string
	Title    string
	Body     string
	Data     map[string]string
	Badge    *int
	Sound    string
	ImageURL string
}

// PushQueue is an in-process at-least-once job queue with a bounded worker
// pool. A job that keeps failing is retried with exponential backoff up to
// maxAttempts and then logged as a permanent failure; the enqueuing caller
// never sees delivery errors.
type PushQueue struct {
	jobs        chan PushJob
	handler     func(ctx context.Context, job PushJob) error
	workers     int
	maxAttempts int
	baseBackoff time.Duration
	log         *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewPushQueue(handler func(ctx context.Context, job PushJob) error, workers, queueSize, maxAttempts int, baseBackoff time.Duration, log *zap.Logger) *PushQueue {
	if workers < 1 {
		workers = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &PushQueue{
		jobs:        make(chan PushJob, queueSize),
		handler:     handler,
		workers:     workers,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		log:         log,
	}
}

// Enqueue is fire-and-forget. When the buffer is full the job is dropped and
// logged rather than blocking the request path.
func (q *PushQueue) Enqueue(job PushJob) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		q.log.Warn("push queue full, dropping job", zap.String("user_id", job.UserID))
		return false
	}
}

func (q *PushQueue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.worker(ctx)
		}
	})
}

// Stop closes intake and waits for in-flight jobs to finish.
func (q *PushQueue) Stop() {
	q.stopOnce.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
}

func (q *PushQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for job := range q.jobs {
		q.process(ctx, job)
	}
}

func (q *PushQueue) process(ctx context.Context, job PushJob) {
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		err := q.handler(ctx, job)
		if err == nil {
			return
		}
		if attempt == q.maxAttempts {
			q.log.Error("push job failed permanently",
				zap.String("user_id", job.UserID),
				zap.Int("attempts", attempt),
				zap.Error(err))
			return
		}
		q.log.Warn("push job failed, retrying",
			zap.String("user_id", job.UserID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if !sleepFn(ctx, q.backoff(attempt)) {
			q.log.Warn("push job abandoned during backoff",
				zap.String("user_id", job.UserID),
				zap.Int("attempt", attempt))
			return
		}
	}
}

func (q *PushQueue) backoff(attempt int) time.Duration {
	d := q.baseBackoff << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(q.baseBackoff)/2 + 1))
	return d + jitter
}
