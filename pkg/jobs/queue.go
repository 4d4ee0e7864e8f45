package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job carries one unit of deferred work, such as an export render. Payload
// is whatever the owning service enqueued; Attempt counts retries so far.
type Job struct {
	ID       string
	Type     string
	Payload  any
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A non-nil error schedules a retry.
type Handler func(context.Context, Job) error

// QueueConfig tunes the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

type queueState int

const (
	queueIdle queueState = iota
	queueRunning
	queueStopped
)

// Queue runs jobs off the chat hot path on a fixed pool of goroutines.
// Document renders take seconds; the conversation reply must not wait for
// them.
type Queue struct {
	name       string
	handle     Handler
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	pending chan Job
	workers int

	mu     sync.Mutex
	state  queueState
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue builds a queue around the handler. Zero config fields get
// serviceable defaults.
func NewQueue(name string, handle Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handle:     handle,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		pending:    make(chan Job, cfg.BufferSize),
		workers:    cfg.Workers,
	}
}

// Start launches the workers. Calling Start on a running or stopped queue
// is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != queueIdle {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run(i + 1)
	}
	q.state = queueRunning
	q.logger.Sugar().Infow("job queue started", "queue", q.name, "workers", q.workers)
}

// Stop rejects further enqueues, cancels the workers and waits for them to
// exit. Jobs still sitting in the buffer are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.state != queueRunning {
		q.mu.Unlock()
		return
	}
	q.state = queueStopped
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("job queue stopped", "queue", q.name)
}

// Enqueue hands a job to the pool. It fails when the queue has not been
// started or has been stopped; the stopped check happens before the channel
// send so a buffered slot cannot mask a shutdown.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	state := q.state
	ctx := q.ctx
	q.mu.Unlock()

	switch state {
	case queueIdle:
		return fmt.Errorf("queue %s not started", q.name)
	case queueStopped:
		return fmt.Errorf("queue %s stopped", q.name)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("queue %s stopped: %w", q.name, err)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.pending <- job:
		return nil
	}
}

func (q *Queue) run(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.pending:
			if err := q.handle(q.ctx, job); err != nil {
				q.retry(job, err)
			}
		}
	}
}

// retry re-enqueues a failed job after the delay, up to the retry cap. The
// wait happens off the worker goroutine so the pool keeps draining.
func (q *Queue) retry(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Sugar().Errorw("job exhausted retries",
			"queue", q.name, "job_id", job.ID, "type", job.Type, "error", err)
		return
	}
	q.logger.Sugar().Warnw("job failed, will retry",
		"queue", q.name, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)

	go func(j Job) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if qerr := q.Enqueue(j); qerr != nil {
				q.logger.Sugar().Errorw("failed to requeue job",
					"queue", q.name, "job_id", j.ID, "error", qerr)
			}
		}
	}(job)
}
