// Package processing runs background tasks in-process when no Redis is
// configured. Goroutines and a buffered channel stand in for the asynq
// worker, including its retry budget.
package processing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/abhay-kr-0705/GEN-X/internal/queue"
)

// ErrQueueFull is returned by the Enqueue methods when the task was dropped.
var ErrQueueFull = errors.New("processing: task queue full")

// Handler executes tasks. *worker.Processor implements it.
type Handler interface {
	HandleDestroyAsset(ctx context.Context, payload queue.DestroyAssetPayload) error
	HandleConfirmation(ctx context.Context, payload queue.ConfirmationPayload) error
}

type job func(ctx context.Context) error

// Pool consumes tasks on a fixed number of goroutines.
type Pool struct {
	handler Handler
	log     *slog.Logger
	queue   chan namedJob
	workers int
	wg      sync.WaitGroup

	// backoff is the delay before retry n (starting at 1).
	backoff func(n int) time.Duration
}

type namedJob struct {
	name     string
	run      job
	retried  int
	maxRetry int
}

// New builds a Pool with queue capacity tied to worker count.
func New(handler Handler, workers int, log *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		handler: handler,
		log:     log.With("component", "pool"),
		// A buffered channel holds work without blocking request handlers.
		queue:   make(chan namedJob, workers*16),
		workers: workers,
		backoff: retryDelay,
	}
}

// retryDelay follows asynq's default curve (n^4 + 15 seconds) without the
// jitter.
func retryDelay(n int) time.Duration {
	return time.Duration(n*n*n*n+15) * time.Second
}

// Start launches worker goroutines. They exit when ctx is cancelled, and
// pending retries are abandoned.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// EnqueueAssetDestroy queues removal of an orphaned asset.
func (p *Pool) EnqueueAssetDestroy(ctx context.Context, payload queue.DestroyAssetPayload) error {
	return p.submit(namedJob{
		name:     queue.DestroyAssetTask,
		maxRetry: queue.DestroyAssetMaxRetry,
		run: func(ctx context.Context) error {
			return p.handler.HandleDestroyAsset(ctx, payload)
		},
	})
}

// EnqueueConfirmation queues a confirmation mail.
func (p *Pool) EnqueueConfirmation(ctx context.Context, payload queue.ConfirmationPayload) error {
	return p.submit(namedJob{
		name:     queue.EventConfirmationTask,
		maxRetry: queue.ConfirmationMaxRetry,
		run: func(ctx context.Context) error {
			return p.handler.HandleConfirmation(ctx, payload)
		},
	})
}

func (p *Pool) submit(j namedJob) error {
	select {
	case p.queue <- j:
		return nil
	default:
		// Buffer full: drop the work rather than block the caller.
		p.log.Warn("task queue full, dropping task", "task", j.name, "retried", j.retried)
		return ErrQueueFull
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.queue:
			if err := j.run(ctx); err != nil {
				p.retry(ctx, j, err)
			}
		}
	}
}

func (p *Pool) retry(ctx context.Context, j namedJob, err error) {
	if errors.Is(err, asynq.SkipRetry) || j.retried >= j.maxRetry {
		p.log.Error("task failed", "task", j.name, "attempts", j.retried+1, "error", err)
		return
	}
	j.retried++
	delay := p.backoff(j.retried)
	p.log.Warn("task failed, will retry", "task", j.name, "retry", j.retried, "in", delay, "error", err)
	time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		_ = p.submit(j)
	})
}
