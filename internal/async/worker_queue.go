package async

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WorkerQueue runs tasks on a fixed pool of goroutines.
type WorkerQueue struct {
	handler Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration // 0 = no per-task deadline

	ch   chan Task
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool

	baseCtx context.Context
	cancel  context.CancelFunc
}

type Option func(*WorkerQueue)

func WithWorkers(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.ch = make(chan Task, n)
		}
	}
}

func WithTaskTimeout(d time.Duration) Option {
	return func(q *WorkerQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewWorkerQueue(handler Handler, logger *slog.Logger, opts ...Option) *WorkerQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &WorkerQueue{
		handler: handler,
		logger:  logger,
		workers: 2,
		ch:      make(chan Task, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.baseCtx, q.cancel = context.WithCancel(context.Background())
	q.start()
	return q
}

func (q *WorkerQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)
				for task := range q.ch {
					q.run(workerID, task)
				}
				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *WorkerQueue) run(workerID int, task Task) {
	ctx := q.baseCtx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := q.handler.Handle(ctx, task); err != nil {
		q.logger.Error("task failed", "worker_id", workerID, "job_id", task.JobID, "error", err)
		return
	}
	q.logger.Info("task done",
		"worker_id", workerID,
		"job_id", task.JobID,
		"wait_ms", start.Sub(task.SubmittedAt).Milliseconds(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// Enqueue hands task to the pool, waiting for room when the buffer is full.
func (q *WorkerQueue) Enqueue(ctx context.Context, task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", task.JobID)
		return ErrQueueClosed
	}
	if task.SubmittedAt.IsZero() {
		task.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- task:
		q.logger.Debug("queued job", "job_id", task.JobID)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "job_id", task.JobID)
	select {
	case q.ch <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks and waits for queued ones to drain. If ctx ends first,
// running tasks are cancelled.
func (q *WorkerQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.cancel()
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.cancel()
		q.logger.Info("queue drained, shutdown complete")
	}
}
