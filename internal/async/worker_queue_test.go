package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerQueueRunsEveryTask(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	q := NewWorkerQueue(HandlerFunc(func(_ context.Context, task Task) error {
		mu.Lock()
		defer mu.Unlock()
		seen[task.JobID] = true
		if task.JobID == "bad" {
			return errors.New("boom")
		}
		return nil
	}), nil, WithWorkers(3), WithQueueSize(2))

	for _, id := range []string{"a", "b", "bad", "c", "d"} {
		require.NoError(t, q.Enqueue(context.Background(), Task{JobID: id}))
	}
	q.Shutdown(context.Background())

	assert.Len(t, seen, 5)
	assert.ErrorIs(t, q.Enqueue(context.Background(), Task{JobID: "late"}), ErrQueueClosed)
}

func TestWorkerQueueEnqueueHonoursContextWhenFull(t *testing.T) {
	release := make(chan struct{})
	q := NewWorkerQueue(HandlerFunc(func(context.Context, Task) error {
		<-release
		return nil
	}), nil, WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.Enqueue(context.Background(), Task{JobID: "running"}))
	// wait until the worker has taken the first task so the buffer is empty again
	require.Eventually(t, func() bool { return len(q.ch) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Task{JobID: "buffered"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Enqueue(ctx, Task{JobID: "blocked"}), context.DeadlineExceeded)

	close(release)
	q.Shutdown(context.Background())
}

func TestWorkerQueueShutdownCancelsRunningTasks(t *testing.T) {
	var cancelled atomic.Bool
	started := make(chan struct{})
	q := NewWorkerQueue(HandlerFunc(func(ctx context.Context, _ Task) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}), nil, WithWorkers(1))

	require.NoError(t, q.Enqueue(context.Background(), Task{JobID: "slow"}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	q.Shutdown(ctx)
	assert.Eventually(t, cancelled.Load, time.Second, time.Millisecond)
}
