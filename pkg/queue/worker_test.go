package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/memberhub/pkg/queue"
)

type workerTestPayload struct {
	Value string `json:"value"`
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestNewWorker(t *testing.T) {
	t.Parallel()

	t.Run("nil repository error", func(t *testing.T) {
		t.Parallel()

		worker, err := queue.NewWorker(nil)
		assert.ErrorIs(t, err, queue.ErrRepositoryNil)
		assert.Nil(t, worker)
	})

	t.Run("start without handlers fails", func(t *testing.T) {
		t.Parallel()

		worker, err := queue.NewWorker(queue.NewMemoryStorage())
		require.NoError(t, err)
		assert.ErrorIs(t, worker.Start(context.Background()), queue.ErrNoHandlers)
	})
}

func TestWorker_ProcessesTask(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	enqueuer, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	var processed atomic.Int32
	var got workerTestPayload
	handler := queue.NewTaskHandler(func(ctx context.Context, payload workerTestPayload) error {
		got = payload
		processed.Add(1)
		return nil
	})

	worker, err := queue.NewWorker(storage, queue.WithPollInterval(20*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(handler)

	require.NoError(t, enqueuer.Enqueue(context.Background(), workerTestPayload{Value: "ok"}))
	require.NoError(t, worker.Start(context.Background()))
	defer worker.Stop() //nolint:errcheck

	waitFor(t, 2*time.Second, func() bool { return processed.Load() == 1 })
	assert.Equal(t, "ok", got.Value)
}

func TestWorker_RetriesFailedTask(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	enqueuer, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	var attempts atomic.Int32
	handler := queue.NewTaskHandler(func(ctx context.Context, payload workerTestPayload) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient failure")
		}
		return nil
	})

	worker, err := queue.NewWorker(storage, queue.WithPollInterval(20*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(handler)

	require.NoError(t, enqueuer.Enqueue(context.Background(), workerTestPayload{Value: "retry"}))
	require.NoError(t, worker.Start(context.Background()))
	defer worker.Stop() //nolint:errcheck

	waitFor(t, 3*time.Second, func() bool { return attempts.Load() >= 2 })
}

func TestWorker_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	enqueuer, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	var calls atomic.Int32
	handler := queue.NewTaskHandler(func(ctx context.Context, payload workerTestPayload) error {
		calls.Add(1)
		panic("boom")
	})

	worker, err := queue.NewWorker(storage, queue.WithPollInterval(20*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(handler)

	require.NoError(t, enqueuer.Enqueue(context.Background(), workerTestPayload{}, queue.WithMaxRetries(0)))
	require.NoError(t, worker.Start(context.Background()))
	defer worker.Stop() //nolint:errcheck

	// The worker survives the panic and keeps polling.
	waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 1 })
	require.NoError(t, enqueuer.Enqueue(context.Background(), workerTestPayload{}, queue.WithMaxRetries(0)))
	waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 2 })
}

func TestWorker_UnregisteredTaskFails(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	enqueuer, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	handler := queue.NewTaskHandler(func(ctx context.Context, payload workerTestPayload) error {
		return nil
	})

	worker, err := queue.NewWorker(storage, queue.WithPollInterval(20*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(handler)

	require.NoError(t, enqueuer.Enqueue(context.Background(), struct {
		Unknown string `json:"unknown"`
	}{}, queue.WithTaskName("no.such.handler"), queue.WithMaxRetries(0)))
	require.NoError(t, worker.Start(context.Background()))
	defer worker.Stop() //nolint:errcheck

	// Give the worker a few polls to claim and fail the task, then confirm
	// enqueueing a known task still works.
	require.NoError(t, enqueuer.Enqueue(context.Background(), workerTestPayload{Value: "after"}))
	time.Sleep(200 * time.Millisecond)
	assert.NoError(t, worker.Stop())
}

func TestWorker_ScheduledTaskNotRunEarly(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	enqueuer, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	var processed atomic.Int32
	handler := queue.NewTaskHandler(func(ctx context.Context, payload workerTestPayload) error {
		processed.Add(1)
		return nil
	})

	worker, err := queue.NewWorker(storage, queue.WithPollInterval(20*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(handler)

	require.NoError(t, enqueuer.Enqueue(context.Background(), workerTestPayload{},
		queue.WithScheduledAt(time.Now().Add(time.Hour))))
	require.NoError(t, worker.Start(context.Background()))
	defer worker.Stop() //nolint:errcheck

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), processed.Load())
}
