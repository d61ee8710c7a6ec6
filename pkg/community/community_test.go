package community_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/memberhub/pkg/community"
	"github.com/dmitrymomot/memberhub/pkg/queue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingEnqueuer struct{ err error }

func (f *failingEnqueuer) Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) error {
	return f.err
}

func claimCommunityTask(t *testing.T, storage *queue.MemoryStorage) *queue.Task {
	t.Helper()
	task, err := storage.ClaimTask(context.Background(), uuid.New(), []string{community.QueueName}, time.Minute)
	require.NoError(t, err)
	return task
}

func TestQueueGateway_Dispatch(t *testing.T) {
	t.Parallel()

	t.Run("invite enqueued immediately", func(t *testing.T) {
		t.Parallel()

		storage := queue.NewMemoryStorage()
		enqueuer, err := queue.NewEnqueuer(storage)
		require.NoError(t, err)
		gateway, err := community.NewQueueGateway(enqueuer, discardLogger())
		require.NoError(t, err)

		userID := uuid.New()
		require.NoError(t, gateway.Dispatch(context.Background(), userID, "a@example.com", community.ActionInvite))

		task := claimCommunityTask(t, storage)
		assert.Equal(t, community.QueueName, task.Queue)
		assert.WithinDuration(t, time.Now(), task.ScheduledAt, time.Second)
	})

	t.Run("schedule_remove becomes deferred remove", func(t *testing.T) {
		t.Parallel()

		storage := queue.NewMemoryStorage()
		enqueuer, err := queue.NewEnqueuer(storage)
		require.NoError(t, err)
		gateway, err := community.NewQueueGateway(enqueuer, discardLogger())
		require.NoError(t, err)

		periodEnd := time.Now().Add(30 * 24 * time.Hour)
		require.NoError(t, gateway.Dispatch(context.Background(), uuid.New(), "a@example.com",
			community.ActionScheduleRemove, community.WithExecuteAt(periodEnd)))

		// The deferred task must not be claimable before its schedule.
		_, err = storage.ClaimTask(context.Background(), uuid.New(), []string{community.QueueName}, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)
	})

	t.Run("schedule_remove without period end runs immediately", func(t *testing.T) {
		t.Parallel()

		storage := queue.NewMemoryStorage()
		enqueuer, err := queue.NewEnqueuer(storage)
		require.NoError(t, err)
		gateway, err := community.NewQueueGateway(enqueuer, discardLogger())
		require.NoError(t, err)

		require.NoError(t, gateway.Dispatch(context.Background(), uuid.New(), "a@example.com",
			community.ActionScheduleRemove))

		task := claimCommunityTask(t, storage)
		assert.WithinDuration(t, time.Now(), task.ScheduledAt, time.Second)
	})

	t.Run("enqueue failure swallowed", func(t *testing.T) {
		t.Parallel()

		gateway, err := community.NewQueueGateway(&failingEnqueuer{err: errors.New("queue down")}, discardLogger())
		require.NoError(t, err)

		assert.NoError(t, gateway.Dispatch(context.Background(), uuid.New(), "a@example.com", community.ActionRemove))
	})

	t.Run("nil enqueuer error", func(t *testing.T) {
		t.Parallel()

		gateway, err := community.NewQueueGateway(nil, discardLogger())
		assert.ErrorIs(t, err, community.ErrEnqueuerNil)
		assert.Nil(t, gateway)
	})
}

type recordingClient struct {
	invited, reactivated, removed []string
}

func (c *recordingClient) Invite(ctx context.Context, userID uuid.UUID, email string) error {
	c.invited = append(c.invited, email)
	return nil
}

func (c *recordingClient) Reactivate(ctx context.Context, userID uuid.UUID, email string) error {
	c.reactivated = append(c.reactivated, email)
	return nil
}

func (c *recordingClient) Remove(ctx context.Context, userID uuid.UUID, email string) error {
	c.removed = append(c.removed, email)
	return nil
}

func TestMembershipTaskHandler(t *testing.T) {
	t.Parallel()

	t.Run("routes actions to client", func(t *testing.T) {
		t.Parallel()

		client := &recordingClient{}
		handler, err := community.NewMembershipTaskHandler(client)
		require.NoError(t, err)

		storage := queue.NewMemoryStorage()
		enqueuer, err := queue.NewEnqueuer(storage)
		require.NoError(t, err)
		gateway, err := community.NewQueueGateway(enqueuer, discardLogger())
		require.NoError(t, err)

		ctx := context.Background()
		require.NoError(t, gateway.Dispatch(ctx, uuid.New(), "invite@example.com", community.ActionInvite))
		require.NoError(t, gateway.Dispatch(ctx, uuid.New(), "back@example.com", community.ActionReactivate))
		require.NoError(t, gateway.Dispatch(ctx, uuid.New(), "gone@example.com", community.ActionRemove))

		for range 3 {
			task := claimCommunityTask(t, storage)
			require.NoError(t, handler.Handle(ctx, task.Payload))
		}

		assert.Equal(t, []string{"invite@example.com"}, client.invited)
		assert.Equal(t, []string{"back@example.com"}, client.reactivated)
		assert.Equal(t, []string{"gone@example.com"}, client.removed)
	})

	t.Run("unknown action error", func(t *testing.T) {
		t.Parallel()

		handler, err := community.NewMembershipTaskHandler(&recordingClient{})
		require.NoError(t, err)

		err = handler.Handle(context.Background(), []byte(`{"action":"promote"}`))
		assert.ErrorIs(t, err, community.ErrUnknownAction)
	})

	t.Run("nil client error", func(t *testing.T) {
		t.Parallel()

		handler, err := community.NewMembershipTaskHandler(nil)
		assert.ErrorIs(t, err, community.ErrClientNil)
		assert.Nil(t, handler)
	})
}
