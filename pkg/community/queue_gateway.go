package community

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/memberhub/pkg/queue"
)

// QueueName is the queue community tasks are enqueued on.
const QueueName = "community"

// Enqueuer is the subset of queue.Enqueuer the gateway needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) error
}

// QueueGateway dispatches actions by enqueueing MembershipTask payloads.
type QueueGateway struct {
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewQueueGateway creates a queue-backed community gateway.
func NewQueueGateway(enqueuer Enqueuer, logger *slog.Logger) (*QueueGateway, error) {
	if enqueuer == nil {
		return nil, ErrEnqueuerNil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueGateway{enqueuer: enqueuer, logger: logger}, nil
}

// Dispatch enqueues the action for background delivery. It always returns
// nil: a lost side effect degrades the community experience but must not
// fail the billing event that triggered it.
func (g *QueueGateway) Dispatch(ctx context.Context, userID uuid.UUID, email string, action Action, opts ...DispatchOption) error {
	var cfg DispatchConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	task := MembershipTask{UserID: userID, Email: email, Action: action}
	enqueueOpts := []queue.EnqueueOption{queue.WithQueue(QueueName)}

	if action == ActionScheduleRemove {
		task.Action = ActionRemove
		if cfg.ExecuteAt != nil {
			enqueueOpts = append(enqueueOpts, queue.WithScheduledAt(*cfg.ExecuteAt))
		}
	}

	if err := g.enqueuer.Enqueue(ctx, task, enqueueOpts...); err != nil {
		g.logger.ErrorContext(ctx, "failed to enqueue community task",
			slog.String("user_id", userID.String()),
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
	}
	return nil
}
