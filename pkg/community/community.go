package community

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action is a community membership side effect.
type Action string

const (
	ActionInvite         Action = "invite"
	ActionReactivate     Action = "reactivate"
	ActionRemove         Action = "remove"
	ActionScheduleRemove Action = "schedule_remove"
)

// Gateway dispatches a community action for a user. Implementations must
// never block the caller on delivery; dispatch failures are swallowed.
type Gateway interface {
	Dispatch(ctx context.Context, userID uuid.UUID, email string, action Action, opts ...DispatchOption) error
}

// DispatchConfig holds per-dispatch settings shared by Gateway
// implementations.
type DispatchConfig struct {
	// ExecuteAt defers delivery until the given time. Only meaningful for
	// ActionScheduleRemove; nil means deliver on the next worker poll.
	ExecuteAt *time.Time
}

// DispatchOption configures a single Dispatch call.
type DispatchOption func(*DispatchConfig)

// WithExecuteAt defers the action until t.
func WithExecuteAt(t time.Time) DispatchOption {
	return func(c *DispatchConfig) {
		c.ExecuteAt = &t
	}
}

// MembershipTask is the queue payload for a dispatched action.
// ActionScheduleRemove is translated to ActionRemove at enqueue time with a
// deferred schedule, so workers only ever see the three concrete actions.
type MembershipTask struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Action Action    `json:"action"`
}
