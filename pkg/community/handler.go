package community

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/memberhub/pkg/queue"
)

// NewMembershipTaskHandler builds the worker-side handler that delivers
// MembershipTask payloads to the community client. Delivery errors are
// returned so the queue retries them.
func NewMembershipTaskHandler(client Client) (queue.Handler, error) {
	if client == nil {
		return nil, ErrClientNil
	}
	return queue.NewTaskHandler(func(ctx context.Context, task MembershipTask) error {
		switch task.Action {
		case ActionInvite:
			return client.Invite(ctx, task.UserID, task.Email)
		case ActionReactivate:
			return client.Reactivate(ctx, task.UserID, task.Email)
		case ActionRemove:
			return client.Remove(ctx, task.UserID, task.Email)
		default:
			return fmt.Errorf("%w: %s", ErrUnknownAction, task.Action)
		}
	}), nil
}
