package membership

import (
	"context"

	"github.com/google/uuid"
)

// UserStore persists users. Lookups return ErrUserNotFound when no row
// matches.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByCustomerID(ctx context.Context, customerID string) (*User, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
}

// EventStore is the append-only processed-event ledger. Create returns
// ErrEventAlreadyProcessed on a duplicate event ID.
type EventStore interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	Create(ctx context.Context, event *ProcessedEvent) error
}
