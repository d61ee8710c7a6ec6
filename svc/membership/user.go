package membership

import (
	"time"

	"github.com/google/uuid"
)

// User is a member of the platform. The tier fields mirror the billing
// provider's view of the subscription and are mutated only by webhook
// handlers, with one exception: PendingTierSlug is written optimistically
// when a downgrade is requested, so the UI can show the upcoming tier
// before the provider confirms it.
type User struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string
	TierSlug         string
	TierLevel        int
	PendingTierSlug  *string
	CustomerID       string
	SubscriptionID   string
	BillingPeriodEnd *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasSubscription reports whether the user has an active provider
// subscription to operate on.
func (u *User) HasSubscription() bool {
	return u != nil && u.SubscriptionID != ""
}
