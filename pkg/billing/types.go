package billing

import "time"

// EventKind is the normalized billing event type. The set is closed: lifecycle
// handlers dispatch on these variants, never on provider-specific strings.
type EventKind string

const (
	KindCheckoutCompleted    EventKind = "checkout_completed"
	KindSubscriptionUpdated  EventKind = "subscription_updated"
	KindSubscriptionDeleted  EventKind = "subscription_deleted"
	KindInvoicePaymentFailed EventKind = "invoice_payment_failed"

	// KindUnknown marks provider events the platform intentionally ignores.
	KindUnknown EventKind = "unknown"
)

// Event is a validated, statically-shaped billing event. Exactly one of
// CheckoutSession, Subscription, or Invoice is non-nil, matching Kind.
// It is constructed by a Provider immediately after signature verification
// so handlers never probe raw payloads.
type Event struct {
	ID            string
	Kind          EventKind
	ProviderEvent string // original provider event name, for logging
	OccurredAt    time.Time
	Payload       []byte // raw envelope, persisted for audit

	CheckoutSession *CheckoutSession
	Subscription    *SubscriptionState
	Invoice         *Invoice
}

// CheckoutSession is the normalized payload of a completed checkout.
type CheckoutSession struct {
	CustomerID     string
	SubscriptionID string
	Email          string
	Metadata       map[string]string // reconciliation metadata: user_id, tier_slug
}

// SubscriptionState is the normalized payload of a subscription event and the
// result of a live subscription lookup.
type SubscriptionState struct {
	ID                string
	CustomerID        string
	Status            string // provider status, "active" enables tier changes
	PriceID           string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  *time.Time
}

// Invoice is the normalized payload of a failed invoice payment.
type Invoice struct {
	CustomerID string
	Email      string
}

// CheckoutParams contains data needed to create a hosted checkout session.
type CheckoutParams struct {
	PriceID    string
	Email      string            // pre-fill billing email if known
	Metadata   map[string]string // carried back on webhook events
	SuccessURL string
	CancelURL  string
}
