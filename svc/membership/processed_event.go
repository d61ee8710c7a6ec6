package membership

import "time"

// ProcessedEvent records a handled webhook delivery. The unique EventID is
// the idempotency key: a second delivery of the same event hits the unique
// constraint and is acknowledged without re-running its handler.
type ProcessedEvent struct {
	EventID     string
	Kind        string
	Payload     []byte
	Failed      bool
	ProcessedAt time.Time
}
