package billing

import (
	"context"
	"strings"
	"time"
)

// Provider defines the minimal interface for payment provider integrations.
// The abstraction keeps lifecycle handlers vendor-neutral: providers handle
// signature verification and payload normalization internally, so every
// handler receives a validated Event rather than raw provider JSON.
type Provider interface {
	// ParseWebhook verifies the signature over the raw body and returns the
	// normalized event. ErrInvalidSignature on a bad or missing signature,
	// ErrInvalidPayload on malformed JSON. Nothing else inspects raw payloads.
	ParseWebhook(payload []byte, signature string) (*Event, error)

	// CreateCheckoutSession creates a hosted checkout session and returns its
	// redirect URL. Metadata is carried back on the confirming webhook.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)

	// Subscription fetches the live subscription state from the provider.
	Subscription(ctx context.Context, subscriptionID string) (*SubscriptionState, error)

	// ChangeSubscriptionPrice replaces the subscription's single line item
	// price. Proration is enabled for upgrades and disabled for downgrades.
	ChangeSubscriptionPrice(ctx context.Context, subscriptionID, priceID string, prorate bool) error

	// CancelAtPeriodEnd schedules the subscription for cancellation at the
	// end of the current billing period. Local state is driven by the
	// resulting webhook, not by this call.
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
}

// Config selects and configures the billing provider.
type Config struct {
	Provider      string        `env:"BILLING_PROVIDER" envDefault:"stripe"`
	APIKey        string        `env:"BILLING_API_KEY,required"`
	WebhookSecret string        `env:"BILLING_WEBHOOK_SECRET,required"`
	Environment   string        `env:"BILLING_ENVIRONMENT" envDefault:"production"`
	CallTimeout   time.Duration `env:"BILLING_CALL_TIMEOUT" envDefault:"10s"`
}

// NewProvider constructs the Provider named by the configuration.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "stripe", "":
		return NewStripeProvider(cfg)
	case "paddle":
		return NewPaddleProvider(cfg)
	default:
		return nil, ErrUnknownProvider
	}
}
