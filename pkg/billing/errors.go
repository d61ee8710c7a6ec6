package billing

import "errors"

var (
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrProviderCall     = errors.New("billing provider call failed")
	ErrNoCheckoutURL    = errors.New("no checkout URL returned from provider")
	ErrUnsupported      = errors.New("operation not supported by billing provider")

	ErrMissingAPIKey        = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret = errors.New("billing provider webhook secret is required")
	ErrUnknownProvider      = errors.New("unknown billing provider")
)
