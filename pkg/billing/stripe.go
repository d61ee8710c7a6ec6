package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeProvider implements Provider for Stripe.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	timeout       time.Duration
}

// NewStripeProvider creates a new Stripe billing provider.
func NewStripeProvider(cfg Config) (*StripeProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// Single retry-free attempt with a short timeout: a slow provider call
	// must not hold a request-scoped handler open.
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
	})

	api := &client.API{}
	api.Init(cfg.APIKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	return &StripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		timeout:       timeout,
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header and normalizes the event.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	out := &Event{
		ID:            event.ID,
		ProviderEvent: string(event.Type),
		OccurredAt:    time.Unix(event.Created, 0).UTC(),
		Payload:       payload,
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		out.Kind = KindCheckoutCompleted
		out.CheckoutSession = normalizeCheckoutSession(&sess)

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		if event.Type == "customer.subscription.updated" {
			out.Kind = KindSubscriptionUpdated
		} else {
			out.Kind = KindSubscriptionDeleted
		}
		out.Subscription = normalizeSubscription(&sub)

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		out.Kind = KindInvoicePaymentFailed
		out.Invoice = normalizeInvoice(&inv)

	default:
		out.Kind = KindUnknown
	}

	return out, nil
}

// CreateCheckoutSession creates a Stripe Checkout session in subscription mode.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	if params.PriceID == "" {
		return "", fmt.Errorf("%w: price ID is required", ErrProviderCall)
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	if params.Email != "" {
		sessionParams.CustomerEmail = stripe.String(params.Email)
	}
	// Metadata is set on both the session and the subscription it creates so
	// that later subscription.updated events carry the same reconciliation
	// keys as the checkout itself.
	if len(params.Metadata) > 0 {
		for k, v := range params.Metadata {
			sessionParams.AddMetadata(k, v)
		}
		sessionParams.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: params.Metadata,
		}
	}

	sess, err := p.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return "", errors.Join(ErrProviderCall, err)
	}
	if sess.URL == "" {
		return "", ErrNoCheckoutURL
	}
	return sess.URL, nil
}

// Subscription fetches the live subscription state from Stripe.
func (p *StripeProvider) Subscription(ctx context.Context, subscriptionID string) (*SubscriptionState, error) {
	sub, err := p.api.Subscriptions.Get(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, errors.Join(ErrProviderCall, err)
	}
	return normalizeSubscription(sub), nil
}

// ChangeSubscriptionPrice swaps the subscription's line item price in place.
func (p *StripeProvider) ChangeSubscriptionPrice(ctx context.Context, subscriptionID, priceID string, prorate bool) error {
	sub, err := p.api.Subscriptions.Get(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return errors.Join(ErrProviderCall, err)
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return fmt.Errorf("%w: subscription %s has no line items", ErrProviderCall, subscriptionID)
	}

	prorationBehavior := "none"
	if prorate {
		prorationBehavior = "create_prorations"
	}

	_, err = p.api.Subscriptions.Update(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(sub.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior: stripe.String(prorationBehavior),
	})
	if err != nil {
		return errors.Join(ErrProviderCall, err)
	}
	return nil
}

// CancelAtPeriodEnd flags the subscription for cancellation at period end.
func (p *StripeProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	_, err := p.api.Subscriptions.Update(subscriptionID, &stripe.SubscriptionParams{
		Params:            stripe.Params{Context: ctx},
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		return errors.Join(ErrProviderCall, err)
	}
	return nil
}

func normalizeCheckoutSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		Email:    sess.CustomerEmail,
		Metadata: sess.Metadata,
	}
	if sess.Customer != nil {
		out.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		out.SubscriptionID = sess.Subscription.ID
	}
	if out.Email == "" && sess.CustomerDetails != nil {
		out.Email = sess.CustomerDetails.Email
	}
	return out
}

func normalizeSubscription(sub *stripe.Subscription) *SubscriptionState {
	out := &SubscriptionState{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		out.CurrentPeriodEnd = &end
	}
	return out
}

func normalizeInvoice(inv *stripe.Invoice) *Invoice {
	out := &Invoice{Email: inv.CustomerEmail}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	return out
}
