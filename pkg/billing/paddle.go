package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleProvider implements Provider for Paddle.
//
// Paddle subscription changes (price swaps, cancellations) are performed by
// the customer through Paddle's hosted portal rather than via API calls, so
// ChangeSubscriptionPrice, CancelAtPeriodEnd, and Subscription return
// ErrUnsupported. Webhook events still drive the full lifecycle: the portal
// emits the same subscription.updated/canceled events this provider
// normalizes.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(cfg Config) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
	}, nil
}

// ParseWebhook verifies the Paddle-Signature header and normalizes the event.
func (p *PaddleProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	// The Paddle verifier operates on an HTTP request.
	req, err := http.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	return normalizePaddleEvent(payload)
}

// normalizePaddleEvent maps a verified Paddle envelope to the closed event
// set. Paddle event payloads are schemaless maps; all probing is contained
// here so handlers only ever see typed events.
func normalizePaddleEvent(payload []byte) (*Event, error) {
	var envelope struct {
		EventID    string         `json:"event_id"`
		EventType  string         `json:"event_type"`
		OccurredAt time.Time      `json:"occurred_at"`
		Data       map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}

	out := &Event{
		ID:            envelope.EventID,
		ProviderEvent: envelope.EventType,
		OccurredAt:    envelope.OccurredAt.UTC(),
		Payload:       payload,
	}

	switch envelope.EventType {
	case "transaction.completed":
		out.Kind = KindCheckoutCompleted
		out.CheckoutSession = paddleCheckoutSession(envelope.Data)
	case "subscription.updated":
		out.Kind = KindSubscriptionUpdated
		out.Subscription = paddleSubscriptionState(envelope.Data)
	case "subscription.canceled":
		out.Kind = KindSubscriptionDeleted
		out.Subscription = paddleSubscriptionState(envelope.Data)
	case "transaction.payment_failed":
		out.Kind = KindInvoicePaymentFailed
		out.Invoice = &Invoice{CustomerID: stringField(envelope.Data, "customer_id")}
	default:
		out.Kind = KindUnknown
	}

	return out, nil
}

// CreateCheckoutSession creates a Paddle transaction with a hosted checkout.
func (p *PaddleProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	if params.PriceID == "" {
		return "", fmt.Errorf("%w: price ID is required", ErrProviderCall)
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  params.PriceID,
		Quantity: 1,
	})

	customData := paddle.CustomData{}
	for k, v := range params.Metadata {
		customData[k] = v
	}
	if params.Email != "" {
		customData["email"] = params.Email
	}

	transactionReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomData: customData,
	}
	if params.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(params.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return "", errors.Join(ErrProviderCall, err)
	}
	if transaction.Checkout == nil || transaction.Checkout.URL == nil || *transaction.Checkout.URL == "" {
		return "", ErrNoCheckoutURL
	}
	return *transaction.Checkout.URL, nil
}

// Subscription is not supported; Paddle webhook payloads already carry the
// full subscription state so no live lookup is needed.
func (p *PaddleProvider) Subscription(ctx context.Context, subscriptionID string) (*SubscriptionState, error) {
	return nil, ErrUnsupported
}

// ChangeSubscriptionPrice is not supported; plan changes go through Paddle's
// hosted customer portal.
func (p *PaddleProvider) ChangeSubscriptionPrice(ctx context.Context, subscriptionID, priceID string, prorate bool) error {
	return ErrUnsupported
}

// CancelAtPeriodEnd is not supported; cancellation goes through Paddle's
// hosted customer portal.
func (p *PaddleProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	return ErrUnsupported
}

func paddleCheckoutSession(data map[string]any) *CheckoutSession {
	out := &CheckoutSession{
		CustomerID:     stringField(data, "customer_id"),
		SubscriptionID: stringField(data, "subscription_id"),
		Metadata:       map[string]string{},
	}
	if customData, ok := data["custom_data"].(map[string]any); ok {
		for k, v := range customData {
			if s, ok := v.(string); ok {
				out.Metadata[k] = s
			}
		}
	}
	out.Email = out.Metadata["email"]
	return out
}

func paddleSubscriptionState(data map[string]any) *SubscriptionState {
	out := &SubscriptionState{
		ID:         stringField(data, "id"),
		CustomerID: stringField(data, "customer_id"),
		Status:     stringField(data, "status"),
	}

	if items, ok := data["items"].([]any); ok && len(items) > 0 {
		if item, ok := items[0].(map[string]any); ok {
			if price, ok := item["price"].(map[string]any); ok {
				out.PriceID = stringField(price, "id")
			}
		}
	}

	// Paddle signals cancel-at-period-end via a scheduled change.
	if change, ok := data["scheduled_change"].(map[string]any); ok {
		out.CancelAtPeriodEnd = stringField(change, "action") == "cancel"
	}

	if period, ok := data["current_billing_period"].(map[string]any); ok {
		if endsAt, err := time.Parse(time.RFC3339, stringField(period, "ends_at")); err == nil {
			endsAt = endsAt.UTC()
			out.CurrentPeriodEnd = &endsAt
		}
	}

	return out
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
