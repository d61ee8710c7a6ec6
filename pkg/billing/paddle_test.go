package billing_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/memberhub/pkg/billing"
)

const paddleTestSecret = "pdl_ntfset_test_secret"

func newPaddleProvider(t *testing.T) *billing.PaddleProvider {
	t.Helper()
	p, err := billing.NewPaddleProvider(billing.Config{
		Provider:      "paddle",
		APIKey:        "pdl_test_key",
		WebhookSecret: paddleTestSecret,
		Environment:   "sandbox",
	})
	require.NoError(t, err)
	return p
}

// signPaddlePayload builds a valid Paddle-Signature header:
// ts=<unix>;h1=<hex hmac-sha256 of "<unix>:<body>">.
func signPaddlePayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d:%s", ts, payload)
	return fmt.Sprintf("ts=%d;h1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestPaddleProvider_ParseWebhook_Signature(t *testing.T) {
	t.Parallel()
	p := newPaddleProvider(t)
	payload := []byte(`{"event_id":"ntf_1","event_type":"subscription.updated","data":{"id":"sub_1"}}`)

	t.Run("valid", func(t *testing.T) {
		event, err := p.ParseWebhook(payload, signPaddlePayload(payload, paddleTestSecret))
		require.NoError(t, err)
		assert.Equal(t, "ntf_1", event.ID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := p.ParseWebhook(payload, signPaddlePayload(payload, "pdl_ntfset_other"))
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})
}

func TestPaddleProvider_ParseWebhook_Normalization(t *testing.T) {
	t.Parallel()
	p := newPaddleProvider(t)

	t.Run("transaction completed", func(t *testing.T) {
		payload := []byte(`{
			"event_id": "ntf_txn",
			"event_type": "transaction.completed",
			"occurred_at": "2025-06-01T10:00:00Z",
			"data": {
				"id": "txn_1",
				"customer_id": "ctm_1",
				"subscription_id": "sub_1",
				"custom_data": {"user_id": "u-1", "tier_slug": "main", "email": "jo@example.com"}
			}
		}`)

		event, err := p.ParseWebhook(payload, signPaddlePayload(payload, paddleTestSecret))
		require.NoError(t, err)

		assert.Equal(t, billing.KindCheckoutCompleted, event.Kind)
		require.NotNil(t, event.CheckoutSession)
		assert.Equal(t, "ctm_1", event.CheckoutSession.CustomerID)
		assert.Equal(t, "sub_1", event.CheckoutSession.SubscriptionID)
		assert.Equal(t, "jo@example.com", event.CheckoutSession.Email)
		assert.Equal(t, "main", event.CheckoutSession.Metadata["tier_slug"])
	})

	t.Run("subscription updated with scheduled cancel", func(t *testing.T) {
		payload := []byte(`{
			"event_id": "ntf_sub",
			"event_type": "subscription.updated",
			"data": {
				"id": "sub_2",
				"customer_id": "ctm_2",
				"status": "active",
				"items": [{"price": {"id": "price_premium_monthly"}}],
				"scheduled_change": {"action": "cancel"},
				"current_billing_period": {"ends_at": "2025-07-01T00:00:00Z"}
			}
		}`)

		event, err := p.ParseWebhook(payload, signPaddlePayload(payload, paddleTestSecret))
		require.NoError(t, err)

		assert.Equal(t, billing.KindSubscriptionUpdated, event.Kind)
		require.NotNil(t, event.Subscription)
		assert.Equal(t, "sub_2", event.Subscription.ID)
		assert.Equal(t, "active", event.Subscription.Status)
		assert.Equal(t, "price_premium_monthly", event.Subscription.PriceID)
		assert.True(t, event.Subscription.CancelAtPeriodEnd)
		require.NotNil(t, event.Subscription.CurrentPeriodEnd)
		assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), *event.Subscription.CurrentPeriodEnd)
	})

	t.Run("subscription canceled maps to deleted", func(t *testing.T) {
		payload := []byte(`{
			"event_id": "ntf_cancel",
			"event_type": "subscription.canceled",
			"data": {"id": "sub_3", "customer_id": "ctm_3", "status": "canceled"}
		}`)

		event, err := p.ParseWebhook(payload, signPaddlePayload(payload, paddleTestSecret))
		require.NoError(t, err)
		assert.Equal(t, billing.KindSubscriptionDeleted, event.Kind)
		require.NotNil(t, event.Subscription)
		assert.False(t, event.Subscription.CancelAtPeriodEnd)
	})

	t.Run("unknown event", func(t *testing.T) {
		payload := []byte(`{"event_id":"ntf_x","event_type":"address.created","data":{}}`)
		event, err := p.ParseWebhook(payload, signPaddlePayload(payload, paddleTestSecret))
		require.NoError(t, err)
		assert.Equal(t, billing.KindUnknown, event.Kind)
	})
}

func TestPaddleProvider_UnsupportedOperations(t *testing.T) {
	t.Parallel()
	p := newPaddleProvider(t)
	ctx := context.Background()

	_, err := p.Subscription(ctx, "sub_1")
	assert.ErrorIs(t, err, billing.ErrUnsupported)

	err = p.ChangeSubscriptionPrice(ctx, "sub_1", "price_x", true)
	assert.ErrorIs(t, err, billing.ErrUnsupported)

	err = p.CancelAtPeriodEnd(ctx, "sub_1")
	assert.ErrorIs(t, err, billing.ErrUnsupported)
}

func TestNewProvider_Selection(t *testing.T) {
	t.Parallel()

	cfg := billing.Config{APIKey: "key", WebhookSecret: "secret"}

	cfg.Provider = "stripe"
	p, err := billing.NewProvider(cfg)
	require.NoError(t, err)
	assert.IsType(t, &billing.StripeProvider{}, p)

	cfg.Provider = "paddle"
	p, err = billing.NewProvider(cfg)
	require.NoError(t, err)
	assert.IsType(t, &billing.PaddleProvider{}, p)

	cfg.Provider = "square"
	_, err = billing.NewProvider(cfg)
	assert.ErrorIs(t, err, billing.ErrUnknownProvider)
}
