package billing

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/memberhub/core"
	"github.com/dmitrymomot/memberhub/pkg/billing"
)

// maxWebhookBody caps the webhook payload read. Provider events are a few
// kilobytes; anything near the cap is not a legitimate event.
const maxWebhookBody = 1 << 20

// signatureHeaders lists the header names providers sign webhooks with.
var signatureHeaders = []string{"Stripe-Signature", "Paddle-Signature"}

// handleWebhook verifies, parses, and applies a provider webhook.
//
// All processed outcomes answer 200 so the provider stops retrying;
// a handler failure answers 500 so it retries against the recorded
// (and therefore now idempotent) event.
func (m *Module) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		core.Render(w, r, core.JSONErrorWithCode(http.StatusBadRequest, "invalid_payload", "failed to read request body"))
		return
	}

	event, err := m.provider.ParseWebhook(body, webhookSignature(r))
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidSignature):
			m.logger.WarnContext(r.Context(), "webhook signature verification failed")
			core.Render(w, r, core.JSONErrorWithCode(http.StatusBadRequest, "invalid_signature", "webhook signature verification failed"))
		case errors.Is(err, billing.ErrInvalidPayload):
			core.Render(w, r, core.JSONErrorWithCode(http.StatusBadRequest, "invalid_payload", "malformed webhook payload"))
		default:
			m.logger.ErrorContext(r.Context(), "webhook parsing failed",
				slog.String("error", err.Error()))
			core.Render(w, r, core.JSONError(err))
		}
		return
	}

	outcome, err := m.membership.ProcessWebhookEvent(r.Context(), event)
	if err != nil {
		m.logger.ErrorContext(r.Context(), "webhook processing failed",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()))
		core.Render(w, r, core.JSONErrorWithCode(http.StatusInternalServerError, "processing_failed", "event processing failed"))
		return
	}

	core.Render(w, r, core.JSONStatus(string(outcome)))
}

func webhookSignature(r *http.Request) string {
	for _, h := range signatureHeaders {
		if v := r.Header.Get(h); v != "" {
			return v
		}
	}
	return ""
}
