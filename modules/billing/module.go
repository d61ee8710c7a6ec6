// Package billing exposes the payment HTTP surface: the provider webhook
// endpoint and the session-authenticated checkout and subscription
// management endpoints. Content access checks are mounted here too since
// they are the read side of the same membership state.
package billing

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/memberhub/core"
	"github.com/dmitrymomot/memberhub/pkg/billing"
	"github.com/dmitrymomot/memberhub/pkg/session"
	"github.com/dmitrymomot/memberhub/pkg/tier"
	"github.com/dmitrymomot/memberhub/svc/content"
	"github.com/dmitrymomot/memberhub/svc/membership"
)

// Module wires payment webhooks and subscription management into a router.
type Module struct {
	provider   billing.Provider
	membership *membership.Service
	gate       *content.Gate
	tiers      *tier.Registry
	sessions   *session.Manager
	logger     *slog.Logger
}

func NewModule(
	provider billing.Provider,
	membershipSvc *membership.Service,
	gate *content.Gate,
	tiers *tier.Registry,
	sessions *session.Manager,
	logger *slog.Logger,
) *Module {
	return &Module{
		provider:   provider,
		membership: membershipSvc,
		gate:       gate,
		tiers:      tiers,
		sessions:   sessions,
		logger:     logger,
	}
}

// Handler returns a standalone router with the module's routes.
func (m *Module) Handler() http.Handler {
	r := chi.NewRouter()
	m.Register(r)
	return r
}

// Register adds the module's routes to the given router.
func (m *Module) Register(r chi.Router) {
	r.Post("/webhooks/payments", m.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(m.sessions))
		r.Use(session.RequireAuth(rejectUnauthenticated))

		r.Post("/checkout/create", m.handleCreateCheckout)
		r.Post("/subscription/upgrade", m.handleUpgrade)
		r.Post("/subscription/downgrade", m.handleDowngrade)
		r.Post("/subscription/cancel", m.handleCancel)
	})

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(m.sessions))
		r.Get("/content/{slug}/access", m.handleContentAccess)
	})
}

func rejectUnauthenticated(w http.ResponseWriter, r *http.Request) {
	core.Render(w, r, core.JSONError(core.ErrUnauthorized))
}

// renderError maps service errors onto the API contract: validation
// failures are a 400 with the message, provider outages a 502, everything
// else a 500.
func (m *Module) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr core.ValidationError
	switch {
	case errors.As(err, &valErr):
		core.Render(w, r, core.JSONErrorWithCode(http.StatusBadRequest, "validation_error", valErr.Error()))
	case errors.Is(err, billing.ErrProviderCall):
		m.logger.ErrorContext(r.Context(), "billing provider call failed",
			slog.String("error", err.Error()))
		core.Render(w, r, core.JSONErrorWithCode(http.StatusBadGateway, "provider_error",
			"payment provider is unavailable, try again later"))
	default:
		m.logger.ErrorContext(r.Context(), "billing request failed",
			slog.String("error", err.Error()))
		core.Render(w, r, core.JSONError(err))
	}
}

// currentUser resolves the authenticated member from the request session.
func (m *Module) currentUser(r *http.Request) (*membership.User, error) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return nil, core.ErrUnauthorized
	}
	user, err := m.membership.GetUser(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, membership.ErrUserNotFound) {
			return nil, core.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}
