// Package account exposes registration, login, logout, and the current
// member profile over JSON with cookie sessions.
package account

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/memberhub/core"
	"github.com/dmitrymomot/memberhub/pkg/session"
	"github.com/dmitrymomot/memberhub/svc/membership"
)

// Module wires member authentication into a router.
type Module struct {
	membership *membership.Service
	sessions   *session.Manager
	logger     *slog.Logger
}

func NewModule(membershipSvc *membership.Service, sessions *session.Manager, logger *slog.Logger) *Module {
	return &Module{
		membership: membershipSvc,
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
	r.Post("/auth/register", m.handleRegister)
	r.Post("/auth/login", m.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(m.sessions))
		r.Use(session.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			core.Render(w, r, core.JSONError(core.ErrUnauthorized))
		}))

		r.Post("/auth/logout", m.handleLogout)
		r.Get("/me", m.handleMe)
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// profileResponse is the member's own view of their subscription state.
type profileResponse struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	TierSlug         string  `json:"tier_slug"`
	TierLevel        int     `json:"tier_level"`
	PendingTierSlug  *string `json:"pending_tier_slug,omitempty"`
	BillingPeriodEnd string  `json:"billing_period_end,omitempty"`
}

func profileOf(user *membership.User) profileResponse {
	resp := profileResponse{
		ID:              user.ID.String(),
		Email:           user.Email,
		TierSlug:        user.TierSlug,
		TierLevel:       user.TierLevel,
		PendingTierSlug: user.PendingTierSlug,
	}
	if user.BillingPeriodEnd != nil {
		resp.BillingPeriodEnd = user.BillingPeriodEnd.Format(time.RFC3339)
	}
	return resp
}

func (m *Module) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	user, err := m.membership.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		m.renderAuthError(w, r, err)
		return
	}

	if _, err := m.sessions.Start(r.Context(), w, user.ID); err != nil {
		m.logger.ErrorContext(r.Context(), "failed to start session",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()))
		core.Render(w, r, core.JSONError(err))
		return
	}
	core.Render(w, r, core.JSONWithCode(http.StatusCreated, "ok", profileOf(user)))
}

func (m *Module) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	user, err := m.membership.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, membership.ErrInvalidCredentials) {
			core.Render(w, r, core.JSONErrorWithCode(http.StatusUnauthorized, "invalid_credentials", err.Error()))
			return
		}
		core.Render(w, r, core.JSONError(err))
		return
	}

	if _, err := m.sessions.Start(r.Context(), w, user.ID); err != nil {
		core.Render(w, r, core.JSONError(err))
		return
	}
	core.Render(w, r, core.JSON("ok", profileOf(user)))
}

func (m *Module) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := m.sessions.End(r.Context(), w, r); err != nil {
		m.logger.WarnContext(r.Context(), "failed to end session",
			slog.String("error", err.Error()))
	}
	core.Render(w, r, core.JSONStatus("ok"))
}

func (m *Module) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	user, err := m.membership.GetUser(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, membership.ErrUserNotFound) {
			core.Render(w, r, core.JSONError(core.ErrUnauthorized))
			return
		}
		core.Render(w, r, core.JSONError(err))
		return
	}
	core.Render(w, r, core.JSON("ok", profileOf(user)))
}

func (m *Module) renderAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr core.ValidationError
	switch {
	case errors.As(err, &valErr):
		core.Render(w, r, core.JSONErrorWithCode(http.StatusBadRequest, "validation_error", valErr.Error()))
	case errors.Is(err, membership.ErrUserExists):
		core.Render(w, r, core.JSONErrorWithCode(http.StatusConflict, "email_taken", "an account with this email already exists"))
	default:
		m.logger.ErrorContext(r.Context(), "registration failed",
			slog.String("error", err.Error()))
		core.Render(w, r, core.JSONError(err))
	}
}
