package billing

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/memberhub/core"
	"github.com/dmitrymomot/memberhub/pkg/access"
	"github.com/dmitrymomot/memberhub/pkg/session"
	"github.com/dmitrymomot/memberhub/svc/content"
	"github.com/dmitrymomot/memberhub/svc/membership"
)

type accessResponse struct {
	Decision      string `json:"decision"`
	Allowed       bool   `json:"allowed"`
	RequiredLevel int    `json:"required_level,omitempty"`
	// RequiredTier names the cheapest tier that unlocks the item, so the
	// frontend can render an upgrade prompt without knowing the catalog.
	RequiredTier string `json:"required_tier,omitempty"`
	UnlockAt     string `json:"unlock_at,omitempty"`
}

// handleContentAccess evaluates gated-content access for the current
// viewer. Anonymous requests are evaluated too: the decision tells the
// frontend whether to show a signup or an upgrade prompt.
func (m *Module) handleContentAccess(w http.ResponseWriter, r *http.Request) {
	var user *membership.User
	if sess, ok := session.FromContext(r.Context()); ok {
		u, err := m.membership.GetUser(r.Context(), sess.UserID)
		if err != nil && !errors.Is(err, membership.ErrUserNotFound) {
			m.renderError(w, r, err)
			return
		}
		user = u
	}

	result, err := m.gate.Check(r.Context(), user, chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			core.Render(w, r, core.JSONError(core.ErrNotFound))
			return
		}
		m.renderError(w, r, err)
		return
	}

	resp := accessResponse{
		Decision:      string(result.Decision),
		Allowed:       result.Allowed(),
		RequiredLevel: result.RequiredLevel,
	}
	if result.Decision == access.DeniedInsufficientTier || result.Decision == access.DeniedAnonymous {
		if t, err := m.tiers.LowestAtOrAbove(result.RequiredLevel); err == nil {
			resp.RequiredTier = t.Name
		}
	}
	if !result.UnlockAt.IsZero() {
		resp.UnlockAt = result.UnlockAt.Format(time.RFC3339)
	}
	core.Render(w, r, core.JSON("ok", resp))
}
