package billing

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/memberhub/core"
	"github.com/dmitrymomot/memberhub/pkg/tier"
)

type changeTierRequest struct {
	TierSlug      string `json:"tier_slug"`
	BillingPeriod string `json:"billing_period"`
}

func decodeChangeTier(r *http.Request) (changeTierRequest, error) {
	var req changeTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, core.ErrBadRequest
	}
	return req, nil
}

func (m *Module) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	user, err := m.currentUser(r)
	if err != nil {
		m.renderError(w, r, err)
		return
	}
	req, err := decodeChangeTier(r)
	if err != nil {
		m.renderError(w, r, err)
		return
	}

	url, err := m.membership.StartCheckout(r.Context(), user, req.TierSlug, tier.BillingPeriod(req.BillingPeriod))
	if err != nil {
		m.renderError(w, r, err)
		return
	}
	core.Render(w, r, core.JSON("ok", map[string]string{"checkout_url": url}))
}

func (m *Module) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	user, err := m.currentUser(r)
	if err != nil {
		m.renderError(w, r, err)
		return
	}
	req, err := decodeChangeTier(r)
	if err != nil {
		m.renderError(w, r, err)
		return
	}

	if err := m.membership.Upgrade(r.Context(), user, req.TierSlug, tier.BillingPeriod(req.BillingPeriod)); err != nil {
		m.renderError(w, r, err)
		return
	}
	core.Render(w, r, core.JSONStatus("ok"))
}

func (m *Module) handleDowngrade(w http.ResponseWriter, r *http.Request) {
	user, err := m.currentUser(r)
	if err != nil {
		m.renderError(w, r, err)
		return
	}
	req, err := decodeChangeTier(r)
	if err != nil {
		m.renderError(w, r, err)
		return
	}

	if err := m.membership.Downgrade(r.Context(), user, req.TierSlug, tier.BillingPeriod(req.BillingPeriod)); err != nil {
		m.renderError(w, r, err)
		return
	}
	core.Render(w, r, core.JSONStatus("ok"))
}

func (m *Module) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, err := m.currentUser(r)
	if err != nil {
		m.renderError(w, r, err)
		return
	}

	if err := m.membership.Cancel(r.Context(), user); err != nil {
		m.renderError(w, r, err)
		return
	}
	core.Render(w, r, core.JSONStatus("ok"))
}
