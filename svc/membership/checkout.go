package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/memberhub/core"
	"github.com/dmitrymomot/memberhub/pkg/billing"
	"github.com/dmitrymomot/memberhub/pkg/tier"
)

// resolvePrice validates a tier/period pair and returns the provider price
// ID. Failures come back as core.ValidationError for the HTTP layer.
func (s *Service) resolvePrice(tierSlug string, period tier.BillingPeriod) (tier.Tier, string, error) {
	valErr := core.NewValidationError()

	if !period.Valid() {
		valErr.Add("billing_period", "must be monthly or annual")
	}

	t, err := s.tiers.BySlug(tierSlug)
	if err != nil {
		valErr.Add("tier_slug", "unknown tier")
		return tier.Tier{}, "", valErr
	}
	if !valErr.IsEmpty() {
		return tier.Tier{}, "", valErr
	}

	priceID := t.PriceID(period)
	if priceID == "" {
		valErr.Add("tier_slug", fmt.Sprintf("tier %q is not purchasable %s", tierSlug, period))
		return tier.Tier{}, "", valErr
	}
	return t, priceID, nil
}

// StartCheckout creates a hosted checkout session for the tier and returns
// its redirect URL. The user row is not touched: activation happens when
// the provider confirms the checkout by webhook.
func (s *Service) StartCheckout(ctx context.Context, user *User, tierSlug string, period tier.BillingPeriod) (string, error) {
	t, priceID, err := s.resolvePrice(tierSlug, period)
	if err != nil {
		return "", err
	}

	url, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutParams{
		PriceID: priceID,
		Email:   user.Email,
		Metadata: map[string]string{
			"user_id":   user.ID.String(),
			"tier_slug": t.Slug,
		},
		SuccessURL: s.checkoutURLs.Success,
		CancelURL:  s.checkoutURLs.Cancel,
	})
	if err != nil {
		return "", errors.Join(billing.ErrProviderCall, err)
	}

	s.logger.InfoContext(ctx, "checkout session created",
		slog.String("user_id", user.ID.String()),
		slog.String("tier", t.Slug))
	return url, nil
}

// Upgrade moves the subscription to a higher tier with prorated billing.
// No local state changes: the provider's subscription-updated webhook
// applies the new tier.
func (s *Service) Upgrade(ctx context.Context, user *User, tierSlug string, period tier.BillingPeriod) error {
	if !user.HasSubscription() {
		valErr := core.NewValidationError()
		valErr.Add("subscription", "no active subscription to upgrade")
		return valErr
	}

	t, priceID, err := s.resolvePrice(tierSlug, period)
	if err != nil {
		return err
	}

	if err := s.provider.ChangeSubscriptionPrice(ctx, user.SubscriptionID, priceID, true); err != nil {
		return errors.Join(billing.ErrProviderCall, err)
	}

	s.logger.InfoContext(ctx, "upgrade requested",
		slog.String("user_id", user.ID.String()),
		slog.String("tier", t.Slug))
	return nil
}

// Downgrade moves the subscription to a lower tier without proration, so
// the change takes effect at the next renewal. PendingTierSlug is the one
// optimistic local write: it lets the UI show the upcoming tier before the
// provider's webhook confirms it.
func (s *Service) Downgrade(ctx context.Context, user *User, tierSlug string, period tier.BillingPeriod) error {
	if !user.HasSubscription() {
		valErr := core.NewValidationError()
		valErr.Add("subscription", "no active subscription to downgrade")
		return valErr
	}

	t, priceID, err := s.resolvePrice(tierSlug, period)
	if err != nil {
		return err
	}

	if err := s.provider.ChangeSubscriptionPrice(ctx, user.SubscriptionID, priceID, false); err != nil {
		return errors.Join(billing.ErrProviderCall, err)
	}

	user.PendingTierSlug = &t.Slug
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to record pending tier for user %s: %w", user.ID, err)
	}

	s.logger.InfoContext(ctx, "downgrade requested",
		slog.String("user_id", user.ID.String()),
		slog.String("tier", t.Slug))
	return nil
}

// Cancel schedules the subscription for cancellation at the period end.
// Local state is untouched; the provider's webhooks drive the eventual
// downgrade to free.
func (s *Service) Cancel(ctx context.Context, user *User) error {
	if !user.HasSubscription() {
		valErr := core.NewValidationError()
		valErr.Add("subscription", "no active subscription to cancel")
		return valErr
	}

	if err := s.provider.CancelAtPeriodEnd(ctx, user.SubscriptionID); err != nil {
		return errors.Join(billing.ErrProviderCall, err)
	}

	s.logger.InfoContext(ctx, "cancellation requested",
		slog.String("user_id", user.ID.String()))
	return nil
}
