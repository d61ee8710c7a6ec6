package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/memberhub/pkg/billing"
	"github.com/dmitrymomot/memberhub/pkg/community"
	"github.com/dmitrymomot/memberhub/pkg/email"
	"github.com/dmitrymomot/memberhub/pkg/tier"
)

// Outcome tells the webhook endpoint how an event was handled. All three
// map to HTTP 200 so the provider stops retrying.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeIgnored          Outcome = "ignored"
)

// ProcessWebhookEvent applies a verified billing event to local state.
//
// The idempotency check runs before dispatch: an event ID seen before is
// acknowledged without re-running its handler, so provider retries and
// concurrent double deliveries cannot double-apply side effects. Unknown
// kinds are acknowledged but never recorded. A handler error records the
// event with Failed set and propagates, producing a 500 the provider
// retries against.
func (s *Service) ProcessWebhookEvent(ctx context.Context, event *billing.Event) (Outcome, error) {
	if event == nil || event.ID == "" {
		return "", ErrInvalidEvent
	}

	seen, err := s.events.Exists(ctx, event.ID)
	if err != nil {
		return "", fmt.Errorf("failed to check event %s: %w", event.ID, err)
	}
	if seen {
		s.logger.InfoContext(ctx, "duplicate webhook event acknowledged",
			slog.String("event_id", event.ID))
		return OutcomeAlreadyProcessed, nil
	}

	var handlerErr error
	switch event.Kind {
	case billing.KindCheckoutCompleted:
		handlerErr = s.handleCheckoutCompleted(ctx, event)
	case billing.KindSubscriptionUpdated:
		handlerErr = s.handleSubscriptionUpdated(ctx, event)
	case billing.KindSubscriptionDeleted:
		handlerErr = s.handleSubscriptionDeleted(ctx, event)
	case billing.KindInvoicePaymentFailed:
		handlerErr = s.handleInvoicePaymentFailed(ctx, event)
	default:
		s.logger.InfoContext(ctx, "ignoring unhandled webhook event",
			slog.String("event_id", event.ID),
			slog.String("provider_event", event.ProviderEvent))
		return OutcomeIgnored, nil
	}

	record := &ProcessedEvent{
		EventID:     event.ID,
		Kind:        string(event.Kind),
		Payload:     event.Payload,
		Failed:      handlerErr != nil,
		ProcessedAt: s.now(),
	}
	if err := s.events.Create(ctx, record); err != nil {
		if errors.Is(err, ErrEventAlreadyProcessed) {
			// Lost the race against a concurrent delivery of the same event.
			return OutcomeAlreadyProcessed, nil
		}
		if handlerErr != nil {
			return "", handlerErr
		}
		return "", fmt.Errorf("failed to record event %s: %w", event.ID, err)
	}
	if handlerErr != nil {
		return "", handlerErr
	}
	return OutcomeOK, nil
}

// handleCheckoutCompleted activates the purchased tier. This is the only
// handler that may create a user: a checkout completed for an unknown email
// means the member paid before registering.
func (s *Service) handleCheckoutCompleted(ctx context.Context, event *billing.Event) error {
	cs := event.CheckoutSession
	if cs == nil {
		return ErrInvalidEvent
	}

	user, err := s.resolveCheckoutUser(ctx, cs)
	if err != nil {
		return err
	}
	if user == nil {
		s.logger.WarnContext(ctx, "checkout completed for unresolvable user",
			slog.String("event_id", event.ID),
			slog.String("customer_id", cs.CustomerID))
		return nil
	}

	// Period end and price come from the live subscription; both are
	// best-effort enrichment, not correctness requirements.
	var state *billing.SubscriptionState
	if cs.SubscriptionID != "" {
		state, err = s.provider.Subscription(ctx, cs.SubscriptionID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to fetch subscription after checkout",
				slog.String("subscription_id", cs.SubscriptionID),
				slog.String("error", err.Error()))
			state = nil
		}
	}

	t, ok := s.resolveCheckoutTier(cs, state)
	if !ok {
		s.logger.WarnContext(ctx, "checkout completed for unresolvable tier",
			slog.String("event_id", event.ID),
			slog.Any("metadata", cs.Metadata))
		return nil
	}

	user.TierSlug = t.Slug
	user.TierLevel = t.Level
	user.CustomerID = cs.CustomerID
	user.SubscriptionID = cs.SubscriptionID
	user.PendingTierSlug = nil
	if state != nil && state.CurrentPeriodEnd != nil {
		user.BillingPeriodEnd = state.CurrentPeriodEnd
	}
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to apply checkout to user %s: %w", user.ID, err)
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("user_id", user.ID.String()),
		slog.String("tier", t.Slug))

	if t.HasCommunityAccess() {
		_ = s.gateway.Dispatch(ctx, user.ID, user.Email, community.ActionInvite)
	}
	return nil
}

// resolveCheckoutUser finds the paying user by checkout metadata, then by
// billing email, creating a free-tier user as the last resort. Returns
// (nil, nil) when the session carries nothing to resolve by.
func (s *Service) resolveCheckoutUser(ctx context.Context, cs *billing.CheckoutSession) (*User, error) {
	if raw, ok := cs.Metadata["user_id"]; ok && raw != "" {
		id, err := uuid.Parse(raw)
		if err == nil {
			user, err := s.users.GetByID(ctx, id)
			if err == nil {
				return user, nil
			}
			if !errors.Is(err, ErrUserNotFound) {
				return nil, err
			}
		}
	}

	if cs.Email == "" {
		return nil, nil
	}

	user, err := s.users.GetByEmail(ctx, cs.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	free := s.tiers.Lowest()
	now := s.now()
	user = &User{
		ID:        uuid.New(),
		Email:     cs.Email,
		TierSlug:  free.Slug,
		TierLevel: free.Level,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user for checkout: %w", err)
	}
	s.logger.InfoContext(ctx, "created user from checkout",
		slog.String("user_id", user.ID.String()),
		slog.String("email", user.Email))
	return user, nil
}

func (s *Service) resolveCheckoutTier(cs *billing.CheckoutSession, state *billing.SubscriptionState) (tier.Tier, bool) {
	if slug, ok := cs.Metadata["tier_slug"]; ok && slug != "" {
		if t, err := s.tiers.BySlug(slug); err == nil {
			return t, true
		}
	}
	if state != nil && state.PriceID != "" {
		if t, err := s.tiers.ByPriceID(state.PriceID); err == nil {
			return t, true
		}
	}
	return tier.Tier{}, false
}

// handleSubscriptionUpdated applies plan changes and scheduled
// cancellations. The community crossing check compares the levels before
// and after this one invocation, so replayed or out-of-order updates cannot
// dispatch more than one action each.
func (s *Service) handleSubscriptionUpdated(ctx context.Context, event *billing.Event) error {
	sub := event.Subscription
	if sub == nil {
		return ErrInvalidEvent
	}

	user, err := s.resolveSubscriptionUser(ctx, sub.ID, sub.CustomerID)
	if err != nil {
		return err
	}
	if user == nil {
		s.logger.WarnContext(ctx, "subscription update for unknown user",
			slog.String("event_id", event.ID),
			slog.String("subscription_id", sub.ID))
		return nil
	}

	user.BillingPeriodEnd = sub.CurrentPeriodEnd

	if sub.CancelAtPeriodEnd {
		// Tier stays untouched until the deletion event arrives; the member
		// keeps what they paid for through the period end.
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update user %s: %w", user.ID, err)
		}
		if user.TierLevel >= tier.CommunityMinLevel {
			opts := []community.DispatchOption{}
			if sub.CurrentPeriodEnd != nil {
				opts = append(opts, community.WithExecuteAt(*sub.CurrentPeriodEnd))
			}
			_ = s.gateway.Dispatch(ctx, user.ID, user.Email, community.ActionScheduleRemove, opts...)
		}
		return nil
	}

	beforeLevel := user.TierLevel
	if t, err := s.tiers.ByPriceID(sub.PriceID); err == nil && t.Slug != user.TierSlug && sub.Status == "active" {
		user.TierSlug = t.Slug
		user.TierLevel = t.Level
		user.PendingTierSlug = nil
	}
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}

	switch {
	case beforeLevel < tier.CommunityMinLevel && user.TierLevel >= tier.CommunityMinLevel:
		_ = s.gateway.Dispatch(ctx, user.ID, user.Email, community.ActionReactivate)
	case beforeLevel >= tier.CommunityMinLevel && user.TierLevel < tier.CommunityMinLevel:
		_ = s.gateway.Dispatch(ctx, user.ID, user.Email, community.ActionRemove)
	}
	return nil
}

// handleSubscriptionDeleted resets the member to the free tier.
func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *billing.Event) error {
	sub := event.Subscription
	if sub == nil {
		return ErrInvalidEvent
	}

	user, err := s.resolveSubscriptionUser(ctx, sub.ID, sub.CustomerID)
	if err != nil {
		return err
	}
	if user == nil {
		s.logger.WarnContext(ctx, "subscription deletion for unknown user",
			slog.String("event_id", event.ID),
			slog.String("subscription_id", sub.ID))
		return nil
	}

	hadCommunityAccess := user.TierLevel >= tier.CommunityMinLevel

	free := s.tiers.Lowest()
	user.TierSlug = free.Slug
	user.TierLevel = free.Level
	user.SubscriptionID = ""
	user.BillingPeriodEnd = nil
	user.PendingTierSlug = nil
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to reset user %s: %w", user.ID, err)
	}

	s.logger.InfoContext(ctx, "subscription deleted",
		slog.String("user_id", user.ID.String()))

	if hadCommunityAccess {
		_ = s.gateway.Dispatch(ctx, user.ID, user.Email, community.ActionRemove)
	}
	return nil
}

// handleInvoicePaymentFailed notifies the member. It never mutates the
// tier: the provider keeps retrying and, if collection ultimately fails,
// emits the deletion event that downgrades.
func (s *Service) handleInvoicePaymentFailed(ctx context.Context, event *billing.Event) error {
	inv := event.Invoice
	if inv == nil {
		return ErrInvalidEvent
	}

	user, err := s.users.GetByCustomerID(ctx, inv.CustomerID)
	if errors.Is(err, ErrUserNotFound) && inv.Email != "" {
		user, err = s.users.GetByEmail(ctx, inv.Email)
	}
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.WarnContext(ctx, "payment failure for unknown user",
				slog.String("event_id", event.ID),
				slog.String("customer_id", inv.CustomerID))
			return nil
		}
		return err
	}

	if s.mailer == nil {
		return nil
	}

	tierName := user.TierSlug
	if t, terr := s.tiers.BySlug(user.TierSlug); terr == nil {
		tierName = t.Name
	}
	params := email.PaymentFailedEmail(user.Email, tierName)
	if err := s.mailer.SendEmail(ctx, params); err != nil {
		s.logger.ErrorContext(ctx, "failed to send payment failure notification",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()))
	}
	return nil
}

func (s *Service) resolveSubscriptionUser(ctx context.Context, subscriptionID, customerID string) (*User, error) {
	user, err := s.users.GetBySubscriptionID(ctx, subscriptionID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user, err = s.users.GetByCustomerID(ctx, customerID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	return nil, nil
}
