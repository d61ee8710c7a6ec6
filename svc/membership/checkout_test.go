package membership_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/memberhub/core"
	"github.com/dmitrymomot/memberhub/pkg/billing"
	"github.com/dmitrymomot/memberhub/pkg/tier"
	"github.com/dmitrymomot/memberhub/svc/membership"
)

func TestStartCheckout(t *testing.T) {
	t.Parallel()

	t.Run("creates session without touching the user", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, membership.WithCheckoutURLs(membership.CheckoutURLs{
			Success: "https://app.example.com/welcome",
			Cancel:  "https://app.example.com/pricing",
		}))
		user := f.seedUser(t, membership.User{Email: "m@example.com"})

		url, err := f.svc.StartCheckout(context.Background(), user, "main", tier.PeriodMonthly)
		require.NoError(t, err)
		assert.NotEmpty(t, url)

		got, err := f.users.GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "free", got.TierSlug)
		assert.Empty(t, got.SubscriptionID)
	})

	t.Run("rejects unknown tier", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := f.seedUser(t, membership.User{Email: "m@example.com"})

		_, err := f.svc.StartCheckout(context.Background(), user, "enterprise", tier.PeriodMonthly)
		var valErr core.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.True(t, valErr.Has("tier_slug"))
	})

	t.Run("rejects invalid billing period", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := f.seedUser(t, membership.User{Email: "m@example.com"})

		_, err := f.svc.StartCheckout(context.Background(), user, "main", tier.BillingPeriod("weekly"))
		var valErr core.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.True(t, valErr.Has("billing_period"))
	})

	t.Run("rejects tier without a price", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := f.seedUser(t, membership.User{Email: "m@example.com"})

		// Free has no price IDs; premium has no annual price.
		_, err := f.svc.StartCheckout(context.Background(), user, "free", tier.PeriodMonthly)
		var valErr core.ValidationError
		require.ErrorAs(t, err, &valErr)

		_, err = f.svc.StartCheckout(context.Background(), user, "premium", tier.PeriodAnnual)
		require.ErrorAs(t, err, &valErr)
	})

	t.Run("wraps provider failure", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.provider.checkoutErr = errors.New("stripe down")
		user := f.seedUser(t, membership.User{Email: "m@example.com"})

		_, err := f.svc.StartCheckout(context.Background(), user, "main", tier.PeriodMonthly)
		require.ErrorIs(t, err, billing.ErrProviderCall)
	})
}

func TestUpgrade(t *testing.T) {
	t.Parallel()

	t.Run("changes price with proration", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := f.seedUser(t, membership.User{
			Email: "m@example.com", TierSlug: "basic", TierLevel: 10,
			SubscriptionID: "sub_1",
		})

		require.NoError(t, f.svc.Upgrade(context.Background(), user, "premium", tier.PeriodMonthly))

		require.Len(t, f.provider.changeCalls, 1)
		call := f.provider.changeCalls[0]
		assert.Equal(t, "sub_1", call.SubscriptionID)
		assert.Equal(t, "price_premium_m", call.PriceID)
		assert.True(t, call.Prorate)

		// Tier changes only when the webhook confirms.
		got, err := f.users.GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "basic", got.TierSlug)
	})

	t.Run("requires a subscription", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := f.seedUser(t, membership.User{Email: "m@example.com"})

		err := f.svc.Upgrade(context.Background(), user, "premium", tier.PeriodMonthly)
		var valErr core.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.True(t, valErr.Has("subscription"))
		assert.Empty(t, f.provider.changeCalls)
	})
}

func TestDowngrade(t *testing.T) {
	t.Parallel()

	t.Run("changes price without proration and records pending tier", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := f.seedUser(t, membership.User{
			Email: "m@example.com", TierSlug: "main", TierLevel: 20,
			SubscriptionID: "sub_1",
		})

		require.NoError(t, f.svc.Downgrade(context.Background(), user, "basic", tier.PeriodMonthly))

		require.Len(t, f.provider.changeCalls, 1)
		assert.False(t, f.provider.changeCalls[0].Prorate)

		got, err := f.users.GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "main", got.TierSlug)
		require.NotNil(t, got.PendingTierSlug)
		assert.Equal(t, "basic", *got.PendingTierSlug)
	})

	t.Run("provider failure leaves no pending tier", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.provider.changeErr = errors.New("stripe down")
		user := f.seedUser(t, membership.User{
			Email: "m@example.com", TierSlug: "main", TierLevel: 20,
			SubscriptionID: "sub_1",
		})

		err := f.svc.Downgrade(context.Background(), user, "basic", tier.PeriodMonthly)
		require.ErrorIs(t, err, billing.ErrProviderCall)

		got, err := f.users.GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Nil(t, got.PendingTierSlug)
	})
}

func TestCancel(t *testing.T) {
	t.Parallel()

	t.Run("schedules cancellation at period end", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := f.seedUser(t, membership.User{
			Email: "m@example.com", TierSlug: "main", TierLevel: 20,
			SubscriptionID: "sub_1",
		})

		require.NoError(t, f.svc.Cancel(context.Background(), user))
		assert.Equal(t, []string{"sub_1"}, f.provider.cancelCalls)

		got, err := f.users.GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "main", got.TierSlug)
	})

	t.Run("requires a subscription", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := f.seedUser(t, membership.User{Email: "m@example.com"})

		err := f.svc.Cancel(context.Background(), user)
		var valErr core.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Empty(t, f.provider.cancelCalls)
	})
}
