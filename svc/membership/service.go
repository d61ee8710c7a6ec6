package membership

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/memberhub/pkg/billing"
	"github.com/dmitrymomot/memberhub/pkg/community"
	"github.com/dmitrymomot/memberhub/pkg/email"
	"github.com/dmitrymomot/memberhub/pkg/tier"
)

// Service owns the subscription lifecycle: it applies webhook events to
// users, dispatches community side effects on tier threshold crossings, and
// drives user-initiated checkout and plan changes through the billing
// provider.
type Service struct {
	tiers        *tier.Registry
	provider     billing.Provider
	users        UserStore
	events       EventStore
	gateway      community.Gateway
	mailer       email.EmailSender
	logger       *slog.Logger
	now          func() time.Time
	checkoutURLs CheckoutURLs
}

// CheckoutURLs are the redirect targets for hosted checkout sessions.
type CheckoutURLs struct {
	Success string `env:"CHECKOUT_SUCCESS_URL" envDefault:"/account?checkout=success"`
	Cancel  string `env:"CHECKOUT_CANCEL_URL" envDefault:"/pricing"`
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMailer sets the sender for member notifications. Without one,
// payment-failed notifications are skipped.
func WithMailer(mailer email.EmailSender) ServiceOption {
	return func(s *Service) {
		s.mailer = mailer
	}
}

// WithCheckoutURLs sets the hosted checkout redirect targets.
func WithCheckoutURLs(urls CheckoutURLs) ServiceOption {
	return func(s *Service) {
		s.checkoutURLs = urls
	}
}

// NewService creates the membership lifecycle service.
func NewService(
	tiers *tier.Registry,
	provider billing.Provider,
	users UserStore,
	events EventStore,
	gateway community.Gateway,
	logger *slog.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		tiers:    tiers,
		provider: provider,
		users:    users,
		events:   events,
		gateway:  gateway,
		logger:   logger,
		now:      time.Now,
		checkoutURLs: CheckoutURLs{
			Success: "/account?checkout=success",
			Cancel:  "/pricing",
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
