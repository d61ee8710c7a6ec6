package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/memberhub/pkg/access"
	"github.com/dmitrymomot/memberhub/svc/membership"
)

// Gate answers "may this viewer see this content" for the HTTP layer.
type Gate struct {
	contents    ContentStore
	enrollments EnrollmentStore
	logger      *slog.Logger
	now         func() time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateClock replaces the time source, for drip tests.
func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		g.now = now
	}
}

func NewGate(contents ContentStore, enrollments EnrollmentStore, logger *slog.Logger, opts ...GateOption) *Gate {
	g := &Gate{
		contents:    contents,
		enrollments: enrollments,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check evaluates access to the content with the given slug. A nil user is
// an anonymous viewer. Unpublished content is indistinguishable from
// missing content.
func (g *Gate) Check(ctx context.Context, user *membership.User, slug string) (access.Result, error) {
	item, err := g.contents.GetBySlug(ctx, slug)
	if err != nil {
		return access.Result{}, err
	}
	if !item.Published {
		return access.Result{}, ErrContentNotFound
	}

	viewer := access.Anonymous()
	if user != nil {
		viewer = access.Viewer{
			Authenticated: true,
			Level:         user.TierLevel,
		}
		// Enrollment only matters for drip-scheduled items.
		if item.AvailableAfterDays != nil {
			enrollment, err := g.enrollments.GetByUserID(ctx, user.ID)
			switch {
			case err == nil:
				viewer.EnrolledAt = &enrollment.StartsAt
			case errors.Is(err, ErrEnrollmentNotFound):
				// Not enrolled: no drip lock applies.
			default:
				return access.Result{}, fmt.Errorf("failed to resolve enrollment: %w", err)
			}
		}
	}

	result := access.Evaluate(viewer, access.Item{
		RequiredLevel:      item.RequiredLevel,
		Preview:            item.Preview,
		AvailableAfterDays: item.AvailableAfterDays,
	}, g.now())

	g.logger.DebugContext(ctx, "content access evaluated",
		slog.String("slug", item.Slug),
		slog.String("decision", string(result.Decision)))
	return result, nil
}
