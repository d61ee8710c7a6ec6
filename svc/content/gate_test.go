package content_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/memberhub/pkg/access"
	"github.com/dmitrymomot/memberhub/svc/content"
	"github.com/dmitrymomot/memberhub/svc/membership"
)

func intPtr(v int) *int { return &v }

type gateFixture struct {
	gate        *content.Gate
	contents    *content.MemoryContentStore
	enrollments *content.MemoryEnrollmentStore
}

func newGateFixture(t *testing.T, now time.Time) *gateFixture {
	t.Helper()
	f := &gateFixture{
		contents:    content.NewMemoryContentStore(),
		enrollments: content.NewMemoryEnrollmentStore(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.gate = content.NewGate(f.contents, f.enrollments, logger,
		content.WithGateClock(func() time.Time { return now }))
	return f
}

func (f *gateFixture) seed(t *testing.T, item content.Content) content.Content {
	t.Helper()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	require.NoError(t, f.contents.Create(context.Background(), &item))
	return item
}

func TestGateCheck(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("unknown slug", func(t *testing.T) {
		t.Parallel()

		f := newGateFixture(t, now)
		_, err := f.gate.Check(context.Background(), nil, "missing")
		require.ErrorIs(t, err, content.ErrContentNotFound)
	})

	t.Run("unpublished reads as not found", func(t *testing.T) {
		t.Parallel()

		f := newGateFixture(t, now)
		f.seed(t, content.Content{Slug: "draft", Kind: content.KindArticle, Published: false})

		_, err := f.gate.Check(context.Background(), nil, "draft")
		require.ErrorIs(t, err, content.ErrContentNotFound)
	})

	t.Run("anonymous denied on gated content", func(t *testing.T) {
		t.Parallel()

		f := newGateFixture(t, now)
		f.seed(t, content.Content{Slug: "lesson", Kind: content.KindUnit, RequiredLevel: 20, Published: true})

		result, err := f.gate.Check(context.Background(), nil, "lesson")
		require.NoError(t, err)
		assert.Equal(t, access.DeniedAnonymous, result.Decision)
		assert.Equal(t, 20, result.RequiredLevel)
	})

	t.Run("anonymous granted on public content", func(t *testing.T) {
		t.Parallel()

		f := newGateFixture(t, now)
		f.seed(t, content.Content{Slug: "welcome", Kind: content.KindArticle, RequiredLevel: 0, Published: true})

		result, err := f.gate.Check(context.Background(), nil, "welcome")
		require.NoError(t, err)
		assert.True(t, result.Allowed())
	})

	t.Run("tier level decides", func(t *testing.T) {
		t.Parallel()

		f := newGateFixture(t, now)
		f.seed(t, content.Content{Slug: "lesson", Kind: content.KindUnit, RequiredLevel: 20, Published: true})

		basic := &membership.User{ID: uuid.New(), TierLevel: 10}
		result, err := f.gate.Check(context.Background(), basic, "lesson")
		require.NoError(t, err)
		assert.Equal(t, access.DeniedInsufficientTier, result.Decision)
		assert.Equal(t, 20, result.RequiredLevel)

		main := &membership.User{ID: uuid.New(), TierLevel: 20}
		result, err = f.gate.Check(context.Background(), main, "lesson")
		require.NoError(t, err)
		assert.True(t, result.Allowed())
	})

	t.Run("preview bypasses tier", func(t *testing.T) {
		t.Parallel()

		f := newGateFixture(t, now)
		f.seed(t, content.Content{Slug: "teaser", Kind: content.KindRecording, RequiredLevel: 30, Preview: true, Published: true})

		result, err := f.gate.Check(context.Background(), nil, "teaser")
		require.NoError(t, err)
		assert.True(t, result.Allowed())
	})

	t.Run("drip locks enrolled viewer before unlock date", func(t *testing.T) {
		t.Parallel()

		f := newGateFixture(t, now)
		f.seed(t, content.Content{
			Slug: "week-2", Kind: content.KindUnit, RequiredLevel: 20,
			AvailableAfterDays: intPtr(14), Published: true,
		})

		user := &membership.User{ID: uuid.New(), TierLevel: 30}
		startsAt := now.AddDate(0, 0, -7)
		require.NoError(t, f.enrollments.Create(context.Background(), &content.Enrollment{
			UserID: user.ID, CohortID: uuid.New(), StartsAt: startsAt,
		}))

		result, err := f.gate.Check(context.Background(), user, "week-2")
		require.NoError(t, err)
		assert.Equal(t, access.DeniedNotYetAvailable, result.Decision)
		assert.True(t, result.UnlockAt.Equal(startsAt.AddDate(0, 0, 14)))
	})

	t.Run("drip unlocks after enough days", func(t *testing.T) {
		t.Parallel()

		f := newGateFixture(t, now)
		f.seed(t, content.Content{
			Slug: "week-2", Kind: content.KindUnit, RequiredLevel: 20,
			AvailableAfterDays: intPtr(14), Published: true,
		})

		user := &membership.User{ID: uuid.New(), TierLevel: 20}
		require.NoError(t, f.enrollments.Create(context.Background(), &content.Enrollment{
			UserID: user.ID, CohortID: uuid.New(), StartsAt: now.AddDate(0, 0, -14),
		}))

		result, err := f.gate.Check(context.Background(), user, "week-2")
		require.NoError(t, err)
		assert.True(t, result.Allowed())
	})

	t.Run("drip locks preview too", func(t *testing.T) {
		t.Parallel()

		f := newGateFixture(t, now)
		f.seed(t, content.Content{
			Slug: "week-3", Kind: content.KindUnit, RequiredLevel: 20, Preview: true,
			AvailableAfterDays: intPtr(21), Published: true,
		})

		user := &membership.User{ID: uuid.New(), TierLevel: 0}
		require.NoError(t, f.enrollments.Create(context.Background(), &content.Enrollment{
			UserID: user.ID, CohortID: uuid.New(), StartsAt: now,
		}))

		result, err := f.gate.Check(context.Background(), user, "week-3")
		require.NoError(t, err)
		assert.Equal(t, access.DeniedNotYetAvailable, result.Decision)
	})

	t.Run("unenrolled viewer skips drip", func(t *testing.T) {
		t.Parallel()

		f := newGateFixture(t, now)
		f.seed(t, content.Content{
			Slug: "week-2", Kind: content.KindUnit, RequiredLevel: 20,
			AvailableAfterDays: intPtr(14), Published: true,
		})

		user := &membership.User{ID: uuid.New(), TierLevel: 20}
		result, err := f.gate.Check(context.Background(), user, "week-2")
		require.NoError(t, err)
		assert.True(t, result.Allowed())
	})

	t.Run("earliest enrollment anchors drip", func(t *testing.T) {
		t.Parallel()

		f := newGateFixture(t, now)
		f.seed(t, content.Content{
			Slug: "week-1", Kind: content.KindUnit, RequiredLevel: 20,
			AvailableAfterDays: intPtr(7), Published: true,
		})

		user := &membership.User{ID: uuid.New(), TierLevel: 20}
		require.NoError(t, f.enrollments.Create(context.Background(), &content.Enrollment{
			UserID: user.ID, CohortID: uuid.New(), StartsAt: now.AddDate(0, 0, -1),
		}))
		require.NoError(t, f.enrollments.Create(context.Background(), &content.Enrollment{
			UserID: user.ID, CohortID: uuid.New(), StartsAt: now.AddDate(0, 0, -10),
		}))

		result, err := f.gate.Check(context.Background(), user, "week-1")
		require.NoError(t, err)
		assert.True(t, result.Allowed())
	})
}
