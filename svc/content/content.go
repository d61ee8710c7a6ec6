// Package content gates content items behind membership tiers. The gate
// resolves an item and the viewer's enrollment, then defers the decision
// to the pure evaluator in pkg/access.
package content

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a content item. Gating works the same for every kind;
// the kind only tells the frontend how to render the item.
type Kind string

const (
	KindArticle   Kind = "article"
	KindCourse    Kind = "course"
	KindUnit      Kind = "unit"
	KindRecording Kind = "recording"
	KindDownload  Kind = "download"
	KindEvent     Kind = "event"
	KindLink      Kind = "link"
)

// Content is a gated content item.
type Content struct {
	ID            uuid.UUID
	Slug          string
	Kind          Kind
	Title         string
	RequiredLevel int
	Published     bool
	// Preview makes the item visible regardless of tier. Drip still applies.
	Preview bool
	// AvailableAfterDays delays the item relative to the viewer's cohort
	// start. Nil means available immediately.
	AvailableAfterDays *int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Enrollment ties a member to a cohort. StartsAt anchors drip schedules.
type Enrollment struct {
	UserID   uuid.UUID
	CohortID uuid.UUID
	StartsAt time.Time
}
