package content

import (
	"context"

	"github.com/google/uuid"
)

// ContentStore persists content items.
type ContentStore interface {
	GetBySlug(ctx context.Context, slug string) (*Content, error)
	Create(ctx context.Context, item *Content) error
}

// EnrollmentStore resolves a member's earliest cohort enrollment, which
// anchors drip schedules.
type EnrollmentStore interface {
	// GetByUserID returns the enrollment with the earliest start date, or
	// ErrEnrollmentNotFound when the member is not enrolled anywhere.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Enrollment, error)
	Create(ctx context.Context, enrollment *Enrollment) error
}
