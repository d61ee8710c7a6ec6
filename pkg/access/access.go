// Package access implements the single gating decision every content type
// defers to: a required-level comparison with deterministic outcomes for
// anonymous, under-tier, preview, and drip-scheduled cases.
//
// The evaluator is pure and performs no I/O, which keeps the gating semantics
// identical across content types and independently testable. Callers resolve
// the viewer's tier level and cohort enrollment before calling Evaluate.
package access

import "time"

// Decision is the outcome class of an access evaluation.
type Decision string

const (
	Granted                Decision = "granted"
	DeniedAnonymous        Decision = "denied_anonymous"
	DeniedInsufficientTier Decision = "denied_insufficient_tier"
	DeniedNotYetAvailable  Decision = "denied_not_yet_available"
)

// Viewer is the access-relevant projection of whoever is requesting content.
// A zero Viewer is an anonymous visitor.
type Viewer struct {
	Authenticated bool
	Level         int
	// EnrolledAt is the viewer's cohort start date. Nil means not enrolled;
	// drip rules are only enforced for enrolled viewers.
	EnrolledAt *time.Time
}

// Anonymous returns the viewer value for a visitor with no session.
func Anonymous() Viewer {
	return Viewer{}
}

// Item is the access-relevant projection of a content item.
type Item struct {
	RequiredLevel int
	// Preview bypasses the tier requirement entirely, but not drip.
	Preview bool
	// AvailableAfterDays delays availability relative to the viewer's cohort
	// start date. Nil means no drip rule.
	AvailableAfterDays *int
}

// Result is the evaluation outcome. RequiredLevel is set for
// DeniedInsufficientTier; UnlockAt is set for DeniedNotYetAvailable.
type Result struct {
	Decision      Decision
	RequiredLevel int
	UnlockAt      time.Time
}

// Allowed reports whether the result grants access.
func (r Result) Allowed() bool {
	return r.Decision == Granted
}

// Evaluate decides whether the viewer may access the item at the given time.
//
// Order matters: preview bypasses the tier check but drip still applies, and
// the drip check runs before the tier comparison so an enrolled-but-early
// viewer sees an unlock date rather than an upgrade prompt.
func Evaluate(viewer Viewer, item Item, now time.Time) Result {
	if unlockAt, locked := dripLockedUntil(viewer, item, now); locked {
		return Result{Decision: DeniedNotYetAvailable, UnlockAt: unlockAt}
	}

	if item.Preview {
		return Result{Decision: Granted}
	}

	if viewer.Level >= item.RequiredLevel {
		return Result{Decision: Granted}
	}

	if !viewer.Authenticated {
		// Same denial as the tier case; the distinct decision lets the UI
		// show a signup prompt instead of an upgrade prompt.
		return Result{Decision: DeniedAnonymous, RequiredLevel: item.RequiredLevel}
	}

	return Result{Decision: DeniedInsufficientTier, RequiredLevel: item.RequiredLevel}
}

func dripLockedUntil(viewer Viewer, item Item, now time.Time) (time.Time, bool) {
	if item.AvailableAfterDays == nil || viewer.EnrolledAt == nil {
		return time.Time{}, false
	}
	unlockAt := viewer.EnrolledAt.AddDate(0, 0, *item.AvailableAfterDays)
	if unlockAt.After(now) {
		return unlockAt, true
	}
	return time.Time{}, false
}
