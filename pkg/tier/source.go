package tier

import (
	"context"
	"slices"
	"sync"
)

type inMemSource struct {
	mu    sync.RWMutex
	tiers []Tier
}

// NewInMemSource returns an in-memory Source with a copy of the given tiers.
// Panics if no tiers are provided so the registry always has a valid catalog.
func NewInMemSource(tiers ...Tier) Source {
	if len(tiers) == 0 {
		panic("at least one tier is required")
	}
	return &inMemSource{tiers: slices.Clone(tiers)}
}

// Load returns a copy of the tiers to prevent external mutation.
func (s *inMemSource) Load(ctx context.Context) ([]Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tiers), nil
}

// DefaultTiers returns the standard four-tier catalog without provider
// prices. Operators are expected to fill in price IDs via the YAML source
// or environment-specific seeding.
func DefaultTiers() []Tier {
	return []Tier{
		{Slug: "free", Name: "Free", Level: 0},
		{Slug: "basic", Name: "Basic", Level: 10},
		{Slug: "main", Name: "Main", Level: 20},
		{Slug: "premium", Name: "Premium", Level: 30},
	}
}
