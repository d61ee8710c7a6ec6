package tier

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Source defines how tiers are loaded into the registry.
type Source interface {
	Load(ctx context.Context) ([]Tier, error)
}

// Registry is the static, ordered catalog of membership tiers.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	bySlug  map[string]Tier
	byPrice map[string]Tier
	ordered []Tier // ascending by level
}

// NewRegistry loads tiers from the source and validates the catalog.
// Panics if src is nil to fail fast during initialization.
func NewRegistry(ctx context.Context, src Source) (*Registry, error) {
	if src == nil {
		panic("tier: Source is required")
	}

	tiers, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadTiers, err)
	}

	if err := validateTiers(tiers); err != nil {
		return nil, err
	}

	r := &Registry{
		bySlug:  make(map[string]Tier, len(tiers)),
		byPrice: make(map[string]Tier, len(tiers)*2),
		ordered: slices.Clone(tiers),
	}
	slices.SortFunc(r.ordered, func(a, b Tier) int { return a.Level - b.Level })

	for _, t := range tiers {
		r.bySlug[t.Slug] = t
		if t.MonthlyPriceID != "" {
			r.byPrice[t.MonthlyPriceID] = t
		}
		if t.AnnualPriceID != "" {
			r.byPrice[t.AnnualPriceID] = t
		}
	}

	return r, nil
}

// BySlug returns the tier with the given slug.
func (r *Registry) BySlug(slug string) (Tier, error) {
	t, ok := r.bySlug[slug]
	if !ok {
		return Tier{}, fmt.Errorf("%w: %q", ErrTierNotFound, slug)
	}
	return t, nil
}

// ByPriceID returns the tier that carries the given provider price ID.
func (r *Registry) ByPriceID(priceID string) (Tier, error) {
	t, ok := r.byPrice[priceID]
	if !ok {
		return Tier{}, fmt.Errorf("%w: price %q", ErrTierNotFound, priceID)
	}
	return t, nil
}

// Lowest returns the free tier (level 0). Validation guarantees it exists.
func (r *Registry) Lowest() Tier {
	return r.ordered[0]
}

// LowestAtOrAbove returns the lowest tier whose level satisfies the required
// level. Used to name the tier a viewer must purchase to gain access.
func (r *Registry) LowestAtOrAbove(level int) (Tier, error) {
	for _, t := range r.ordered {
		if t.Level >= level {
			return t, nil
		}
	}
	return Tier{}, fmt.Errorf("%w: no tier at or above level %d", ErrTierNotFound, level)
}

// All returns tiers ordered ascending by level.
func (r *Registry) All() []Tier {
	return slices.Clone(r.ordered)
}

// Purchasable returns tiers that have at least one provider price, ascending by level.
func (r *Registry) Purchasable() []Tier {
	out := make([]Tier, 0, len(r.ordered))
	for _, t := range r.ordered {
		if t.Purchasable() {
			out = append(out, t)
		}
	}
	return out
}

// PriceID resolves the provider price for a tier slug and billing period.
func (r *Registry) PriceID(slug string, period BillingPeriod) (string, error) {
	if !period.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	t, err := r.BySlug(slug)
	if err != nil {
		return "", err
	}
	priceID := t.PriceID(period)
	if priceID == "" {
		return "", fmt.Errorf("%w: tier %q, period %q", ErrPriceNotFound, slug, period)
	}
	return priceID, nil
}

// validateTiers ensures the catalog is internally consistent.
// Catches configuration errors early to prevent runtime issues.
func validateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return errors.Join(ErrInvalidTierConfiguration, errors.New("at least one tier is required"))
	}

	slugs := make(map[string]struct{}, len(tiers))
	levels := make(map[int]struct{}, len(tiers))
	hasFree := false

	for _, t := range tiers {
		if t.Slug == "" {
			return errors.Join(ErrInvalidTierConfiguration, errors.New("tier slug cannot be empty"))
		}
		if _, dup := slugs[t.Slug]; dup {
			return errors.Join(ErrInvalidTierConfiguration,
				fmt.Errorf("duplicate tier slug %q", t.Slug))
		}
		slugs[t.Slug] = struct{}{}

		if t.Level < 0 {
			return errors.Join(ErrInvalidTierConfiguration,
				fmt.Errorf("tier %q has negative level %d", t.Slug, t.Level))
		}
		if _, dup := levels[t.Level]; dup {
			return errors.Join(ErrInvalidTierConfiguration,
				fmt.Errorf("duplicate tier level %d", t.Level))
		}
		levels[t.Level] = struct{}{}

		if t.Level == 0 {
			hasFree = true
		}
	}

	if !hasFree {
		return errors.Join(ErrInvalidTierConfiguration, errors.New("a tier at level 0 is required"))
	}

	return nil
}
