package tier

// BillingPeriod represents the billing frequency for a purchasable tier.
type BillingPeriod string

const (
	PeriodMonthly BillingPeriod = "monthly"
	PeriodAnnual  BillingPeriod = "annual"
)

// Valid checks if the billing period is one of the known values.
func (p BillingPeriod) Valid() bool {
	return p == PeriodMonthly || p == PeriodAnnual
}

// CommunityMinLevel is the tier level at which community access begins.
// Transitions across this threshold drive community invite/remove side effects.
const CommunityMinLevel = 20

// Tier describes a membership level. Levels are strictly increasing across
// the registry and are the only values used for access comparisons; slugs are
// stable identifiers for storage and URLs, never used for ordering.
type Tier struct {
	Slug           string `yaml:"slug"`
	Name           string `yaml:"name"`
	Level          int    `yaml:"level"`
	MonthlyPriceID string `yaml:"monthly_price_id"` // provider price ID, empty when not purchasable monthly
	AnnualPriceID  string `yaml:"annual_price_id"`  // provider price ID, empty when not purchasable annually
}

// PriceID returns the provider price identifier for the given period.
// An empty result means the tier is not purchasable for that period.
func (t Tier) PriceID(period BillingPeriod) string {
	switch period {
	case PeriodMonthly:
		return t.MonthlyPriceID
	case PeriodAnnual:
		return t.AnnualPriceID
	default:
		return ""
	}
}

// Purchasable reports whether the tier has at least one provider price.
func (t Tier) Purchasable() bool {
	return t.MonthlyPriceID != "" || t.AnnualPriceID != ""
}

// HasCommunityAccess reports whether the tier grants community membership.
func (t Tier) HasCommunityAccess() bool {
	return t.Level >= CommunityMinLevel
}
