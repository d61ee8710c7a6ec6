package tier

import "errors"

var (
	ErrTierNotFound  = errors.New("membership tier not found")
	ErrPriceNotFound = errors.New("no price configured for tier and period")
	ErrInvalidPeriod = errors.New("invalid billing period")

	ErrFailedToLoadTiers        = errors.New("failed to load membership tiers")
	ErrInvalidTierConfiguration = errors.New("invalid membership tier configuration")
)
