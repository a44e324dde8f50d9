package pricing

import (
	"rental-engine-backend/internal/domain"
)

const (
	monthlyThresholdDays = 30
	weeklyThresholdDays  = 7
	monthlyDiscount      = 0.75
	weeklyDiscount       = 0.85
)

var customerDiscounts = map[domain.CustomerStatus]float64{
	domain.CustomerStatusNew:      0,
	domain.CustomerStatusRegular:  0.05,
	domain.CustomerStatusVIP:      0.15,
	domain.CustomerStatusBusiness: 0.10,
}

// Quote is the step-by-step price computation for one rental.
type Quote struct {
	Category         domain.ItemCategory   `json:"category"`
	DurationDays     int                   `json:"duration_days"`
	Season           Season                `json:"season"`
	CustomerType     domain.CustomerStatus `json:"customer_type"`
	BaseAmount       float64               `json:"base_amount"`
	SeasonMultiplier float64               `json:"season_multiplier"`
	DurationFactor   float64               `json:"duration_factor"`
	CustomerDiscount float64               `json:"customer_discount"`
	Total            float64               `json:"total"`
	InsurancePremium float64               `json:"insurance_premium"`
}

// Engine prices rentals. It holds no mutable state after construction, so
// one instance can be shared freely.
type Engine struct {
	profiles map[domain.ItemCategory]CategoryProfile
}

// NewEngine builds an engine on the default category table. Entries in
// baseRates replace the default base rate of that category.
func NewEngine(baseRates map[domain.ItemCategory]float64) *Engine {
	profiles := make(map[domain.ItemCategory]CategoryProfile, len(defaultProfiles))
	for c, p := range defaultProfiles {
		if rate, ok := baseRates[c]; ok && rate >= 0 {
			p.BaseRate = rate
		}
		profiles[c] = p
	}
	return &Engine{profiles: profiles}
}

// Profile returns the rule set in effect for a category.
func (e *Engine) Profile(category domain.ItemCategory) (CategoryProfile, bool) {
	p, ok := e.profiles[category]
	return p, ok
}

// BaseRate returns the daily base rate of a category, zero if unknown.
func (e *Engine) BaseRate(category domain.ItemCategory) float64 {
	return e.profiles[category].BaseRate
}

// CurrentValue is the depreciated value of an item. Items without their own
// base price are valued at the category rate.
func (e *Engine) CurrentValue(item domain.Item) float64 {
	p, ok := e.profiles[item.Category]
	if !ok || p.Depreciation == nil {
		return 0
	}
	base := item.BasePricePerDay
	if base <= 0 {
		base = p.BaseRate
	}
	return p.Depreciation(base, item.RentedCount)
}

// ComputeTotal prices a rental: base × season, then the duration discount,
// then the customer discount. The order matters for the result.
func (e *Engine) ComputeTotal(category domain.ItemCategory, durationDays int, season Season, customerType domain.CustomerStatus) float64 {
	return e.Quote(category, durationDays, season, customerType).Total
}

func (e *Engine) Quote(category domain.ItemCategory, durationDays int, season Season, customerType domain.CustomerStatus) Quote {
	q := Quote{
		Category:         category,
		DurationDays:     durationDays,
		Season:           season,
		CustomerType:     customerType,
		SeasonMultiplier: SeasonMultiplier(season),
		DurationFactor:   DurationFactor(durationDays),
		CustomerDiscount: CustomerDiscount(customerType),
	}

	q.BaseAmount = e.BaseRate(category) * float64(durationDays)
	amount := q.BaseAmount * q.SeasonMultiplier
	amount *= q.DurationFactor
	amount *= 1 - q.CustomerDiscount
	if amount < 0 {
		amount = 0
	}
	q.Total = amount

	if p, ok := e.profiles[category]; ok && p.InsurancePremium != nil && durationDays > 0 {
		q.InsurancePremium = p.InsurancePremium(q.Total, durationDays)
	}
	return q
}

// DurationFactor is the long-rental multiplier; the 30-day tier wins over the 7-day one.
func DurationFactor(durationDays int) float64 {
	switch {
	case durationDays >= monthlyThresholdDays:
		return monthlyDiscount
	case durationDays >= weeklyThresholdDays:
		return weeklyDiscount
	default:
		return 1.0
	}
}

func CustomerDiscount(customerType domain.CustomerStatus) float64 {
	return customerDiscounts[customerType]
}
