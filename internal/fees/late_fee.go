package fees

import (
	"math"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/pricing"
)

const (
	baseLateFeePerDay = 25.0

	lostRevenueShare    = 0.3
	downtimeSurcharge   = 0.1
	adminFeeBase        = 15.0
	adminFeeOverWeek    = 25.0
	adminFeeOverTwoWeek = 50.0
	notificationFee     = 5.0
	notificationEvery   = 3

	maxDailyRateMultiple = 2.0
)

var customerPenaltyMultipliers = map[domain.CustomerStatus]float64{
	domain.CustomerStatusNew:      1.2,
	domain.CustomerStatusRegular:  1.0,
	domain.CustomerStatusVIP:      0.8,
	domain.CustomerStatusBusiness: 0.9,
}

var graceDays = map[domain.CustomerStatus]int{
	domain.CustomerStatusVIP:      2,
	domain.CustomerStatusBusiness: 1,
}

// LateFeeBreakdown shows every component of a late fee.
type LateFeeBreakdown struct {
	LateDays          int     `json:"late_days"`
	GraceApplied      bool    `json:"grace_applied"`
	Base              float64 `json:"base"`
	Progressive       float64 `json:"progressive_penalty"`
	LostRevenue       float64 `json:"lost_revenue"`
	AdministrativeFee float64 `json:"administrative_fee"`
	Uncapped          float64 `json:"uncapped"`
	Cap               float64 `json:"cap"`
	Total             float64 `json:"total"`
}

// Engine computes late fees. Like the pricing engine it is stateless.
type Engine struct {
	pricing *pricing.Engine
}

func NewEngine(p *pricing.Engine) *Engine {
	return &Engine{pricing: p}
}

// LateFee returns the fee owed for returning an item lateDays late.
func (e *Engine) LateFee(category domain.ItemCategory, dailyRate float64, lateDays int, customerType domain.CustomerStatus) float64 {
	return e.Breakdown(category, dailyRate, lateDays, customerType).Total
}

func (e *Engine) Breakdown(category domain.ItemCategory, dailyRate float64, lateDays int, customerType domain.CustomerStatus) LateFeeBreakdown {
	b := LateFeeBreakdown{LateDays: lateDays}
	if lateDays <= 0 {
		return b
	}
	if grace, ok := graceDays[customerType]; ok && lateDays <= grace {
		b.GraceApplied = true
		return b
	}

	profile, _ := e.pricing.Profile(category)
	days := float64(lateDays)

	b.Base = baseLateFeePerDay * days * profile.LateFeeMultiplier * penaltyMultiplier(customerType)
	b.Progressive = b.Base * (progressiveFactor(lateDays) - 1)

	lost := profile.DailyRevenue * lostRevenueShare * days
	b.LostRevenue = lost + lost*downtimeSurcharge

	b.AdministrativeFee = adminFee(lateDays)

	b.Uncapped = b.Base + b.Progressive + b.LostRevenue + b.AdministrativeFee
	b.Cap = maxDailyRateMultiple * dailyRate * days
	b.Total = math.Min(b.Uncapped, b.Cap)
	if b.Total < 0 {
		b.Total = 0
	}
	return b
}

func penaltyMultiplier(customerType domain.CustomerStatus) float64 {
	if m, ok := customerPenaltyMultipliers[customerType]; ok {
		return m
	}
	return 1.0
}

func progressiveFactor(lateDays int) float64 {
	switch {
	case lateDays > 14:
		return 2.0
	case lateDays > 7:
		return 1.5
	case lateDays > 3:
		return 1.2
	default:
		return 1.0
	}
}

func adminFee(lateDays int) float64 {
	fee := adminFeeBase
	if lateDays > 7 {
		fee += adminFeeOverWeek
	}
	if lateDays > 14 {
		fee += adminFeeOverTwoWeek
	}
	fee += notificationFee * float64(lateDays/notificationEvery)
	return fee
}
