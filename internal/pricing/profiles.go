package pricing

import (
	"math"

	"rental-engine-backend/internal/domain"
)

// replacementValueDays converts a daily base price into the value of a new item.
const replacementValueDays = 60

// CategoryProfile is the per-category rule set. Categories differ only in the
// numbers and formulas held here.
type CategoryProfile struct {
	BaseRate          float64
	LateFeeMultiplier float64
	DailyRevenue      float64
	// InsurancePremium prices optional insurance for a rental of the given
	// amount and length.
	InsurancePremium func(amount float64, days int) float64
	// Depreciation values an item with the given daily base price after
	// rentedCount rentals.
	Depreciation func(basePrice float64, rentedCount int) float64
}

func flatPremium(rate float64) func(float64, int) float64 {
	return func(amount float64, _ int) float64 {
		return amount * rate
	}
}

// dailyPremium charges a per-day floor on top of a percentage, for categories
// where exposure grows with time out of the shop.
func dailyPremium(rate, perDay float64) func(float64, int) float64 {
	return func(amount float64, days int) float64 {
		return amount*rate + perDay*float64(days)
	}
}

// straightLine loses a fixed share of the replacement value per rental.
func straightLine(perRental, floor float64) func(float64, int) float64 {
	return func(basePrice float64, rentedCount int) float64 {
		return basePrice * replacementValueDays * math.Max(floor, 1-perRental*float64(rentedCount))
	}
}

// declining loses a share of the remaining value per rental.
func declining(perRental, floor float64) func(float64, int) float64 {
	return func(basePrice float64, rentedCount int) float64 {
		return basePrice * replacementValueDays * math.Max(floor, math.Pow(1-perRental, float64(rentedCount)))
	}
}

var defaultProfiles = map[domain.ItemCategory]CategoryProfile{
	domain.ItemCategoryVehicle: {
		BaseRate:          50,
		LateFeeMultiplier: 1.5,
		DailyRevenue:      100,
		InsurancePremium:  dailyPremium(0.12, 5),
		Depreciation:      straightLine(0.01, 0.3),
	},
	domain.ItemCategoryElectronics: {
		BaseRate:          25,
		LateFeeMultiplier: 1.3,
		DailyRevenue:      40,
		InsurancePremium:  flatPremium(0.15),
		Depreciation:      declining(0.05, 0.1),
	},
	domain.ItemCategoryEquipment: {
		BaseRate:          35,
		LateFeeMultiplier: 1.2,
		DailyRevenue:      60,
		InsurancePremium:  dailyPremium(0.08, 2),
		Depreciation:      straightLine(0.015, 0.25),
	},
	domain.ItemCategoryTools: {
		BaseRate:          15,
		LateFeeMultiplier: 1.0,
		DailyRevenue:      20,
		InsurancePremium:  flatPremium(0.05),
		Depreciation:      declining(0.03, 0.2),
	},
	domain.ItemCategoryFurniture: {
		BaseRate:          20,
		LateFeeMultiplier: 0.8,
		DailyRevenue:      30,
		InsurancePremium:  flatPremium(0.04),
		Depreciation:      straightLine(0.005, 0.4),
	},
}
