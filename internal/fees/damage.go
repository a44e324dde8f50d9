package fees

import (
	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/pricing"
)

// DamageAssessor prices the damage found on a returned item.
type DamageAssessor interface {
	DamageCost(category domain.ItemCategory, condition domain.ItemCondition) float64
}

var damageFactors = map[domain.ItemCondition]float64{
	domain.ItemConditionExcellent: 0,
	domain.ItemConditionGood:      0.5,
	domain.ItemConditionFair:      2,
	domain.ItemConditionPoor:      5,
	domain.ItemConditionDamaged:   10,
}

// TableAssessor charges a multiple of the category's daily base rate per
// condition grade.
type TableAssessor struct {
	pricing *pricing.Engine
}

func NewTableAssessor(p *pricing.Engine) *TableAssessor {
	return &TableAssessor{pricing: p}
}

func (a *TableAssessor) DamageCost(category domain.ItemCategory, condition domain.ItemCondition) float64 {
	factor, ok := damageFactors[condition]
	if !ok {
		// unknown grades are treated as the worst case
		factor = damageFactors[domain.ItemConditionDamaged]
	}
	return a.pricing.BaseRate(category) * factor
}
