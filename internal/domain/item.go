package domain

type ItemCategory string

const (
	ItemCategoryVehicle     ItemCategory = "VEHICLE"
	ItemCategoryElectronics ItemCategory = "ELECTRONICS"
	ItemCategoryTools       ItemCategory = "TOOLS"
	ItemCategoryEquipment   ItemCategory = "EQUIPMENT"
	ItemCategoryFurniture   ItemCategory = "FURNITURE"
)

// ItemCategories lists every category the rental catalog accepts.
var ItemCategories = []ItemCategory{
	ItemCategoryVehicle,
	ItemCategoryElectronics,
	ItemCategoryTools,
	ItemCategoryEquipment,
	ItemCategoryFurniture,
}

func (c ItemCategory) Valid() bool {
	for _, known := range ItemCategories {
		if c == known {
			return true
		}
	}
	return false
}

type ItemCondition string

const (
	ItemConditionExcellent ItemCondition = "EXCELLENT"
	ItemConditionGood      ItemCondition = "GOOD"
	ItemConditionFair      ItemCondition = "FAIR"
	ItemConditionPoor      ItemCondition = "POOR"
	ItemConditionDamaged   ItemCondition = "DAMAGED"
)

func (c ItemCondition) Valid() bool {
	switch c {
	case ItemConditionExcellent, ItemConditionGood, ItemConditionFair, ItemConditionPoor, ItemConditionDamaged:
		return true
	}
	return false
}

type Item struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Category        ItemCategory  `json:"category"`
	BasePricePerDay float64       `json:"base_price_per_day"`
	Condition       ItemCondition `json:"condition"`
	Available       bool          `json:"available"`
	RentedCount     int           `json:"rented_count"`
}
