package models

// DietRequest represents an incoming diet calculation request
type DietRequest struct {
	Ingredients  []string `json:"ingredients" validate:"required,max=100,dive,required,max=200"`
	AutoAddGrain bool     `json:"auto_add_grain,omitempty"`
}

// NutrientRow is one ingredient's contribution to the diet
type NutrientRow struct {
	Ingredient string `json:"ingredient"`
	Nutrients
	Fixed bool `json:"fixed"`
}

// BreakdownEntry is the dry-matter share of a single ingredient
type BreakdownEntry struct {
	Ingredient string  `json:"ingredient"`
	DMG        float64 `json:"dm_g"`
	Fixed      bool    `json:"fixed"`
}

// UnresolvedIngredient names a selected ingredient that was excluded from the totals
type UnresolvedIngredient struct {
	Ingredient string `json:"ingredient"`
	Reason     string `json:"reason"`
}

// Unresolved reasons
const (
	ReasonNotFound = "not_found"
	ReasonTimeout  = "timeout"
)

// DietResult is the structured outcome of one calculation
type DietResult struct {
	CalculationID       string                 `json:"calculation_id"`
	Issues              []string               `json:"issues"`
	DMBreakdown         []BreakdownEntry       `json:"dm_breakdown"`
	IngredientTotals    []NutrientRow          `json:"ingredient_totals"`
	Totals              NutrientRow            `json:"totals"`
	NutrientPercentages map[string]float64     `json:"nutrient_percentages"`
	CaPRatio            float64                `json:"ca_p_ratio"`
	Unresolved          []UnresolvedIngredient `json:"unresolved"`
	AutoAdded           string                 `json:"auto_added,omitempty"`
}
