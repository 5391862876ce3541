package nutrition

import (
	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
)

// Aggregation is the numeric outcome for one selection
type Aggregation struct {
	Selected    []models.NutrientRow
	Fixed       []models.NutrientRow
	Totals      models.Nutrients
	Percentages map[string]float64
}

// Aggregate builds one row per resolved profile and per fixed contribution,
// sums them and derives each nutrient's share of total dry matter.
// Profile amounts are already absolute, so rows carry them unscaled.
func Aggregate(profiles []models.IngredientProfile, fixed []models.FixedContribution) Aggregation {
	agg := Aggregation{
		Selected: make([]models.NutrientRow, 0, len(profiles)),
		Fixed:    make([]models.NutrientRow, 0, len(fixed)),
	}

	for _, f := range fixed {
		agg.Fixed = append(agg.Fixed, models.NutrientRow{
			Ingredient: f.Name,
			Nutrients:  f.Nutrients,
			Fixed:      true,
		})
	}
	for _, p := range profiles {
		agg.Selected = append(agg.Selected, models.NutrientRow{
			Ingredient: p.Name,
			Nutrients:  p.Nutrients,
		})
	}

	agg.Totals = Sum(agg.Fixed, agg.Selected)
	agg.Percentages = Percentages(agg.Totals)
	return agg
}

// Sum returns the field-wise total of all rows
func Sum(groups ...[]models.NutrientRow) models.Nutrients {
	var total models.Nutrients
	for _, rows := range groups {
		for _, r := range rows {
			total = total.Add(r.Nutrients)
		}
	}
	return total
}

// Percentages expresses every nutrient as 100 * amount / total dry matter.
// When total dry matter is zero every key is reported as 0.
func Percentages(totals models.Nutrients) map[string]float64 {
	out := make(map[string]float64, len(models.PercentageKeys))
	for _, key := range models.PercentageKeys {
		if totals.DMG <= 0 {
			out[key] = 0
			continue
		}
		v, _ := totals.Value(key)
		out[key] = 100 * v / totals.DMG
	}
	return out
}

// CaPRatio returns calcium over phosphorus, or 0 without phosphorus
func CaPRatio(totals models.Nutrients) float64 {
	if totals.PhosphMg <= 0 {
		return 0
	}
	return totals.CalciumMg / totals.PhosphMg
}
