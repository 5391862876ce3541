package nutrition

import (
	"maps"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
)

// TotalsLabel names the totals row
const TotalsLabel = "Total"

// AssembleInput carries everything the result is composed from
type AssembleInput struct {
	Issues      []string
	Selected    []models.NutrientRow
	Fixed       []models.NutrientRow
	Totals      models.Nutrients
	Percentages map[string]float64
	Unresolved  []models.UnresolvedIngredient
	AutoAdded   string
}

// Assemble composes the response object. Fixed rows come first in fixed-set
// order, then selected rows in selection order; nothing is dropped.
func Assemble(in AssembleInput) models.DietResult {
	rows := make([]models.NutrientRow, 0, len(in.Fixed)+len(in.Selected))
	rows = append(rows, in.Fixed...)
	rows = append(rows, in.Selected...)

	breakdown := make([]models.BreakdownEntry, 0, len(rows))
	for _, r := range rows {
		breakdown = append(breakdown, models.BreakdownEntry{
			Ingredient: r.Ingredient,
			DMG:        r.DMG,
			Fixed:      r.Fixed,
		})
	}

	issues := make([]string, 0, len(in.Issues))
	issues = append(issues, in.Issues...)

	unresolved := make([]models.UnresolvedIngredient, 0, len(in.Unresolved))
	unresolved = append(unresolved, in.Unresolved...)

	percentages := make(map[string]float64, len(in.Percentages))
	maps.Copy(percentages, in.Percentages)

	return models.DietResult{
		Issues:           issues,
		DMBreakdown:      breakdown,
		IngredientTotals: rows,
		Totals: models.NutrientRow{
			Ingredient: TotalsLabel,
			Nutrients:  in.Totals,
		},
		NutrientPercentages: percentages,
		CaPRatio:            CaPRatio(in.Totals),
		Unresolved:          unresolved,
		AutoAdded:           in.AutoAdded,
	}
}
