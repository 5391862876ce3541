package handlers

import (
	"fmt"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// Export sheet names
const (
	SheetBreakdown   = "Breakdown"
	SheetTotals      = "Totals"
	SheetPercentages = "Percentages"
	SheetIssues      = "Issues"
)

var totalsHeader = []interface{}{
	"Ingredient",
	models.KeyDryMatter,
	models.KeyProtein,
	models.KeyFat,
	models.KeyCHO,
	models.KeyFiber,
	models.KeyAsh,
	models.KeyCalcium,
	models.KeyPhosphorus,
	models.KeyIron,
	models.KeyEnergy,
	"Fixed",
}

func totalsRow(row models.NutrientRow) []interface{} {
	n := row.Nutrients
	return []interface{}{
		row.Ingredient,
		n.DMG, n.ProteinG, n.FatG, n.CHOG, n.FiberG, n.AshG,
		n.CalciumMg, n.PhosphMg, n.IronMg, n.EnergyKcal,
		row.Fixed,
	}
}

// buildWorkbook lays a calculation result out over four sheets
func buildWorkbook(result *models.DietResult) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetBreakdown); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, name := range []string{SheetTotals, SheetPercentages, SheetIssues} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	breakdown := [][]interface{}{{"Ingredient", "DM (g)", "Fixed"}}
	for _, e := range result.DMBreakdown {
		breakdown = append(breakdown, []interface{}{e.Ingredient, e.DMG, e.Fixed})
	}

	totals := [][]interface{}{totalsHeader}
	for _, r := range result.IngredientTotals {
		totals = append(totals, totalsRow(r))
	}
	totals = append(totals, totalsRow(result.Totals))

	percentages := [][]interface{}{{"Nutrient", "% of DM"}}
	for _, key := range models.PercentageKeys {
		percentages = append(percentages, []interface{}{key, result.NutrientPercentages[key]})
	}
	percentages = append(percentages, []interface{}{"Ca:P ratio", result.CaPRatio})

	issues := [][]interface{}{{"Issue"}}
	for _, issue := range result.Issues {
		issues = append(issues, []interface{}{issue})
	}

	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{SheetBreakdown, breakdown},
		{SheetTotals, totals},
		{SheetPercentages, percentages},
		{SheetIssues, issues},
	}
	for _, s := range sheets {
		if err := writeRows(f, s.name, s.rows); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
