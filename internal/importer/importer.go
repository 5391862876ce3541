package importer

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

var (
	ErrInvalidWorkbook = errors.New("invalid workbook")
	ErrSheetNotFound   = errors.New("sheet not found")
	ErrMissingColumn   = errors.New("required column missing")
	ErrInvalidNumber   = errors.New("invalid number")
	ErrDuplicateName   = errors.New("duplicate ingredient")
)

// RowError ties a problem to a 1-based spreadsheet row
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// column identifiers
const (
	colName       = "name"
	colGroup      = "group"
	colFresh      = "fresh_weight_g"
	colWater      = "water_percent"
	colDM         = models.KeyDryMatter
	colEnergy     = models.KeyEnergy
	colProtein    = models.KeyProtein
	colFat        = models.KeyFat
	colAsh        = models.KeyAsh
	colCHO        = models.KeyCHO
	colFiber      = models.KeyFiber
	colCalcium    = models.KeyCalcium
	colPhosphorus = models.KeyPhosphorus
	colIron       = models.KeyIron
)

// headerAliases lists accepted header spellings per column, already normalized
var headerAliases = map[string][]string{
	colName:       {"ingredient", "ingredient name", "name"},
	colGroup:      {"group", "group name", "category", "food group"},
	colFresh:      {"fresh weight g", "fresh weight", "fresh g"},
	colWater:      {"water percent", "water %", "water"},
	colDM:         {"dm g", "dm weight g", "dm", "dry matter", "dry matter g"},
	colEnergy:     {"energy kcal", "energy"},
	colProtein:    {"protein g", "protein"},
	colFat:        {"fat g", "fat", "total lipid (fat)"},
	colAsh:        {"ash g", "ash"},
	colCHO:        {"cho g", "cho", "carbohydrate"},
	colFiber:      {"fiber g", "fiber", "fibre"},
	colCalcium:    {"ca mg", "calcium mg", "calcium", "calcium, ca"},
	colPhosphorus: {"p mg", "phosphorus mg", "phosphorus", "phosphorus, p"},
	colIron:       {"iron mg", "iron", "iron, fe"},
}

var aliasIndex = func() map[string]string {
	idx := make(map[string]string)
	for col, aliases := range headerAliases {
		for _, a := range aliases {
			idx[a] = col
		}
	}
	return idx
}()

// normalizeHeader lowercases, treats underscores as spaces and collapses whitespace
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.ReplaceAll(h, "_", " "))
	return strings.Join(strings.Fields(h), " ")
}

// sheetTable is the parsed header plus data rows of one sheet
type sheetTable struct {
	columns map[string]int
	rows    [][]string
	// first data row number in spreadsheet terms
	firstRow int
}

func readSheet(r io.Reader, sheet string) (*sheetTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	// header is the first non-empty row
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		columns := make(map[string]int)
		for j, cell := range row {
			if col, ok := aliasIndex[normalizeHeader(cell)]; ok {
				if _, dup := columns[col]; !dup {
					columns[col] = j
				}
			}
		}
		return &sheetTable{columns: columns, rows: rows[i+1:], firstRow: i + 2}, nil
	}
	return &sheetTable{columns: map[string]int{}, firstRow: 1}, nil
}

func (t *sheetTable) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.columns[c]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return nil
}

func (t *sheetTable) cell(row []string, col string) string {
	j, ok := t.columns[col]
	if !ok || j >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[j])
}

// number parses a numeric cell; blanks are zero. A single comma in a cell
// without a dot is a decimal mark ("12,5"); thousands separators are not
// supported, so "1,234" reads as 1.234 and "1,234.5" is rejected.
func (t *sheetTable) number(row []string, col string) (float64, error) {
	raw := t.cell(row, col)
	if raw == "" {
		return 0, nil
	}
	v, ok := parseNumber(raw)
	if !ok {
		return 0, fmt.Errorf("%w in %s: %q", ErrInvalidNumber, col, raw)
	}
	return v, nil
}

// parseNumber accepts finite decimals only; NaN and Inf spellings are rejected
func parseNumber(raw string) (float64, bool) {
	if strings.Count(raw, ",") == 1 && !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (t *sheetTable) nutrients(row []string) (models.Nutrients, error) {
	var n models.Nutrients
	targets := []struct {
		col string
		dst *float64
	}{
		{colDM, &n.DMG},
		{colProtein, &n.ProteinG},
		{colFat, &n.FatG},
		{colCHO, &n.CHOG},
		{colFiber, &n.FiberG},
		{colAsh, &n.AshG},
		{colCalcium, &n.CalciumMg},
		{colPhosphorus, &n.PhosphMg},
		{colIron, &n.IronMg},
		{colEnergy, &n.EnergyKcal},
	}
	for _, tg := range targets {
		v, err := t.number(row, tg.col)
		if err != nil {
			return models.Nutrients{}, err
		}
		*tg.dst = v
	}
	return n, nil
}

// dataRows yields rows that carry an ingredient name, skipping repeated header rows
func (t *sheetTable) dataRows(fn func(rowNum int, row []string, name string) error) error {
	for i, row := range t.rows {
		name := t.cell(row, colName)
		if name == "" || aliasIndex[normalizeHeader(name)] == colName {
			continue
		}
		if err := fn(t.firstRow+i, row, name); err != nil {
			return err
		}
	}
	return nil
}

// ParseIngredients reads ingredient profiles from a sheet; an empty sheet
// name selects the active sheet. Columns are matched by header.
func ParseIngredients(r io.Reader, sheet string) ([]models.IngredientProfile, error) {
	t, err := readSheet(r, sheet)
	if err != nil {
		return nil, err
	}
	if err := t.require(colName, colGroup, colDM); err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	profiles := make([]models.IngredientProfile, 0, len(t.rows))
	err = t.dataRows(func(rowNum int, row []string, name string) error {
		if prev, ok := seen[name]; ok {
			return &RowError{Row: rowNum, Err: fmt.Errorf("%w %q, first seen on row %d", ErrDuplicateName, name, prev)}
		}
		seen[name] = rowNum

		n, err := t.nutrients(row)
		if err != nil {
			return &RowError{Row: rowNum, Err: err}
		}
		fresh, err := t.number(row, colFresh)
		if err != nil {
			return &RowError{Row: rowNum, Err: err}
		}
		water, err := t.number(row, colWater)
		if err != nil {
			return &RowError{Row: rowNum, Err: err}
		}

		p := models.IngredientProfile{
			Name:         name,
			Group:        t.cell(row, colGroup),
			FreshWeightG: fresh,
			WaterPercent: water,
			Nutrients:    n,
		}
		if err := p.Validate(); err != nil {
			return &RowError{Row: rowNum, Err: err}
		}
		profiles = append(profiles, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// ParseFixed reads the fixed-ingredient set from a sheet in row order
func ParseFixed(r io.Reader, sheet string) ([]models.FixedContribution, error) {
	t, err := readSheet(r, sheet)
	if err != nil {
		return nil, err
	}
	if err := t.require(colName, colDM); err != nil {
		return nil, err
	}

	fixed := make([]models.FixedContribution, 0, len(t.rows))
	err = t.dataRows(func(rowNum int, row []string, name string) error {
		n, err := t.nutrients(row)
		if err != nil {
			return &RowError{Row: rowNum, Err: err}
		}
		fc := models.FixedContribution{Name: name, Fixed: true, Nutrients: n}
		if err := fc.Validate(); err != nil {
			return &RowError{Row: rowNum, Err: err}
		}
		fixed = append(fixed, fc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fixed, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
