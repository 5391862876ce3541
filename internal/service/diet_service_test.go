package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/nutrition"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/repository"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/rules"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog(t *testing.T) *repository.InMemoryIngredientRepository {
	t.Helper()
	repo, err := repository.NewInMemoryIngredientRepository([]models.IngredientProfile{
		{Name: "Beef liver", Group: "Organ Meat", FreshWeightG: 500, WaterPercent: 70, Nutrients: models.Nutrients{DMG: 150, ProteinG: 100, FatG: 18, CalciumMg: 25, PhosphMg: 1935, IronMg: 24.5}},
		{Name: "Wheat", Group: "Grain Group A", FreshWeightG: 400, WaterPercent: 12.5, Nutrients: models.Nutrients{DMG: 350, ProteinG: 52.8, FatG: 10, CalciumMg: 116, PhosphMg: 1152, IronMg: 12.8}},
		{Name: "Oat Bran", Group: "Grain Group B", FreshWeightG: 100, WaterPercent: 6.6, Nutrients: models.Nutrients{DMG: 93.4, ProteinG: 17.3, FatG: 7}},
		{Name: "Carrot", Group: "Vegetable A", FreshWeightG: 100, WaterPercent: 88, Nutrients: models.Nutrients{DMG: 12, ProteinG: 0.9}},
	})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return repo
}

func testFixedSet(t *testing.T) *repository.InMemoryFixedRepository {
	t.Helper()
	repo, err := repository.NewInMemoryFixedRepository([]models.FixedContribution{
		{Name: "Bone meal", Nutrients: models.Nutrients{DMG: 20, AshG: 15, CalciumMg: 6200, PhosphMg: 2900}},
		{Name: "Iodized salt", Nutrients: models.Nutrients{DMG: 5, AshG: 5}},
	})
	if err != nil {
		t.Fatalf("build fixed set: %v", err)
	}
	return repo
}

func newTestDietService(t *testing.T, cfg rules.Config) *DietService {
	t.Helper()
	return NewDietService(testCatalog(t), testFixedSet(t), cfg, nutrition.ResolveOptions{Timeout: time.Second, MaxConcurrent: 4}, nil, discardLogger())
}

func TestDietService_Calculate(t *testing.T) {
	svc := newTestDietService(t, rules.DefaultConfig())

	tests := []struct {
		name       string
		selection  []string
		wantIssues []string
		wantRows   int
	}{
		{
			name:       "liver and group A grain",
			selection:  []string{"Beef liver", "Wheat"},
			wantIssues: []string{},
			wantRows:   4,
		},
		{
			name:       "group B grain alone and no liver",
			selection:  []string{"Oat Bran"},
			wantIssues: []string{rules.IssueGrainGroupB, rules.IssueLiverMissing},
			wantRows:   3,
		},
		{
			name:       "empty selection",
			selection:  []string{},
			wantIssues: []string{rules.IssueLiverMissing},
			wantRows:   2,
		},
		{
			name:       "duplicates collapse",
			selection:  []string{"Beef liver", " Beef liver ", "Wheat", "Beef liver"},
			wantIssues: []string{},
			wantRows:   4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Calculate(context.Background(), models.DietRequest{Ingredients: tt.selection})
			if err != nil {
				t.Fatalf("Calculate() unexpected error = %v", err)
			}

			if strings.Join(result.Issues, "|") != strings.Join(tt.wantIssues, "|") {
				t.Errorf("issues = %q, want %q", result.Issues, tt.wantIssues)
			}
			if len(result.IngredientTotals) != tt.wantRows {
				t.Errorf("ingredient_totals rows = %d, want %d", len(result.IngredientTotals), tt.wantRows)
			}
			if len(result.DMBreakdown) != len(result.IngredientTotals) {
				t.Errorf("dm_breakdown has %d entries, ingredient_totals %d", len(result.DMBreakdown), len(result.IngredientTotals))
			}
			if result.CalculationID == "" {
				t.Error("calculation_id is empty")
			}
			if result.Totals.Ingredient != nutrition.TotalsLabel {
				t.Errorf("totals label = %q", result.Totals.Ingredient)
			}
		})
	}
}

func TestDietService_Calculate_Totals(t *testing.T) {
	svc := newTestDietService(t, rules.DefaultConfig())

	result, err := svc.Calculate(context.Background(), models.DietRequest{Ingredients: []string{"Beef liver", "Wheat"}})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	wantOrder := []string{"Bone meal", "Iodized salt", "Beef liver", "Wheat"}
	for i, row := range result.IngredientTotals {
		if row.Ingredient != wantOrder[i] {
			t.Errorf("row %d = %q, want %q", i, row.Ingredient, wantOrder[i])
		}
		if row.Fixed != (i < 2) {
			t.Errorf("row %q fixed = %v", row.Ingredient, row.Fixed)
		}
	}

	if result.Totals.DMG != 525 {
		t.Errorf("total dm_g = %v, want 525", result.Totals.DMG)
	}
	wantProtein := 100 * (100 + 52.8) / 525
	if got := result.NutrientPercentages[models.KeyProtein]; math.Abs(got-wantProtein) > 1e-9 {
		t.Errorf("protein_g %% = %v, want %v", got, wantProtein)
	}
	wantRatio := (25.0 + 116 + 6200) / (1935.0 + 1152 + 2900)
	if math.Abs(result.CaPRatio-wantRatio) > 1e-9 {
		t.Errorf("ca_p_ratio = %v, want %v", result.CaPRatio, wantRatio)
	}
}

func TestDietService_Calculate_Unresolved(t *testing.T) {
	svc := newTestDietService(t, rules.DefaultConfig())

	result, err := svc.Calculate(context.Background(), models.DietRequest{Ingredients: []string{"Beef liver", "Dragon fruit", "Wheat"}})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	if len(result.Unresolved) != 1 || result.Unresolved[0].Ingredient != "Dragon fruit" || result.Unresolved[0].Reason != models.ReasonNotFound {
		t.Fatalf("unresolved = %+v", result.Unresolved)
	}
	if len(result.Issues) != 1 || !strings.Contains(result.Issues[0], `"Dragon fruit" was not found`) {
		t.Errorf("issues = %q", result.Issues)
	}
	if len(result.IngredientTotals) != 4 {
		t.Errorf("unresolved ingredient should not produce a row, got %d rows", len(result.IngredientTotals))
	}
	if result.Totals.DMG != 525 {
		t.Errorf("total dm_g = %v, want 525", result.Totals.DMG)
	}
}

func TestDietService_Calculate_InvalidInput(t *testing.T) {
	svc := newTestDietService(t, rules.DefaultConfig())

	tests := []struct {
		name string
		req  models.DietRequest
	}{
		{name: "missing ingredients", req: models.DietRequest{}},
		{name: "empty name", req: models.DietRequest{Ingredients: []string{"Wheat", ""}}},
		{name: "blank name", req: models.DietRequest{Ingredients: []string{"   "}}},
		{name: "name too long", req: models.DietRequest{Ingredients: []string{strings.Repeat("x", 201)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Calculate(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidSelection) {
				t.Fatalf("Calculate() error = %v, want ErrInvalidSelection", err)
			}
			var selErr *SelectionError
			if !errors.As(err, &selErr) || len(selErr.Details) == 0 {
				t.Errorf("expected SelectionError with details, got %v", err)
			}
		})
	}
}

type failingCatalog struct{}

func (failingCatalog) GetByName(context.Context, string) (*models.IngredientProfile, error) {
	return nil, errors.New("connection reset")
}

type failingFixed struct{}

func (failingFixed) ListFixed(context.Context) ([]models.FixedContribution, error) {
	return nil, errors.New("fixed set unreadable")
}

func TestDietService_Calculate_BackendFailure(t *testing.T) {
	opts := nutrition.ResolveOptions{Timeout: time.Second, MaxConcurrent: 2}

	t.Run("catalog failure", func(t *testing.T) {
		svc := NewDietService(failingCatalog{}, testFixedSet(t), rules.DefaultConfig(), opts, nil, discardLogger())
		_, err := svc.Calculate(context.Background(), models.DietRequest{Ingredients: []string{"Wheat"}})
		if !errors.Is(err, ErrCatalogUnavailable) {
			t.Errorf("Calculate() error = %v, want ErrCatalogUnavailable", err)
		}
	})

	t.Run("fixed set failure", func(t *testing.T) {
		svc := NewDietService(testCatalog(t), failingFixed{}, rules.DefaultConfig(), opts, nil, discardLogger())
		_, err := svc.Calculate(context.Background(), models.DietRequest{Ingredients: []string{"Wheat"}})
		if !errors.Is(err, ErrCatalogUnavailable) {
			t.Errorf("Calculate() error = %v, want ErrCatalogUnavailable", err)
		}
	})
}

func TestDietService_Calculate_AutoAddGrain(t *testing.T) {
	cfg := rules.DefaultConfig()
	cfg.AutoAddGrain = "Wheat"
	svc := newTestDietService(t, cfg)

	tests := []struct {
		name          string
		req           models.DietRequest
		wantAutoAdded string
		wantIssues    int
	}{
		{
			name:          "group B alone gets wheat",
			req:           models.DietRequest{Ingredients: []string{"Beef liver", "Oat Bran"}, AutoAddGrain: true},
			wantAutoAdded: "Wheat",
			wantIssues:    0,
		},
		{
			name:          "not requested",
			req:           models.DietRequest{Ingredients: []string{"Beef liver", "Oat Bran"}},
			wantAutoAdded: "",
			wantIssues:    1,
		},
		{
			name:          "group A already present",
			req:           models.DietRequest{Ingredients: []string{"Beef liver", "Oat Bran", "Wheat"}, AutoAddGrain: true},
			wantAutoAdded: "",
			wantIssues:    0,
		},
		{
			name:          "no group B",
			req:           models.DietRequest{Ingredients: []string{"Beef liver", "Carrot"}, AutoAddGrain: true},
			wantAutoAdded: "",
			wantIssues:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Calculate(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if result.AutoAdded != tt.wantAutoAdded {
				t.Errorf("auto_added = %q, want %q", result.AutoAdded, tt.wantAutoAdded)
			}
			if len(result.Issues) != tt.wantIssues {
				t.Errorf("issues = %q, want %d", result.Issues, tt.wantIssues)
			}
			if tt.wantAutoAdded != "" {
				last := result.IngredientTotals[len(result.IngredientTotals)-1]
				if last.Ingredient != tt.wantAutoAdded {
					t.Errorf("last row = %q, want auto-added %q", last.Ingredient, tt.wantAutoAdded)
				}
			}
		})
	}
}

func TestDietService_Calculate_AutoAddIgnoresNonGroupA(t *testing.T) {
	cfg := rules.DefaultConfig()
	cfg.AutoAddGrain = "Carrot"
	svc := newTestDietService(t, cfg)

	result, err := svc.Calculate(context.Background(), models.DietRequest{Ingredients: []string{"Beef liver", "Oat Bran"}, AutoAddGrain: true})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if result.AutoAdded != "" {
		t.Errorf("auto_added = %q, want none", result.AutoAdded)
	}
	if len(result.Issues) != 1 || result.Issues[0] != rules.IssueGrainGroupB {
		t.Errorf("issues = %q", result.Issues)
	}
}

func TestDietService_Calculate_Concurrent(t *testing.T) {
	svc := newTestDietService(t, rules.DefaultConfig())

	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			result, err := svc.Calculate(context.Background(), models.DietRequest{Ingredients: []string{"Beef liver", "Wheat"}})
			if err == nil && result.Totals.DMG != 525 {
				err = errors.New("unexpected totals")
			}
			errs <- err
		}()
	}
	for i := 0; i < 20; i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent Calculate() error = %v", err)
		}
	}
}
