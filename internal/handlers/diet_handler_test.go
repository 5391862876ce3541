package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/nutrition"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/repository"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/rules"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/service"
	"github.com/Lixing-Zhang/dog-diet/backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
)

func testLogger() *slog.Logger {
	return logger.NewWithWriter(io.Discard, "info")
}

func seededFixed(t *testing.T) *repository.InMemoryFixedRepository {
	t.Helper()
	fixed, err := repository.NewInMemoryFixedRepository(repository.SeedFixedIngredients())
	if err != nil {
		t.Fatalf("seed fixed set: %v", err)
	}
	return fixed
}

func newDietRouter(t *testing.T) http.Handler {
	t.Helper()
	log := testLogger()
	svc := service.NewDietService(
		repository.NewSeededIngredientRepository(),
		seededFixed(t),
		rules.DefaultConfig(),
		nutrition.ResolveOptions{Timeout: time.Second, MaxConcurrent: 4},
		nil,
		log,
	)
	handler := NewDietHandler(svc, log)

	r := chi.NewRouter()
	r.Post("/api/diet/calculate", handler.Calculate)
	r.Post("/api/diet/export", handler.Export)
	return r
}

func TestDietHandler_Calculate(t *testing.T) {
	router := newDietRouter(t)
	fixedCount := len(repository.SeedFixedIngredients())

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		checkResponse  func(*testing.T, *models.DietResult)
	}{
		{
			name:           "valid diet",
			body:           `{"ingredients": ["Beef liver", "Wheat"]}`,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, res *models.DietResult) {
				if len(res.Issues) != 0 {
					t.Errorf("expected no issues, got %q", res.Issues)
				}
				if len(res.IngredientTotals) != fixedCount+2 {
					t.Errorf("expected %d rows, got %d", fixedCount+2, len(res.IngredientTotals))
				}
				if res.CalculationID == "" {
					t.Error("calculation_id is empty")
				}
			},
		},
		{
			name:           "rule violations are still a 200",
			body:           `{"ingredients": ["Oat Bran"]}`,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, res *models.DietResult) {
				want := []string{rules.IssueGrainGroupB, rules.IssueLiverMissing}
				if strings.Join(res.Issues, "|") != strings.Join(want, "|") {
					t.Errorf("issues = %q, want %q", res.Issues, want)
				}
			},
		},
		{
			name:           "unknown ingredient is reported",
			body:           `{"ingredients": ["Beef liver", "Wheat", "Dragon fruit"]}`,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, res *models.DietResult) {
				if len(res.Unresolved) != 1 || res.Unresolved[0].Ingredient != "Dragon fruit" {
					t.Errorf("unresolved = %+v", res.Unresolved)
				}
			},
		},
		{
			name:           "malformed JSON",
			body:           `{"ingredients": [`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "ingredients not strings",
			body:           `{"ingredients": [1, 2]}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing ingredients",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "trailing data",
			body:           `{"ingredients": []} {"ingredients": []}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/diet/calculate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			if tt.expectedStatus != http.StatusOK {
				var errResp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
					t.Fatalf("failed to decode error response: %v", err)
				}
				if errResp.Error == "" {
					t.Error("error message is empty")
				}
				return
			}

			var res models.DietResult
			if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, &res)
			}
		})
	}
}

func TestDietHandler_Calculate_ResponseShape(t *testing.T) {
	router := newDietRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/diet/calculate", strings.NewReader(`{"ingredients": []}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"issues", "dm_breakdown", "ingredient_totals", "nutrient_percentages", "totals", "unresolved", "calculation_id", "ca_p_ratio"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
	if _, ok := raw["auto_added"]; ok {
		t.Error("auto_added should be omitted when nothing was added")
	}
	if string(raw["unresolved"]) != "[]" {
		t.Errorf("unresolved = %s, want []", raw["unresolved"])
	}
}

func TestDietHandler_Export(t *testing.T) {
	router := newDietRouter(t)

	body := bytes.NewBufferString(`{"ingredients": ["Beef liver", "Oat Bran"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/diet/export", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("response is not a workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	want := []string{SheetBreakdown, SheetTotals, SheetPercentages, SheetIssues}
	if strings.Join(sheets, ",") != strings.Join(want, ",") {
		t.Errorf("sheets = %v, want %v", sheets, want)
	}

	issues, err := f.GetRows(SheetIssues)
	if err != nil {
		t.Fatalf("read issues: %v", err)
	}
	if len(issues) != 2 || issues[1][0] != rules.IssueGrainGroupB {
		t.Errorf("issues sheet = %v", issues)
	}

	totals, err := f.GetRows(SheetTotals)
	if err != nil {
		t.Fatalf("read totals: %v", err)
	}
	last := totals[len(totals)-1]
	if last[0] != nutrition.TotalsLabel {
		t.Errorf("last totals row = %v, want %s row", last, nutrition.TotalsLabel)
	}
}

func TestDietHandler_Export_InvalidInput(t *testing.T) {
	router := newDietRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/diet/export", strings.NewReader(`{"ingredients": [""]}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(errResp.Details) == 0 {
		t.Error("expected validation details")
	}
}
