package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DietHandler handles diet calculation HTTP requests
type DietHandler struct {
	service *service.DietService
	log     *slog.Logger
}

// NewDietHandler creates a new diet handler
func NewDietHandler(service *service.DietService, log *slog.Logger) *DietHandler {
	return &DietHandler{
		service: service,
		log:     log,
	}
}

// Calculate handles POST /api/diet/calculate
func (h *DietHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	result, ok := h.calculate(w, r)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, result, h.log)
	h.log.Info("diet calculated",
		"calculation_id", result.CalculationID,
		"ingredients", len(result.IngredientTotals),
		"issues", len(result.Issues),
	)
}

// Export handles POST /api/diet/export and returns the result as a workbook
func (h *DietHandler) Export(w http.ResponseWriter, r *http.Request) {
	result, ok := h.calculate(w, r)
	if !ok {
		return
	}

	f, err := buildWorkbook(result)
	if err != nil {
		h.log.Error("failed to build workbook", "calculation_id", result.CalculationID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="diet-%s.xlsx"`, result.CalculationID))
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		h.log.Error("failed to write workbook", "calculation_id", result.CalculationID, "error", err)
		return
	}
	h.log.Info("diet exported", "calculation_id", result.CalculationID)
}

func (h *DietHandler) calculate(w http.ResponseWriter, r *http.Request) (*models.DietResult, bool) {
	var req models.DietRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log.Warn("failed to decode diet request", "error", err)
		writeServiceError(w, err, h.log)
		return nil, false
	}

	result, err := h.service.Calculate(r.Context(), req)
	if err != nil {
		h.log.Warn("diet calculation failed", "error", err)
		writeServiceError(w, err, h.log)
		return nil, false
	}
	return result, true
}
