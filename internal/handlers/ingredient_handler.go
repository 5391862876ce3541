package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// IngredientHandler handles catalog browsing HTTP requests
type IngredientHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewIngredientHandler creates a new ingredient handler
func NewIngredientHandler(service *service.CatalogService, logger *slog.Logger) *IngredientHandler {
	return &IngredientHandler{
		service: service,
		logger:  logger,
	}
}

// ListGrouped handles GET /api/ingredients
// Returns ingredient names grouped by category
func (h *IngredientHandler) ListGrouped(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListGrouped(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, groups, h.logger)
}

// Get handles GET /api/ingredients/{name}
// - 200: ingredient profile
// - 400: blank name
// - 404: ingredient not found
func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	if strings.TrimSpace(name) == "" {
		h.logger.Warn("ingredient name is required")
		WriteError(w, http.StatusBadRequest, "Ingredient name is required", h.logger)
		return
	}

	profile, err := h.service.Get(r.Context(), name)
	if err != nil {
		h.logger.Info("ingredient lookup failed", "name", name, "error", err)
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, profile, h.logger)
}

// ListFixed handles GET /api/fixed-ingredients
func (h *IngredientHandler) ListFixed(w http.ResponseWriter, r *http.Request) {
	fixed, err := h.service.ListFixed(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, fixed, h.logger)
}
