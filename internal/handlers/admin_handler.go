package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/service"
)

// AdminHandler handles catalog maintenance HTTP requests
type AdminHandler struct {
	service        *service.CatalogService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(service *service.CatalogService, maxUploadBytes int64, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ImportResponse reports how many profiles an import wrote
type ImportResponse struct {
	Imported int `json:"imported"`
}

// ImportCatalog handles POST /api/admin/catalog/import
// Expects a multipart form with the workbook in "file" and an optional "sheet" name
func (h *AdminHandler) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		if r.ContentLength > h.maxUploadBytes {
			WriteError(w, http.StatusRequestEntityTooLarge, "Workbook too large", h.logger)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Workbook too large", h.logger)
			return
		}
		h.logger.Warn("invalid import form", "error", err)
		WriteError(w, http.StatusBadRequest, "Expected multipart form with a workbook file", h.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing workbook file", h.logger)
		return
	}
	defer file.Close()

	n, err := h.service.Import(r.Context(), file, r.FormValue("sheet"))
	if err != nil {
		h.logger.Warn("catalog import rejected", "filename", header.Filename, "error", err)
		writeServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("catalog import completed", "filename", header.Filename, "imported", n)
	WriteJSON(w, http.StatusOK, ImportResponse{Imported: n}, h.logger)
}
