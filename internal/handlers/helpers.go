package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/repository"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/service"
)

const maxJSONBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// decodeJSON reads exactly one JSON document from the request body
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON document", errInvalidBody)
	}
	return nil
}

// writeServiceError maps service and repository errors to HTTP responses
func writeServiceError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var selErr *service.SelectionError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &selErr):
		WriteErrorDetails(w, http.StatusBadRequest, "Invalid ingredient selection", selErr.Details, logger)
	case errors.As(err, &maxErr):
		WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large", logger)
	case errors.Is(err, errInvalidBody):
		WriteErrorDetails(w, http.StatusBadRequest, "Invalid request body", []string{err.Error()}, logger)
	case errors.Is(err, service.ErrInvalidImport):
		WriteErrorDetails(w, http.StatusBadRequest, "Invalid catalog workbook", []string{err.Error()}, logger)
	case errors.Is(err, repository.ErrIngredientNotFound):
		WriteError(w, http.StatusNotFound, "Ingredient not found", logger)
	case errors.Is(err, service.ErrCatalogUnavailable):
		logger.Error("catalog unavailable", "error", err)
		WriteError(w, http.StatusServiceUnavailable, "Ingredient catalog unavailable", logger)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request timed out", "error", err)
		WriteError(w, http.StatusGatewayTimeout, "Request timed out", logger)
	default:
		logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", logger)
	}
}
