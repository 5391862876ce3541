package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/importer"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/metrics"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/repository"
)

var ErrInvalidImport = errors.New("invalid catalog import")

// CatalogService handles business logic for the ingredient catalog
type CatalogService struct {
	repo    repository.IngredientRepository
	fixed   FixedSource
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo repository.IngredientRepository, fixed FixedSource, m *metrics.Metrics, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:    repo,
		fixed:   fixed,
		metrics: m,
		logger:  logger,
	}
}

// ListGrouped returns ingredient names grouped by category, both sorted by name
func (s *CatalogService) ListGrouped(ctx context.Context) ([]models.IngredientGroup, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	groups := make([]models.IngredientGroup, 0)
	for _, p := range profiles {
		if n := len(groups); n > 0 && groups[n-1].Group == p.Group {
			groups[n-1].Ingredients = append(groups[n-1].Ingredients, p.Name)
			continue
		}
		groups = append(groups, models.IngredientGroup{Group: p.Group, Ingredients: []string{p.Name}})
	}
	return groups, nil
}

// Get returns one ingredient profile by exact name
func (s *CatalogService) Get(ctx context.Context, name string) (*models.IngredientProfile, error) {
	p, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, repository.ErrIngredientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return p, nil
}

// ListFixed returns the fixed contributions added to every diet
func (s *CatalogService) ListFixed(ctx context.Context) ([]models.FixedContribution, error) {
	fixed, err := s.fixed.ListFixed(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return fixed, nil
}

// Import parses an ingredient workbook and upserts every profile in it.
// The whole workbook is rejected when any row is invalid.
func (s *CatalogService) Import(ctx context.Context, r io.Reader, sheet string) (int, error) {
	profiles, err := importer.ParseIngredients(r, sheet)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if len(profiles) == 0 {
		return 0, fmt.Errorf("%w: workbook contains no ingredients", ErrInvalidImport)
	}

	n, err := s.repo.Upsert(ctx, profiles)
	if err != nil {
		if errors.Is(err, models.ErrInvalidProfile) {
			return 0, fmt.Errorf("%w: %w", ErrInvalidImport, err)
		}
		s.logger.Error("catalog import failed", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	s.metrics.Imported(n)
	s.logger.Info("catalog imported", "profiles", n)
	return n, nil
}
