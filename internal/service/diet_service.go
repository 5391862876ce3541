package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/metrics"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/nutrition"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/repository"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/rules"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrInvalidSelection   = errors.New("invalid ingredient selection")
	ErrCatalogUnavailable = errors.New("ingredient catalog unavailable")
)

// SelectionError describes why a request was rejected before any calculation ran
type SelectionError struct {
	Details []string
}

func (e *SelectionError) Error() string {
	if len(e.Details) == 0 {
		return ErrInvalidSelection.Error()
	}
	return ErrInvalidSelection.Error() + ": " + strings.Join(e.Details, "; ")
}

func (e *SelectionError) Unwrap() error {
	return ErrInvalidSelection
}

// FixedSource provides the fixed contributions added to every diet
type FixedSource interface {
	ListFixed(ctx context.Context) ([]models.FixedContribution, error)
}

// DietService validates a selection and computes its nutrient totals
type DietService struct {
	catalog   nutrition.Catalog
	fixed     FixedSource
	rules     *rules.Validator
	autoAdd   string
	resolve   nutrition.ResolveOptions
	validate  *validator.Validate
	metrics   *metrics.Metrics
	logger    *slog.Logger
	newCalcID func() string
}

// NewDietService creates a new diet service
func NewDietService(
	catalog nutrition.Catalog,
	fixed FixedSource,
	rulesCfg rules.Config,
	opts nutrition.ResolveOptions,
	m *metrics.Metrics,
	logger *slog.Logger,
) *DietService {
	return &DietService{
		catalog:   catalog,
		fixed:     fixed,
		rules:     rules.NewValidator(rulesCfg),
		autoAdd:   strings.TrimSpace(rulesCfg.AutoAddGrain),
		resolve:   opts,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		metrics:   m,
		logger:    logger,
		newCalcID: func() string { return uuid.New().String() },
	}
}

// Calculate runs validation and aggregation for one selection.
// Rule violations and unresolved ingredients are reported in the result;
// an error means the request could not be processed at all.
func (s *DietService) Calculate(ctx context.Context, req models.DietRequest) (*models.DietResult, error) {
	start := time.Now()
	ctx, span := tracing.Tracer().Start(ctx, "diet.calculate")
	defer span.End()

	result, err := s.calculate(ctx, req)
	s.metrics.ObserveCalculation(outcome(result, err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("calculation.id", result.CalculationID),
		attribute.Int("diet.issues", len(result.Issues)),
		attribute.Int("diet.unresolved", len(result.Unresolved)),
	)
	return result, nil
}

func (s *DietService) calculate(ctx context.Context, req models.DietRequest) (*models.DietResult, error) {
	names, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	fixed, err := s.fixed.ListFixed(ctx)
	if err != nil {
		s.logger.Error("failed to load fixed ingredients", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	resolution, err := s.resolveSelection(ctx, names)
	if err != nil {
		return nil, err
	}

	profiles := resolution.Profiles
	var autoAdded string
	if req.AutoAddGrain {
		profiles, autoAdded = s.addGroupAGrain(ctx, names, profiles)
	}

	items := make([]rules.Item, 0, len(profiles)+len(resolution.Unresolved))
	for _, p := range profiles {
		items = append(items, rules.Item{Name: p.Name, Group: p.Group})
	}
	for _, u := range resolution.Unresolved {
		items = append(items, rules.Item{Name: u.Ingredient})
	}
	issues := s.rules.Validate(items)
	for _, issue := range issues {
		s.metrics.Issue(issueCode(issue))
	}

	_, aggSpan := tracing.Tracer().Start(ctx, "diet.aggregate")
	agg := nutrition.Aggregate(profiles, fixed)
	aggSpan.End()

	for _, u := range resolution.Unresolved {
		s.logger.Warn("ingredient excluded from totals", "ingredient", u.Ingredient, "reason", u.Reason)
		s.metrics.Unresolved(u.Reason)
		issues = append(issues, unresolvedIssue(u))
	}

	result := nutrition.Assemble(nutrition.AssembleInput{
		Issues:      issues,
		Selected:    agg.Selected,
		Fixed:       agg.Fixed,
		Totals:      agg.Totals,
		Percentages: agg.Percentages,
		Unresolved:  resolution.Unresolved,
		AutoAdded:   autoAdded,
	})
	result.CalculationID = s.newCalcID()

	s.logger.Debug("diet calculated",
		"calculation_id", result.CalculationID,
		"selected", len(names),
		"issues", len(result.Issues),
		"dm_g", result.Totals.DMG,
	)
	return &result, nil
}

// normalize checks the request shape, trims names and collapses duplicates
// keeping the first occurrence
func (s *DietService) normalize(req models.DietRequest) ([]string, error) {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return nil, &SelectionError{Details: details}
		}
		return nil, &SelectionError{Details: []string{err.Error()}}
	}

	seen := make(map[string]bool, len(req.Ingredients))
	names := make([]string, 0, len(req.Ingredients))
	for i, raw := range req.Ingredients {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, &SelectionError{Details: []string{fmt.Sprintf("ingredients[%d] is blank", i)}}
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

func (s *DietService) resolveSelection(ctx context.Context, names []string) (nutrition.Resolution, error) {
	ctx, span := tracing.Tracer().Start(ctx, "diet.resolve")
	defer span.End()
	span.SetAttributes(attribute.Int("diet.selected", len(names)))

	res, err := nutrition.Resolve(ctx, s.catalog, names, s.resolve)
	if err != nil {
		span.RecordError(err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nutrition.Resolution{}, ctxErr
		}
		s.logger.Error("catalog lookup failed", "error", err)
		return nutrition.Resolution{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return res, nil
}

// addGroupAGrain injects the configured Group A grain when a Group B grain
// was selected without one. Any failure leaves the selection unchanged.
func (s *DietService) addGroupAGrain(ctx context.Context, names []string, profiles []models.IngredientProfile) ([]models.IngredientProfile, string) {
	if s.autoAdd == "" {
		return profiles, ""
	}

	items := make([]rules.Item, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, rules.Item{Name: p.Name, Group: p.Group})
	}
	if !s.rules.NeedsGroupA(items) {
		return profiles, ""
	}
	for _, n := range names {
		if n == s.autoAdd {
			return profiles, ""
		}
	}

	res, err := nutrition.Resolve(ctx, s.catalog, []string{s.autoAdd}, s.resolve)
	if err != nil || len(res.Profiles) != 1 {
		s.logger.Warn("auto-add grain unavailable", "ingredient", s.autoAdd, "error", err)
		return profiles, ""
	}

	grain := res.Profiles[0]
	if !s.rules.IsGroupA(grain.Group) {
		s.logger.Warn("auto-add grain is not a Group A grain", "ingredient", grain.Name, "group", grain.Group)
		return profiles, ""
	}

	out := make([]models.IngredientProfile, 0, len(profiles)+1)
	out = append(out, profiles...)
	out = append(out, grain)
	s.logger.Debug("added Group A grain", "ingredient", grain.Name)
	return out, grain.Name
}

func unresolvedIssue(u models.UnresolvedIngredient) string {
	if u.Reason == models.ReasonTimeout {
		return fmt.Sprintf("Ingredient %q lookup timed out; it was excluded from the totals.", u.Ingredient)
	}
	return fmt.Sprintf("Ingredient %q was not found in the catalog; it was excluded from the totals.", u.Ingredient)
}

func issueCode(issue string) string {
	switch issue {
	case rules.IssueGrainGroupB:
		return "grain_group_b_alone"
	case rules.IssueLiverMissing:
		return "liver_missing"
	default:
		return "other"
	}
}

func outcome(result *models.DietResult, err error) string {
	switch {
	case errors.Is(err, ErrInvalidSelection):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrCatalogUnavailable):
		return metrics.OutcomeUnavailable
	case err != nil:
		return metrics.OutcomeInternalFail
	case len(result.Issues) > 0:
		return metrics.OutcomeWithIssues
	default:
		return metrics.OutcomeOK
	}
}

// compile-time check that the repository satisfies the catalog contract
var _ nutrition.Catalog = (repository.IngredientRepository)(nil)
