package nutrition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/repository"
	"golang.org/x/sync/errgroup"
)

// Catalog resolves ingredient names to profiles
type Catalog interface {
	GetByName(ctx context.Context, name string) (*models.IngredientProfile, error)
}

// ResolveOptions bounds catalog lookups
type ResolveOptions struct {
	// Timeout applies to each lookup; zero means no per-lookup deadline.
	Timeout       time.Duration
	MaxConcurrent int
}

// Resolution holds resolved profiles in selection order plus the names that
// could not be resolved
type Resolution struct {
	Profiles   []models.IngredientProfile
	Unresolved []models.UnresolvedIngredient
}

// lookupResult is the outcome of resolving a single name
type lookupResult struct {
	profile *models.IngredientProfile
	reason  string
}

// Resolve looks up every name concurrently. A missing or timed-out name is
// recorded as unresolved and skipped; any other catalog error aborts.
func Resolve(ctx context.Context, catalog Catalog, names []string, opts ResolveOptions) (Resolution, error) {
	results := make([]lookupResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	if opts.MaxConcurrent > 0 {
		g.SetLimit(opts.MaxConcurrent)
	}

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			lctx := gctx
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				lctx, cancel = context.WithTimeout(gctx, opts.Timeout)
				defer cancel()
			}

			profile, err := catalog.GetByName(lctx, name)
			switch {
			case err == nil && profile != nil:
				results[i] = lookupResult{profile: profile}
			case err == nil, errors.Is(err, repository.ErrIngredientNotFound):
				results[i] = lookupResult{reason: models.ReasonNotFound}
			case errors.Is(err, context.DeadlineExceeded) && gctx.Err() == nil:
				results[i] = lookupResult{reason: models.ReasonTimeout}
			default:
				return fmt.Errorf("resolve %q: %w", name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Resolution{}, err
	}

	res := Resolution{
		Profiles:   make([]models.IngredientProfile, 0, len(names)),
		Unresolved: make([]models.UnresolvedIngredient, 0),
	}
	for i, r := range results {
		if r.profile != nil {
			res.Profiles = append(res.Profiles, *r.profile)
			continue
		}
		res.Unresolved = append(res.Unresolved, models.UnresolvedIngredient{
			Ingredient: names[i],
			Reason:     r.reason,
		})
	}
	return res, nil
}
