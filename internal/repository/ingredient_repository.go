package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
)

var (
	ErrIngredientNotFound = errors.New("ingredient not found")
)

// IngredientRepository defines the interface for ingredient catalog access
type IngredientRepository interface {
	List(ctx context.Context) ([]models.IngredientProfile, error)
	GetByName(ctx context.Context, name string) (*models.IngredientProfile, error)
	Upsert(ctx context.Context, profiles []models.IngredientProfile) (int, error)
}

// FixedIngredientRepository defines the interface for the mandatory ingredient set
type FixedIngredientRepository interface {
	ListFixed(ctx context.Context) ([]models.FixedContribution, error)
}

// InMemoryIngredientRepository implements IngredientRepository with in-memory storage
type InMemoryIngredientRepository struct {
	mu       sync.RWMutex
	profiles map[string]models.IngredientProfile
}

// NewInMemoryIngredientRepository creates a repository holding the given profiles
func NewInMemoryIngredientRepository(profiles []models.IngredientProfile) (*InMemoryIngredientRepository, error) {
	r := &InMemoryIngredientRepository{
		profiles: make(map[string]models.IngredientProfile, len(profiles)),
	}
	if _, err := r.Upsert(context.Background(), profiles); err != nil {
		return nil, err
	}
	return r, nil
}

// NewSeededIngredientRepository creates an in-memory repository with the built-in catalog
func NewSeededIngredientRepository() *InMemoryIngredientRepository {
	r, err := NewInMemoryIngredientRepository(SeedIngredients())
	if err != nil {
		panic(fmt.Sprintf("invalid seed catalog: %v", err))
	}
	return r
}

// List returns all profiles ordered by group then name
func (r *InMemoryIngredientRepository) List(ctx context.Context) ([]models.IngredientProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profiles := make([]models.IngredientProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Group != profiles[j].Group {
			return profiles[i].Group < profiles[j].Group
		}
		return profiles[i].Name < profiles[j].Name
	})
	return profiles, nil
}

// GetByName returns a profile by its exact, case-sensitive name
func (r *InMemoryIngredientRepository) GetByName(ctx context.Context, name string) (*models.IngredientProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, exists := r.profiles[name]
	if !exists {
		return nil, ErrIngredientNotFound
	}
	return &profile, nil
}

// Upsert validates and stores profiles, replacing any with the same name.
// Nothing is stored when any profile is invalid.
func (r *InMemoryIngredientRepository) Upsert(ctx context.Context, profiles []models.IngredientProfile) (int, error) {
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return 0, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range profiles {
		r.profiles[p.Name] = p
	}
	return len(profiles), nil
}

// InMemoryFixedRepository implements FixedIngredientRepository with a static list
type InMemoryFixedRepository struct {
	fixed []models.FixedContribution
}

// NewInMemoryFixedRepository creates a fixed set preserving the given order
func NewInMemoryFixedRepository(fixed []models.FixedContribution) (*InMemoryFixedRepository, error) {
	out := make([]models.FixedContribution, 0, len(fixed))
	for _, f := range fixed {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		f.Fixed = true
		out = append(out, f)
	}
	return &InMemoryFixedRepository{fixed: out}, nil
}

// ListFixed returns a copy of the fixed contributions
func (r *InMemoryFixedRepository) ListFixed(ctx context.Context) ([]models.FixedContribution, error) {
	out := make([]models.FixedContribution, len(r.fixed))
	copy(out, r.fixed)
	return out, nil
}
