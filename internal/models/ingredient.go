package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidProfile = errors.New("invalid ingredient profile")
)

// IngredientProfile represents one catalog ingredient and its nutrient profile.
// Nutrient amounts are absolute for the item's dry-matter content.
type IngredientProfile struct {
	Name         string  `json:"name" yaml:"name"`
	Group        string  `json:"group" yaml:"group"`
	FreshWeightG float64 `json:"fresh_weight_g" yaml:"fresh_weight_g"`
	WaterPercent float64 `json:"water_percent" yaml:"water_percent"`
	Nutrients    `yaml:",inline"`
}

// Validate checks the catalog invariants of a profile
func (p IngredientProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if !nonNegative(p.FreshWeightG) {
		return fmt.Errorf("%w: %s: fresh_weight_g must be a non-negative number", ErrInvalidProfile, p.Name)
	}
	if !nonNegative(p.WaterPercent) || p.WaterPercent > 100 {
		return fmt.Errorf("%w: %s: water_percent must be between 0 and 100", ErrInvalidProfile, p.Name)
	}
	if key := p.Nutrients.invalid(); key != "" {
		return fmt.Errorf("%w: %s: %s must be a non-negative number", ErrInvalidProfile, p.Name, key)
	}
	if p.DMG > 0 && p.FreshWeightG > 0 && p.DMG > p.FreshWeightG {
		return fmt.Errorf("%w: %s: dm_g %.2f exceeds fresh_weight_g %.2f", ErrInvalidProfile, p.Name, p.DMG, p.FreshWeightG)
	}
	return nil
}

// FixedContribution is a system-mandated ingredient with pre-scaled amounts
type FixedContribution struct {
	Name      string `json:"ingredient" yaml:"name"`
	Fixed     bool   `json:"fixed" yaml:"-"`
	Nutrients `yaml:",inline"`
}

// Validate checks that a fixed contribution is named and non-negative
func (f FixedContribution) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: fixed ingredient name is required", ErrInvalidProfile)
	}
	if key := f.Nutrients.invalid(); key != "" {
		return fmt.Errorf("%w: %s: %s must be a non-negative number", ErrInvalidProfile, f.Name, key)
	}
	return nil
}

// IngredientGroup is one category of the catalog with its ingredient names
type IngredientGroup struct {
	Group       string   `json:"group"`
	Ingredients []string `json:"ingredients"`
}
