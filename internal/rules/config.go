package rules

import (
	"fmt"
	"strings"
)

// Liver keyword match modes
const (
	MatchExact    = "exact"
	MatchContains = "contains"
)

// Issue messages emitted by the validator
const (
	IssueGrainGroupB  = "Grain Group B cannot be used alone; at least one Group A grain is required."
	IssueLiverMissing = "Liver is required in the recipe; select a liver ingredient."
)

// Config holds the parameters of every composition rule
type Config struct {
	GrainGroupA   []string `mapstructure:"grain_group_a"`
	GrainGroupB   []string `mapstructure:"grain_group_b"`
	LiverKeywords []string `mapstructure:"liver_keywords"`
	LiverMatch    string   `mapstructure:"liver_match"`

	// AutoAddGrain is the Group A ingredient injected when a caller opts in
	// and only Group B grains were selected. Empty disables the policy.
	AutoAddGrain string `mapstructure:"auto_add_grain"`
}

// DefaultConfig returns the rule parameters used when nothing is configured
func DefaultConfig() Config {
	return Config{
		GrainGroupA:   []string{"Grain Group A", "Grain A"},
		GrainGroupB:   []string{"Grain Group B", "Grain B"},
		LiverKeywords: []string{"liver", "beef liver", "chicken liver", "pork liver", "liver raw"},
		LiverMatch:    MatchExact,
	}
}

// Validate checks that every rule has something to match against
func (c Config) Validate() error {
	if len(nonBlank(c.GrainGroupA)) == 0 {
		return fmt.Errorf("at least one grain group A label is required")
	}
	if len(nonBlank(c.GrainGroupB)) == 0 {
		return fmt.Errorf("at least one grain group B label is required")
	}
	if len(nonBlank(c.LiverKeywords)) == 0 {
		return fmt.Errorf("at least one liver keyword is required")
	}
	switch strings.ToLower(c.LiverMatch) {
	case MatchExact, MatchContains:
	default:
		return fmt.Errorf("invalid liver match mode: %s (must be exact or contains)", c.LiverMatch)
	}
	return nil
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// normalize lowercases and trims labels into a lookup set
func normalize(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range nonBlank(values) {
		set[fold(v)] = true
	}
	return set
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
