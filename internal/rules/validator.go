package rules

import (
	"strings"
)

// Item is a selected ingredient as seen by the validator.
// Group is empty when the ingredient could not be resolved.
type Item struct {
	Name  string
	Group string
}

// Validator checks a selection against the composition rules.
// It holds only read-only lookup sets and is safe for concurrent use.
type Validator struct {
	groupA        map[string]bool
	groupB        map[string]bool
	liverKeywords []string
	liverExact    map[string]bool
	contains      bool
}

// rule is a single independent composition check
type rule func(v *Validator, items []Item) (string, bool)

var ruleSet = []rule{
	checkGrainDependency,
	checkLiver,
}

// NewValidator creates a validator from the rule configuration
func NewValidator(cfg Config) *Validator {
	keywords := make([]string, 0, len(cfg.LiverKeywords))
	for _, k := range nonBlank(cfg.LiverKeywords) {
		keywords = append(keywords, fold(k))
	}

	return &Validator{
		groupA:        normalize(cfg.GrainGroupA),
		groupB:        normalize(cfg.GrainGroupB),
		liverKeywords: keywords,
		liverExact:    normalize(cfg.LiverKeywords),
		contains:      strings.EqualFold(cfg.LiverMatch, MatchContains),
	}
}

// Validate runs every rule and returns one issue per violated rule.
// All rules run even when an earlier one fails; items are not modified.
func (v *Validator) Validate(items []Item) []string {
	issues := make([]string, 0, len(ruleSet))
	for _, check := range ruleSet {
		if issue, violated := check(v, items); violated {
			issues = append(issues, issue)
		}
	}
	return issues
}

// IsGroupA reports whether a group label belongs to Grain Group A
func (v *Validator) IsGroupA(group string) bool {
	return v.groupA[fold(group)]
}

// IsGroupB reports whether a group label belongs to Grain Group B
func (v *Validator) IsGroupB(group string) bool {
	return v.groupB[fold(group)]
}

// IsLiver reports whether an ingredient name matches a liver keyword
func (v *Validator) IsLiver(name string) bool {
	n := fold(name)
	if v.liverExact[n] {
		return true
	}
	if !v.contains {
		return false
	}
	for _, k := range v.liverKeywords {
		if strings.Contains(n, k) {
			return true
		}
	}
	return false
}

// NeedsGroupA reports whether a Group B grain is present without any Group A grain
func (v *Validator) NeedsGroupA(items []Item) bool {
	hasA, hasB := false, false
	for _, it := range items {
		if v.IsGroupA(it.Group) {
			hasA = true
		}
		if v.IsGroupB(it.Group) {
			hasB = true
		}
	}
	return hasB && !hasA
}

func checkGrainDependency(v *Validator, items []Item) (string, bool) {
	if v.NeedsGroupA(items) {
		return IssueGrainGroupB, true
	}
	return "", false
}

func checkLiver(v *Validator, items []Item) (string, bool) {
	for _, it := range items {
		if v.IsLiver(it.Name) {
			return "", false
		}
	}
	return IssueLiverMissing, true
}
