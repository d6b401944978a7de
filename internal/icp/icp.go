// Package icp holds named targeting bundles: the filter criteria describing
// an ideal customer profile plus the weight table used to score leads
// against it.
package icp

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"leadgen-engine/internal/domain"
)

// Config is one bundle. Bundles are loaded from YAML files or built in; the
// pipeline treats them as read-only for the duration of a run.
type Config struct {
	Name        string            `yaml:"name" json:"name" validate:"required"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Filters     domain.FilterSpec `yaml:"filters" json:"filters"`
	Weights     Weights           `yaml:"weights" json:"weights"`
}

// Weights assigns points per criterion. A zero weight keeps the criterion in
// the breakdown but contributes nothing.
type Weights struct {
	TitleMatch       int `yaml:"title_match" json:"title_match" validate:"min=0"`
	SeniorityMatch   int `yaml:"seniority_match" json:"seniority_match" validate:"min=0"`
	IndustryMatch    int `yaml:"industry_match" json:"industry_match" validate:"min=0"`
	CompanySizeMatch int `yaml:"company_size_match" json:"company_size_match" validate:"min=0"`
	LocationMatch    int `yaml:"location_match" json:"location_match" validate:"min=0"`
	VerifiedEmail    int `yaml:"verified_email" json:"verified_email" validate:"min=0"`
	HasLinkedIn      int `yaml:"has_linkedin" json:"has_linkedin" validate:"min=0"`
}

func DefaultWeights() Weights {
	return Weights{
		TitleMatch:       25,
		SeniorityMatch:   15,
		IndustryMatch:    20,
		CompanySizeMatch: 15,
		LocationMatch:    10,
		VerifiedEmail:    10,
		HasLinkedIn:      5,
	}
}

// For returns the weight for a criterion name, zero for unknown names.
func (w Weights) For(criterion string) int {
	switch criterion {
	case domain.CriterionTitleMatch:
		return w.TitleMatch
	case domain.CriterionSeniorityMatch:
		return w.SeniorityMatch
	case domain.CriterionIndustryMatch:
		return w.IndustryMatch
	case domain.CriterionCompanySizeMatch:
		return w.CompanySizeMatch
	case domain.CriterionLocationMatch:
		return w.LocationMatch
	case domain.CriterionVerifiedEmail:
		return w.VerifiedEmail
	case domain.CriterionHasLinkedIn:
		return w.HasLinkedIn
	}
	return 0
}

func (w Weights) Total() int {
	total := 0
	for _, c := range domain.Criteria {
		total += w.For(c)
	}
	return total
}

// Normalize trims and dedupes the filter lists so hand-edited bundles
// behave like parsed ones.
func (c Config) Normalize() Config {
	out := c
	out.Name = strings.TrimSpace(out.Name)
	out.Filters.Titles = trimList(out.Filters.Titles)
	out.Filters.Seniorities = trimList(out.Filters.Seniorities)
	out.Filters.Industries = trimList(out.Filters.Industries)
	out.Filters.Locations = trimList(out.Filters.Locations)
	return out
}

// Validate checks the bundle. The error covers hard failures (missing name,
// negative weights); the string slice carries warnings worth logging but not
// failing a run over.
func (c Config) Validate() ([]string, error) {
	if err := validator.New().Struct(c); err != nil {
		return nil, fmt.Errorf("icp bundle %q: %w", c.Name, err)
	}
	var warnings []string
	if total := c.Weights.Total(); total > 100 {
		warnings = append(warnings, fmt.Sprintf("weights sum to %d; scores are clamped at 100", total))
	}
	for _, s := range c.Filters.Seniorities {
		if !domain.KnownSeniority(s) {
			warnings = append(warnings, fmt.Sprintf("unknown seniority %q in filters", s))
		}
	}
	for _, r := range c.Filters.CompanySizeRanges {
		if r.Min < 0 || (r.Max != 0 && r.Max <= r.Min) {
			warnings = append(warnings, fmt.Sprintf("size range %s is empty and will never match", r))
		}
	}
	return warnings, nil
}

// clone detaches the filter slices so callers can union into the copy
// without touching the registry's stored bundle.
func (c Config) clone() Config {
	out := c
	out.Filters.Titles = append([]string(nil), c.Filters.Titles...)
	out.Filters.Seniorities = append([]string(nil), c.Filters.Seniorities...)
	out.Filters.Industries = append([]string(nil), c.Filters.Industries...)
	out.Filters.Locations = append([]string(nil), c.Filters.Locations...)
	out.Filters.CompanySizeRanges = append([]domain.SizeRange(nil), c.Filters.CompanySizeRanges...)
	return out
}

func trimList(xs []string) []string {
	seen := map[string]bool{}
	var ys []string
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		key := strings.ToLower(x)
		if seen[key] {
			continue
		}
		seen[key] = true
		ys = append(ys, x)
	}
	return ys
}
