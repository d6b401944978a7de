// Package score rates enriched leads against an ICP bundle. Scoring is
// pure: the same lead and bundle always produce the same score and the
// same breakdown, with no I/O.
package score

import (
	"fmt"
	"strings"

	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/icp"
	"leadgen-engine/internal/query"
)

type Scorer struct {
	filters domain.FilterSpec
	weights icp.Weights
	vacuous bool
}

func New(cfg icp.Config) Scorer {
	return Scorer{
		filters: cfg.Filters,
		weights: cfg.Weights,
		vacuous: cfg.Filters.Empty(),
	}
}

// Score fills FitScore and Breakdown on the lead. The breakdown always
// carries every criterion in its canonical order; the total is clamped to
// [0, 100].
func (s Scorer) Score(l *domain.Lead) {
	total := 0
	breakdown := make([]domain.CriterionScore, 0, len(domain.Criteria))
	for _, c := range domain.Criteria {
		cs := s.evaluate(c, l)
		total += cs.Points
		breakdown = append(breakdown, cs)
	}
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	l.FitScore = total
	l.Breakdown = breakdown
}

// ScoreAll scores a batch and returns a fetch-order-stable descending sort.
func (s Scorer) ScoreAll(leads []domain.Lead) {
	for i := range leads {
		s.Score(&leads[i])
	}
	domain.SortLeadsByScore(leads)
}

func (s Scorer) evaluate(criterion string, l *domain.Lead) domain.CriterionScore {
	cs := domain.CriterionScore{Criterion: criterion}

	switch criterion {
	case domain.CriterionVerifiedEmail:
		if l.EmailVerified {
			cs.Matched, cs.Detail = true, "email verified by source"
		} else {
			cs.Detail = "email not verified"
		}
	case domain.CriterionHasLinkedIn:
		if l.LinkedInURL != "" {
			cs.Matched, cs.Detail = true, "linkedin profile present"
		} else {
			cs.Detail = "no linkedin profile"
		}
	default:
		if s.vacuous {
			// With no criteria at all there is nothing to contradict,
			// but an uncontested match earns nothing either.
			cs.Matched, cs.Detail = true, "no filter criteria to apply"
			return cs
		}
		cs.Matched, cs.Detail = s.matchFilter(criterion, l)
	}

	if cs.Matched {
		cs.Points = s.weights.For(criterion)
	}
	return cs
}

func (s Scorer) matchFilter(criterion string, l *domain.Lead) (bool, string) {
	switch criterion {
	case domain.CriterionTitleMatch:
		if len(s.filters.Titles) == 0 {
			return false, "no title filter"
		}
		if l.Title == "" {
			return false, "lead has no title"
		}
		if pat, ok := s.filters.MatchTitle(l.Title); ok {
			return true, fmt.Sprintf("title %q matches %q", l.Title, pat)
		}
		return false, fmt.Sprintf("title %q matches no filter pattern", l.Title)

	case domain.CriterionSeniorityMatch:
		if len(s.filters.Seniorities) == 0 {
			return false, "no seniority filter"
		}
		eff, inferred := s.effectiveSeniority(l)
		if eff == "" {
			return false, "seniority unknown"
		}
		for _, want := range s.filters.Seniorities {
			if strings.EqualFold(want, eff) {
				if inferred {
					return true, fmt.Sprintf("seniority %s (inferred from title)", eff)
				}
				return true, fmt.Sprintf("seniority %s", eff)
			}
		}
		return false, fmt.Sprintf("seniority %s not targeted", eff)

	case domain.CriterionIndustryMatch:
		if len(s.filters.Industries) == 0 {
			return false, "no industry filter"
		}
		if l.Industry == "" {
			return false, "industry unknown"
		}
		if ind, ok := s.filters.MatchIndustry(l.Industry); ok {
			return true, fmt.Sprintf("industry %q matches %q", l.Industry, ind)
		}
		return false, fmt.Sprintf("industry %q not targeted", l.Industry)

	case domain.CriterionCompanySizeMatch:
		if len(s.filters.CompanySizeRanges) == 0 {
			return false, "no company size filter"
		}
		if l.EmployeeCount <= 0 {
			return false, "company size unknown"
		}
		if r, ok := s.filters.MatchSize(l.EmployeeCount); ok {
			return true, fmt.Sprintf("%d employees within %s", l.EmployeeCount, r)
		}
		return false, fmt.Sprintf("%d employees outside targeted ranges", l.EmployeeCount)

	case domain.CriterionLocationMatch:
		if len(s.filters.Locations) == 0 {
			return false, "no location filter"
		}
		if l.Location == "" {
			return false, "location unknown"
		}
		if loc, ok := s.filters.MatchLocation(l.Location); ok {
			return true, fmt.Sprintf("location matches %q", loc)
		}
		return false, fmt.Sprintf("location %q not targeted", l.Location)
	}
	return false, "unknown criterion"
}

// effectiveSeniority prefers the source-supplied value and falls back to
// inferring one from the title.
func (s Scorer) effectiveSeniority(l *domain.Lead) (string, bool) {
	if domain.KnownSeniority(l.Seniority) {
		return l.Seniority, false
	}
	if inferred := query.InferSeniority(l.Title); inferred != "" {
		return inferred, true
	}
	return "", false
}
