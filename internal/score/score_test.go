package score

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/icp"
	"leadgen-engine/internal/query"
	"leadgen-engine/internal/source/mock"
)

func saasCTOBundle() icp.Config {
	return icp.Config{
		Name: "test",
		Filters: domain.FilterSpec{
			Titles:            []string{"CTO*"},
			Seniorities:       []string{"c_suite"},
			Industries:        []string{"SaaS"},
			CompanySizeRanges: []domain.SizeRange{{Min: 1, Max: 50}},
		},
		Weights: icp.DefaultWeights(),
	}
}

func fitLead() domain.Lead {
	return domain.Lead{
		Email:         "jo@acmelabs.io",
		Title:         "CTO",
		Seniority:     "c_suite",
		Company:       "Acme Labs",
		Industry:      "SaaS",
		EmployeeCount: 20,
		Location:      "Boise",
		EmailVerified: true,
		LinkedInURL:   "https://linkedin.com/in/jo",
	}
}

func criterionFor(t *testing.T, l domain.Lead, name string) domain.CriterionScore {
	t.Helper()
	for _, cs := range l.Breakdown {
		if cs.Criterion == name {
			return cs
		}
	}
	t.Fatalf("criterion %s missing from breakdown", name)
	return domain.CriterionScore{}
}

func TestScorePerfectFit(t *testing.T) {
	s := New(saasCTOBundle())
	l := fitLead()
	s.Score(&l)

	// 25 title + 15 seniority + 20 industry + 15 size + 10 verified + 5
	// linkedin. No location filter, so that weight is never in play.
	assert.Equal(t, 90, l.FitScore)

	require.Len(t, l.Breakdown, len(domain.Criteria))
	for i, cs := range l.Breakdown {
		assert.Equal(t, domain.Criteria[i], cs.Criterion, "breakdown order")
	}
	sum := 0
	for _, cs := range l.Breakdown {
		sum += cs.Points
	}
	assert.Equal(t, l.FitScore, sum)
	assert.False(t, criterionFor(t, l, domain.CriterionLocationMatch).Matched)
	assert.Equal(t, "no location filter", criterionFor(t, l, domain.CriterionLocationMatch).Detail)
}

func TestScoreDeterministic(t *testing.T) {
	s := New(saasCTOBundle())
	a, b := fitLead(), fitLead()
	s.Score(&a)
	s.Score(&b)
	assert.Equal(t, a.FitScore, b.FitScore)
	assert.Equal(t, a.Breakdown, b.Breakdown)

	// Rescoring the same lead is idempotent.
	s.Score(&a)
	assert.Equal(t, b.FitScore, a.FitScore)
	assert.Equal(t, b.Breakdown, a.Breakdown)
}

func TestScoreClampsAtHundred(t *testing.T) {
	cfg := saasCTOBundle()
	cfg.Weights = icp.Weights{
		TitleMatch:       40,
		SeniorityMatch:   40,
		IndustryMatch:    40,
		CompanySizeMatch: 40,
		VerifiedEmail:    40,
		HasLinkedIn:      40,
	}
	l := fitLead()
	New(cfg).Score(&l)
	assert.Equal(t, 100, l.FitScore)
}

func TestScoreVacuousSpec(t *testing.T) {
	cfg := icp.Config{Name: "empty", Weights: icp.DefaultWeights()}
	s := New(cfg)

	l := fitLead()
	s.Score(&l)

	// Filter criteria match vacuously but award nothing; only the two
	// data-quality criteria can contribute.
	for _, name := range []string{
		domain.CriterionTitleMatch,
		domain.CriterionSeniorityMatch,
		domain.CriterionIndustryMatch,
		domain.CriterionCompanySizeMatch,
		domain.CriterionLocationMatch,
	} {
		cs := criterionFor(t, l, name)
		assert.True(t, cs.Matched, name)
		assert.Zero(t, cs.Points, name)
	}
	assert.Equal(t, 15, l.FitScore)
	assert.True(t, criterionFor(t, l, domain.CriterionVerifiedEmail).Matched)
	assert.True(t, criterionFor(t, l, domain.CriterionHasLinkedIn).Matched)

	bare := domain.Lead{Email: "x@y.io", Title: "CTO"}
	s.Score(&bare)
	assert.Zero(t, bare.FitScore)
}

func TestScoreEmptyFieldIsNotVacuous(t *testing.T) {
	// One populated filter field keeps the filter spec non-empty, so the
	// other criteria fail rather than match vacuously.
	cfg := icp.Config{
		Name:    "titles-only",
		Filters: domain.FilterSpec{Titles: []string{"CTO*"}},
		Weights: icp.DefaultWeights(),
	}
	l := fitLead()
	New(cfg).Score(&l)

	assert.True(t, criterionFor(t, l, domain.CriterionTitleMatch).Matched)
	for _, name := range []string{
		domain.CriterionSeniorityMatch,
		domain.CriterionIndustryMatch,
		domain.CriterionCompanySizeMatch,
		domain.CriterionLocationMatch,
	} {
		cs := criterionFor(t, l, name)
		assert.False(t, cs.Matched, name)
		assert.Zero(t, cs.Points, name)
	}
	// 25 title + 10 verified + 5 linkedin.
	assert.Equal(t, 40, l.FitScore)
}

func TestScoreSeniorityInference(t *testing.T) {
	s := New(saasCTOBundle())

	inferred := fitLead()
	inferred.Seniority = ""
	s.Score(&inferred)
	cs := criterionFor(t, inferred, domain.CriterionSeniorityMatch)
	assert.True(t, cs.Matched)
	assert.Contains(t, cs.Detail, "inferred")

	// A known source-supplied value wins over the title even when the
	// title would infer a match.
	sourced := fitLead()
	sourced.Seniority = "vp"
	s.Score(&sourced)
	cs = criterionFor(t, sourced, domain.CriterionSeniorityMatch)
	assert.False(t, cs.Matched)
	assert.Contains(t, cs.Detail, "vp")
}

func TestScoreUnknownCompanySize(t *testing.T) {
	s := New(saasCTOBundle())
	l := fitLead()
	l.EmployeeCount = 0
	s.Score(&l)
	cs := criterionFor(t, l, domain.CriterionCompanySizeMatch)
	assert.False(t, cs.Matched)
	assert.Equal(t, "company size unknown", cs.Detail)
}

func TestScoreMissingTitle(t *testing.T) {
	s := New(saasCTOBundle())
	l := fitLead()
	l.Title = ""
	l.Seniority = "c_suite"
	s.Score(&l)
	assert.False(t, criterionFor(t, l, domain.CriterionTitleMatch).Matched)
	// Seniority still matches from the source-supplied value.
	assert.True(t, criterionFor(t, l, domain.CriterionSeniorityMatch).Matched)
}

func TestScoreAllSortsDescending(t *testing.T) {
	s := New(saasCTOBundle())
	leads := []domain.Lead{
		{Email: "low@x.io", Title: "Accountant"},
		fitLead(),
		{Email: "mid@x.io", Title: "CTO", Industry: "SaaS"},
	}
	s.ScoreAll(leads)
	for i := 1; i < len(leads); i++ {
		assert.GreaterOrEqual(t, leads[i-1].FitScore, leads[i].FitScore)
	}
	assert.Equal(t, "jo@acmelabs.io", leads[0].Email)
}

func TestScoreMockedSaaSQueryClearsSixty(t *testing.T) {
	spec := query.Parse("Find CTOs at SaaS startups")
	leads, _, err := mock.New().Fetch(context.Background(), spec, 10)
	require.NoError(t, err)
	require.Len(t, leads, 10)

	s := New(icp.Config{Name: "default", Filters: spec, Weights: icp.DefaultWeights()})
	for i := range leads {
		s.Score(&leads[i])
		assert.GreaterOrEqual(t, leads[i].FitScore, 60, "lead %s", leads[i].Email)
	}
}
