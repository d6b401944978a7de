package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgen-engine/internal/domain"
)

func TestFetchDeterministic(t *testing.T) {
	g := New()
	spec := domain.FilterSpec{Titles: []string{"CTO*"}, Industries: []string{"SaaS"}}

	a, _, err := g.Fetch(context.Background(), spec, 25)
	require.NoError(t, err)
	b, _, err := g.Fetch(context.Background(), spec, 25)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFetchSatisfiesSpec(t *testing.T) {
	g := New()
	spec := domain.FilterSpec{
		Titles:            []string{"CTO*"},
		Seniorities:       []string{domain.SeniorityCSuite},
		Industries:        []string{"SaaS"},
		CompanySizeRanges: []domain.SizeRange{{Min: 1, Max: 50}},
	}

	leads, skipped, err := g.Fetch(context.Background(), spec, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, leads, 10)

	for i, l := range leads {
		assert.Equal(t, "CTO", l.Title, "lead %d", i)
		assert.Equal(t, "SaaS", l.Industry, "lead %d", i)
		assert.True(t, spec.CompanySizeRanges[0].Contains(l.EmployeeCount), "lead %d count %d", i, l.EmployeeCount)
		assert.True(t, spec.MatchesLead(l), "lead %d", i)
		assert.NotEmpty(t, l.Email, "lead %d", i)
	}
}

func TestFetchVariesOptionalSignals(t *testing.T) {
	g := New()
	leads, _, err := g.Fetch(context.Background(), domain.FilterSpec{}, 20)
	require.NoError(t, err)

	unverified, noLinkedIn := 0, 0
	emails := map[string]bool{}
	for _, l := range leads {
		if !l.EmailVerified {
			unverified++
		}
		if l.LinkedInURL == "" {
			noLinkedIn++
		}
		emails[l.Email] = true
	}
	assert.Greater(t, unverified, 0)
	assert.Greater(t, noLinkedIn, 0)
	assert.Len(t, emails, 20, "emails are unique")
}

func TestFetchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New().Fetch(ctx, domain.FilterSpec{}, 5)
	assert.Error(t, err)
}
