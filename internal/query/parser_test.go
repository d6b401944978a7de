package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgen-engine/internal/domain"
)

func TestParseScenarioCTOsAtSaaSStartups(t *testing.T) {
	spec := Parse("CTOs at SaaS startups")

	assert.Equal(t, []string{"CTO*"}, spec.Titles)
	assert.Equal(t, []string{"SaaS"}, spec.Industries)
	require.Len(t, spec.CompanySizeRanges, 1)
	assert.Equal(t, domain.SizeRange{Min: 1, Max: 50}, spec.CompanySizeRanges[0])
	assert.Contains(t, spec.Seniorities, domain.SeniorityCSuite)
	assert.Empty(t, spec.Locations)
}

func TestParseAdminsLargeMarketingUS(t *testing.T) {
	spec := Parse("administrators from large marketing companies in the US")

	assert.Contains(t, spec.Titles, "Administrator*")
	assert.Contains(t, spec.Industries, "Marketing")
	require.Len(t, spec.CompanySizeRanges, 1)
	assert.Equal(t, domain.SizeRange{Min: 500}, spec.CompanySizeRanges[0])
	assert.Equal(t, []string{"United States"}, spec.Locations)
}

func TestParseTotality(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"!!! ??? ...",
		"the quick brown fox jumps over the lazy dog",
		"12345 67890",
		"éèê accents and 日本語",
		strings.Repeat("noise ", 500),
	}
	for _, in := range inputs {
		spec := Parse(in)
		// Must always return a usable spec, never panic.
		_ = spec.Empty()
	}
	assert.True(t, Parse("").Empty())
	assert.True(t, Parse("!!!").Empty())
}

func TestParseNumericSizeBeatsQualitative(t *testing.T) {
	spec := Parse("large companies with 50-200 employees")
	require.Len(t, spec.CompanySizeRanges, 1)
	assert.Equal(t, domain.SizeRange{Min: 50, Max: 200}, spec.CompanySizeRanges[0])
}

func TestParseNumericSizeForms(t *testing.T) {
	t.Run("open ended", func(t *testing.T) {
		spec := Parse("companies with 1000+ employees")
		require.Len(t, spec.CompanySizeRanges, 1)
		assert.Equal(t, domain.SizeRange{Min: 1000}, spec.CompanySizeRanges[0])
	})
	t.Run("spelled range", func(t *testing.T) {
		spec := Parse("teams of 50 to 200 people")
		require.Len(t, spec.CompanySizeRanges, 1)
		assert.Equal(t, domain.SizeRange{Min: 50, Max: 200}, spec.CompanySizeRanges[0])
	})
	t.Run("bare number range without context word is ignored", func(t *testing.T) {
		spec := Parse("revenue 50-200 last year")
		assert.Empty(t, spec.CompanySizeRanges)
	})
}

func TestParseQualitativeSizesUnion(t *testing.T) {
	spec := Parse("small and large companies")
	assert.Equal(t, []domain.SizeRange{
		{Min: 1, Max: 50},
		{Min: 500},
	}, spec.CompanySizeRanges)
}

func TestParseLocations(t *testing.T) {
	t.Run("verbatim after preposition", func(t *testing.T) {
		spec := Parse("engineers in Boise")
		assert.Equal(t, []string{"Boise"}, spec.Locations)
	})
	t.Run("multi word verbatim", func(t *testing.T) {
		spec := Parse("founders from Salt Lake City")
		assert.Equal(t, []string{"Salt Lake City"}, spec.Locations)
	})
	t.Run("canonical alias", func(t *testing.T) {
		spec := Parse("VPs in New York")
		assert.Equal(t, []string{"New York"}, spec.Locations)
	})
	t.Run("country abbreviation", func(t *testing.T) {
		spec := Parse("directors in the UK")
		assert.Equal(t, []string{"United Kingdom"}, spec.Locations)
	})
	t.Run("lowercase us is not a location", func(t *testing.T) {
		spec := Parse("help us find managers")
		assert.Empty(t, spec.Locations)
	})
	t.Run("known cues never become locations", func(t *testing.T) {
		spec := Parse("CTOs at SaaS startups")
		assert.Empty(t, spec.Locations)
	})
}

func TestParseMultiWordCues(t *testing.T) {
	spec := Parse("vice presidents of engineering at fintech companies")
	assert.Contains(t, spec.Titles, "VP*")
	assert.Contains(t, spec.Seniorities, domain.SeniorityVP)
	assert.NotContains(t, spec.Seniorities, domain.SeniorityCSuite)
	assert.Contains(t, spec.Industries, "Fintech")
}

func TestParseUnionAndDedupe(t *testing.T) {
	spec := Parse("CTO or CTO or CTOs")
	assert.Equal(t, []string{"CTO*"}, spec.Titles)

	spec = Parse("marketing directors at fintech startups in London")
	assert.Contains(t, spec.Titles, "Director*")
	assert.Contains(t, spec.Seniorities, domain.SeniorityDirector)
	assert.Contains(t, spec.Industries, "Marketing")
	assert.Contains(t, spec.Industries, "Fintech")
	assert.Equal(t, []domain.SizeRange{{Min: 1, Max: 50}}, spec.CompanySizeRanges)
	assert.Equal(t, []string{"London"}, spec.Locations)
}

func TestInferSeniority(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"CTO", domain.SeniorityCSuite},
		{"Chief Technology Officer", domain.SeniorityCSuite},
		{"VP of Marketing", domain.SeniorityVP},
		{"Vice President, Sales", domain.SeniorityVP},
		{"VP & Founder", domain.SeniorityCSuite},
		{"Director of Operations", domain.SeniorityDirector},
		{"Head of Growth", domain.SeniorityDirector},
		{"Engineering Manager", domain.SeniorityManager},
		{"Software Engineer", domain.SeniorityIC},
		{"IT Administrator", domain.SeniorityIC},
		{"Astronaut", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, InferSeniority(tc.title), "title %q", tc.title)
	}
}
