package icp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgen-engine/internal/domain"
)

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, 100, w.Total())
	for _, c := range domain.Criteria {
		assert.Greater(t, w.For(c), 0, "criterion %s", c)
	}
	assert.Equal(t, 0, w.For("no_such_criterion"))
}

func TestResolveDefault(t *testing.T) {
	r := NewRegistry()
	parsed := domain.FilterSpec{Titles: []string{"CTO*"}}

	c, err := r.Resolve(parsed, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, c.Name)
	assert.Equal(t, DefaultWeights(), c.Weights)
	assert.Equal(t, []string{"CTO*"}, c.Filters.Titles)
}

func TestResolveNamed(t *testing.T) {
	r := NewRegistry()
	parsed := domain.FilterSpec{
		Titles:    []string{"CTO*", "CEO*"},
		Locations: []string{"Berlin"},
	}

	c, err := r.Resolve(parsed, "icp_v1")
	require.NoError(t, err)
	assert.Equal(t, "icp_v1", c.Name)
	assert.Equal(t, 30, c.Weights.TitleMatch)
	// Bundle criteria stay first; parsed criteria union in without dupes.
	assert.Contains(t, c.Filters.Titles, "CEO*")
	assert.Equal(t, 1, countOf(c.Filters.Titles, "CTO*"))
	assert.Equal(t, []string{"Berlin"}, c.Filters.Locations)
}

func TestResolveUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve(domain.FilterSpec{}, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	bundle := `name: fintech_emea
description: Fintech leadership in Europe
filters:
  titles: ["CFO*", " CFO* ", ""]
  industries: ["Fintech"]
  locations: ["Europe"]
weights:
  title_match: 40
  industry_match: 30
  location_match: 30
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fintech_emea.yml"), []byte(bundle), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadDir(dir))

	c, err := r.Get("fintech_emea")
	require.NoError(t, err)
	assert.Equal(t, []string{"CFO*"}, c.Filters.Titles, "lists are trimmed and deduped")
	assert.Equal(t, 40, c.Weights.TitleMatch)
	assert.Equal(t, 0, c.Weights.VerifiedEmail)
	assert.Contains(t, r.Names(), "fintech_emea")
	assert.Contains(t, r.Names(), DefaultName)
}

func TestLoadDirNameFallsBackToFilename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unnamed.yaml"), []byte("weights:\n  title_match: 10\n"), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadDir(dir))
	_, err := r.Get("unnamed")
	assert.NoError(t, err)
}

func TestLoadDirMissingIsFine(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.LoadDir(filepath.Join(t.TempDir(), "does-not-exist")))
}

func TestLoadDirRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yml"), []byte(":: not yaml ["), 0o644))

	r := NewRegistry()
	assert.Error(t, r.LoadDir(dir))
}

func TestValidate(t *testing.T) {
	t.Run("negative weight fails", func(t *testing.T) {
		c := Config{Name: "x", Weights: Weights{TitleMatch: -1}}
		_, err := c.Validate()
		assert.Error(t, err)
	})
	t.Run("over 100 warns", func(t *testing.T) {
		c := Config{Name: "x", Weights: Weights{TitleMatch: 80, IndustryMatch: 80}}
		warnings, err := c.Validate()
		require.NoError(t, err)
		assert.NotEmpty(t, warnings)
	})
	t.Run("unknown seniority warns", func(t *testing.T) {
		c := Config{Name: "x", Filters: domain.FilterSpec{Seniorities: []string{"intern"}}}
		warnings, err := c.Validate()
		require.NoError(t, err)
		assert.NotEmpty(t, warnings)
	})
	t.Run("builtins are clean", func(t *testing.T) {
		for _, c := range Builtins() {
			warnings, err := c.Validate()
			assert.NoError(t, err, c.Name)
			assert.Empty(t, warnings, c.Name)
		}
	})
}

func countOf(xs []string, want string) int {
	n := 0
	for _, x := range xs {
		if x == want {
			n++
		}
	}
	return n
}
