package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Chen", Lead{FullName: "Ada Chen", FirstName: "A", LastName: "C"}.DisplayName())
	assert.Equal(t, "Ada Chen", Lead{FirstName: "Ada", LastName: "Chen"}.DisplayName())
	assert.Equal(t, "Ada", Lead{FirstName: "Ada"}.DisplayName())
	assert.Equal(t, "", Lead{}.DisplayName())
}

func TestEmailKey(t *testing.T) {
	assert.Equal(t, "ada@acme.io", Lead{Email: "  Ada@Acme.IO "}.EmailKey())
	assert.Equal(t, "", Lead{}.EmailKey())
}

func TestAddDefect(t *testing.T) {
	var l Lead
	l.AddDefect("")
	assert.Empty(t, l.Defects)
	l.AddDefect("enrichment timed out")
	l.AddDefect("no domain found")
	assert.Equal(t, []string{"enrichment timed out", "no domain found"}, l.Defects)
}
