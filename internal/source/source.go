// Package source defines where leads come from. Each variant lives in its
// own subpackage (apollo, csvfile, mock, mailbox) and implements Source;
// the pipeline picks one per run.
package source

import (
	"context"
	"errors"
	"strings"

	"leadgen-engine/internal/domain"
)

// ErrUnavailable marks a source that cannot serve the run at all: bad
// credentials, unreachable host, missing file. Fatal for the run.
var ErrUnavailable = errors.New("lead source unavailable")

// Source produces leads for a filter spec. Fetch returns at most limit
// leads in a stable order, plus how many records were skipped as
// malformed. limit must be > 0.
type Source interface {
	Name() string
	Fetch(ctx context.Context, spec domain.FilterSpec, limit int) ([]domain.Lead, int, error)
}

// Shipped source names, referenced by config and the CLI.
const (
	NameApollo  = "apollo"
	NameCSV     = "csv"
	NameMock    = "mock"
	NameMailbox = "mailbox"
)

// CleanText collapses runs of whitespace and strips non-breaking spaces,
// which CSV exports and API payloads both carry.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
