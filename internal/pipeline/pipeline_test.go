package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgen-engine/internal/config"
	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/events"
	"leadgen-engine/internal/icp"
	"leadgen-engine/internal/source"
	"leadgen-engine/internal/store"
)

type stubSource struct {
	name    string
	leads   []domain.Lead
	skipped int
	err     error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context, spec domain.FilterSpec, limit int) ([]domain.Lead, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	out := make([]domain.Lead, len(s.leads))
	copy(out, s.leads)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, s.skipped, nil
}

func useStub(o *Orchestrator, stub *stubSource) {
	o.SetSourceFactory(func(name string, cfg config.Config, opts Options) (source.Source, error) {
		return stub, nil
	})
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.Enrichment.PersonMatch = false
	cfg.Enrichment.DomainLookup = false
	return cfg
}

func stubLeads() []domain.Lead {
	return []domain.Lead{
		{
			FullName:      "Ada Chen",
			Title:         "CTO",
			Company:       "Acme Labs",
			Industry:      "SaaS",
			EmployeeCount: 40,
			Email:         "ada@acmelabs.io",
			EmailVerified: true,
			LinkedInURL:   "https://linkedin.com/in/adachen",
		},
		{
			FullName: "Bo Diaz",
			Title:    "Staff Accountant",
			Company:  "Ledger Co",
			Email:    "bo@ledger.example",
		},
	}
}

func TestRunDryRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	hub := events.NewHub()
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	o := New(cfg, hub)
	run, err := o.Run(context.Background(), Options{
		Query:  "Find CTOs at SaaS startups",
		DryRun: true,
		Limit:  10,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, run.Status)
	assert.Equal(t, domain.StageDone, run.Stage)
	assert.Equal(t, domain.ModeDryRun, run.Mode)
	assert.Equal(t, source.NameMock, run.Source)
	assert.Equal(t, icp.DefaultName, run.ICPName)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.FinishedAt.IsZero())

	require.Len(t, run.Leads, 10)
	for _, l := range run.Leads {
		assert.GreaterOrEqualf(t, l.FitScore, 60, "lead %s scored %d", l.Email, l.FitScore)
		assert.Equal(t, domain.EnrichmentSkipped, l.EnrichmentStatus)
		assert.NotEmpty(t, l.Breakdown)
	}
	for i := 1; i < len(run.Leads); i++ {
		assert.GreaterOrEqual(t, run.Leads[i-1].FitScore, run.Leads[i].FitScore)
	}

	assert.Equal(t, domain.StageOutcomeDone, run.Stages[domain.StageInit])
	assert.Equal(t, domain.StageOutcomeDone, run.Stages[domain.StageParsed])
	assert.Equal(t, domain.StageOutcomeDone, run.Stages[domain.StageFetched])
	assert.Equal(t, domain.StageOutcomeSkipped, run.Stages[domain.StageEnriched])
	assert.Equal(t, domain.StageOutcomeDone, run.Stages[domain.StageScored])
	assert.Equal(t, domain.StageOutcomeDone, run.Stages[domain.StageExported])
	assert.Equal(t, domain.StageOutcomeDone, run.Stages[domain.StageDone])

	assert.Equal(t, 10, run.Stats.Fetched)
	assert.Equal(t, 0, run.Stats.Enriched)
	assert.Equal(t, 10, run.Stats.Scored)
	assert.Equal(t, 10, run.Stats.Exported)

	require.Len(t, run.Artifacts, 3)
	for _, ref := range run.Artifacts {
		assert.Empty(t, ref.Err)
		_, statErr := os.Stat(ref.Path)
		assert.NoErrorf(t, statErr, "artifact %s missing", ref.Name)
	}

	// The run lives in history; dry runs leave no lead rows.
	db, err := store.Open(cfg.DBPath())
	require.NoError(t, err)
	defer db.Close()
	saved, err := store.GetRun(context.Background(), db.Pool, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, saved.Status)
	rows, err := store.LeadsByRun(context.Background(), db.Pool, run.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunLivePersistsLeadsAndPublishesStages(t *testing.T) {
	cfg := testConfig(t)
	hub := events.NewHub()
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	o := New(cfg, hub)
	useStub(o, &stubSource{name: "stub", leads: stubLeads(), skipped: 1})

	run, err := o.Run(context.Background(), Options{
		Query:          "Find CTOs at SaaS startups",
		Source:         "stub",
		SkipEnrichment: true,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ModeLive, run.Mode)
	assert.Equal(t, "stub", run.Source)
	assert.Equal(t, 2, run.Stats.Fetched)
	assert.Equal(t, 1, run.Stats.Skipped)
	assert.Equal(t, domain.StageOutcomeSkipped, run.Stages[domain.StageEnriched])
	for _, l := range run.Leads {
		assert.Equal(t, domain.EnrichmentSkipped, l.EnrichmentStatus)
		assert.NotEmpty(t, l.ID)
	}

	// Ada outranks Bo after scoring.
	require.Len(t, run.Leads, 2)
	assert.Equal(t, "ada@acmelabs.io", run.Leads[0].Email)
	assert.Greater(t, run.Leads[0].FitScore, run.Leads[1].FitScore)

	db, err := store.Open(cfg.DBPath())
	require.NoError(t, err)
	defer db.Close()
	rows, err := store.LeadsByRun(context.Background(), db.Pool, run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ada@acmelabs.io", rows[0].Email)
	assert.Equal(t, run.Leads[0].FitScore, rows[0].FitScore)

	var stages []string
	for len(sub) > 0 {
		stages = append(stages, (<-sub).Stage)
	}
	assert.Equal(t, []string{
		domain.StageInit,
		domain.StageParsed,
		domain.StageFetched,
		domain.StageEnriched,
		domain.StageScored,
		domain.StageExported,
		domain.StageDone,
	}, stages)
}

func TestRunEmptyQueryZeroLeads(t *testing.T) {
	cfg := testConfig(t)
	o := New(cfg, nil)
	useStub(o, &stubSource{name: "stub"})

	run, err := o.Run(context.Background(), Options{
		ICPName:        "icp_v1",
		Source:         "stub",
		SkipEnrichment: true,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, run.Status)
	assert.Equal(t, "icp_v1", run.ICPName)
	assert.Empty(t, run.Leads)
	assert.Equal(t, 0, run.Stats.Fetched)
	assert.Equal(t, 0, run.Stats.Exported)
	assert.Nil(t, run.Error)
	require.Len(t, run.Artifacts, 3)
	for _, ref := range run.Artifacts {
		assert.Empty(t, ref.Err)
	}
}

func TestRunCancelledAfterFetchStillExports(t *testing.T) {
	cfg := testConfig(t)
	o := New(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	o.SetSourceFactory(func(name string, c config.Config, opts Options) (source.Source, error) {
		// Cancel as soon as fetch hands leads back, before enrichment.
		cancel()
		return &stubSource{name: "stub", leads: stubLeads()}, nil
	})

	run, err := o.Run(ctx, Options{Source: "stub"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, run.Status)
	require.Len(t, run.Leads, 2)
	assert.Equal(t, 2, run.Stats.Scored)
	require.Len(t, run.Artifacts, 3)
	for _, ref := range run.Artifacts {
		assert.Empty(t, ref.Err)
	}

	db, err := store.Open(cfg.DBPath())
	require.NoError(t, err)
	defer db.Close()
	rows, err := store.LeadsByRun(context.Background(), db.Pool, run.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRunSkipExport(t *testing.T) {
	cfg := testConfig(t)
	o := New(cfg, nil)
	useStub(o, &stubSource{name: "stub", leads: stubLeads()})

	run, err := o.Run(context.Background(), Options{
		Source:         "stub",
		SkipEnrichment: true,
		SkipExport:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, run.Status)
	assert.Equal(t, domain.StageOutcomeSkipped, run.Stages[domain.StageExported])
	assert.Empty(t, run.Artifacts)
	assert.Equal(t, 0, run.Stats.Exported)

	entries, err := os.ReadDir(cfg.App.OutputDir)
	if err == nil {
		assert.Empty(t, entries)
	} else {
		assert.True(t, errors.Is(err, os.ErrNotExist))
	}
}

func TestRunLockContention(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.App.DataDir, 0o755))

	held := flock.New(cfg.LockPath())
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = held.Unlock() }()

	o := New(cfg, nil)
	run, err := o.Run(context.Background(), Options{Query: "CTOs", DryRun: true})
	require.ErrorIs(t, err, ErrLocked)
	assert.Equal(t, domain.StatusFailed, run.Status)
	assert.Equal(t, domain.StageErrored, run.Stage)
	assert.Equal(t, domain.StageOutcomeFailed, run.Stages[domain.StageInit])
	require.NotNil(t, run.Error)
	assert.Equal(t, domain.StageInit, run.Error.Stage)
}

func TestRunUnknownICPFails(t *testing.T) {
	cfg := testConfig(t)
	o := New(cfg, nil)

	run, err := o.Run(context.Background(), Options{ICPName: "enterprise-fortune-500", DryRun: true})
	require.ErrorIs(t, err, icp.ErrNotFound)
	assert.Equal(t, domain.StatusFailed, run.Status)
	assert.Equal(t, domain.StageOutcomeFailed, run.Stages[domain.StageParsed])

	// Failed runs still land in history.
	db, err := store.Open(cfg.DBPath())
	require.NoError(t, err)
	defer db.Close()
	saved, err := store.GetRun(context.Background(), db.Pool, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, saved.Status)
	require.NotNil(t, saved.Error)
	assert.Contains(t, saved.Error.Message, "enterprise-fortune-500")
}

func TestRunSourceUnavailableFails(t *testing.T) {
	cfg := testConfig(t)
	o := New(cfg, nil)
	useStub(o, &stubSource{
		name: "stub",
		err:  fmt.Errorf("%w: connect refused", source.ErrUnavailable),
	})

	run, err := o.Run(context.Background(), Options{Source: "stub"})
	require.ErrorIs(t, err, source.ErrUnavailable)
	assert.Equal(t, domain.StatusFailed, run.Status)
	assert.Equal(t, domain.StageOutcomeFailed, run.Stages[domain.StageFetched])
}

func TestRunCSVSourceNeedsPath(t *testing.T) {
	cfg := testConfig(t)
	o := New(cfg, nil)

	run, err := o.Run(context.Background(), Options{Source: "csv"})
	require.ErrorIs(t, err, source.ErrUnavailable)
	assert.Contains(t, err.Error(), "--csv")
	assert.Equal(t, domain.StageOutcomeFailed, run.Stages[domain.StageFetched])
}

func TestRunCSVSourceEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"email,first_name,last_name,title,company,industry\n"+
			"ada@acmelabs.io,Ada,Chen,CTO,Acme Labs,SaaS\n"+
			"not-an-email,Bo,Diaz,CFO,Ledger Co,Finance\n"), 0o644))

	o := New(cfg, nil)
	run, err := o.Run(context.Background(), Options{
		Source:         "csv",
		CSVPath:        path,
		SkipEnrichment: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "csv", run.Source)
	require.Len(t, run.Leads, 1)
	assert.Equal(t, "ada@acmelabs.io", run.Leads[0].Email)
	assert.Equal(t, 1, run.Stats.Skipped)
}

func TestRunIDsAreUniqueAndSortable(t *testing.T) {
	cfg := testConfig(t)
	o := New(cfg, nil)
	useStub(o, &stubSource{name: "stub"})

	first, err := o.Run(context.Background(), Options{Source: "stub", SkipEnrichment: true, SkipExport: true})
	require.NoError(t, err)
	second, err := o.Run(context.Background(), Options{Source: "stub", SkipEnrichment: true, SkipExport: true})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Less(t, first.ID, second.ID)
	assert.Len(t, first.ID, 26)
}
