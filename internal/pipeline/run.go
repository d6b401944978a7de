package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/enrich"
	"leadgen-engine/internal/export"
	"leadgen-engine/internal/icp"
	"leadgen-engine/internal/query"
	"leadgen-engine/internal/score"
	"leadgen-engine/internal/source"
	"leadgen-engine/internal/store"
)

// ErrLocked means another run holds the data-dir lock.
var ErrLocked = errors.New("another run is already in progress")

// Run executes one pipeline run. The returned Run is always populated,
// also on fatal errors; err is non-nil exactly when the run failed.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*domain.Run, error) {
	mode := domain.ModeLive
	if opts.DryRun {
		mode = domain.ModeDryRun
	}

	run := &domain.Run{
		ID:        o.newRunID(),
		StartedAt: time.Now().UTC(),
		Query:     opts.Query,
		ICPName:   opts.ICPName,
		Mode:      mode,
		Status:    domain.StatusRunning,
		Stage:     domain.StageInit,
		Stages:    map[string]string{},
	}
	o.publish(run.ID, domain.StageInit, "run started")

	lock := flock.New(o.cfg.LockPath())
	held, err := lock.TryLock()
	if err != nil {
		return o.fatal(ctx, nil, run, domain.StageInit, fmt.Errorf("run lock: %w", err))
	}
	if !held {
		return o.fatal(ctx, nil, run, domain.StageInit, ErrLocked)
	}
	defer func() { _ = lock.Unlock() }()

	db, err := store.Open(o.cfg.DBPath())
	if err != nil {
		return o.fatal(ctx, nil, run, domain.StageInit, fmt.Errorf("open store: %w", err))
	}
	defer db.Close()
	o.saveRun(ctx, db, run)
	run.Stages[domain.StageInit] = domain.StageOutcomeDone

	// Cancellation stops new network calls; what was already fetched is
	// still scored, exported and persisted.
	persistCtx := context.WithoutCancel(ctx)

	// Parse the query and resolve the targeting bundle.
	parsed := query.Parse(opts.Query)
	reg := icp.NewRegistry()
	if err := reg.LoadDir(o.cfg.App.ICPDir); err != nil {
		return o.fatal(ctx, db, run, domain.StageParsed, fmt.Errorf("load icp bundles: %w", err))
	}
	bundle, err := reg.Resolve(parsed, opts.ICPName)
	if err != nil {
		return o.fatal(ctx, db, run, domain.StageParsed, err)
	}
	run.ICPName = bundle.Name
	run.Filters = bundle.Filters
	o.advance(run, domain.StageParsed, fmt.Sprintf("icp=%s filters=%s", bundle.Name, describeFilters(bundle.Filters)))

	// Fetch.
	sourceName := opts.Source
	if sourceName == "" {
		sourceName = o.cfg.Source.Default
	}
	if opts.DryRun {
		sourceName = source.NameMock
	}
	run.Source = sourceName

	limit := opts.Limit
	if limit <= 0 {
		limit = o.cfg.Source.Limit
	}

	src, err := o.sources(sourceName, o.cfg, opts)
	if err != nil {
		return o.fatal(ctx, db, run, domain.StageFetched, err)
	}
	leads, skipped, err := src.Fetch(ctx, bundle.Filters, limit)
	if err != nil {
		return o.fatal(ctx, db, run, domain.StageFetched, err)
	}
	for i := range leads {
		if leads[i].ID == "" {
			leads[i].ID = uuid.NewString()
		}
		leads[i].EnrichmentStatus = domain.EnrichmentPending
	}
	run.Leads = leads
	run.Stats.Fetched = len(leads)
	run.Stats.Skipped = skipped
	o.advance(run, domain.StageFetched,
		fmt.Sprintf("source=%s leads=%d skipped=%d", sourceName, len(leads), skipped))
	o.saveRun(ctx, db, run)

	// Enrich.
	switch {
	case opts.DryRun:
		markSkipped(run.Leads)
		o.skip(run, domain.StageEnriched, "dry-run")
	case opts.SkipEnrichment:
		markSkipped(run.Leads)
		o.skip(run, domain.StageEnriched, "--skip-enrichment")
	default:
		providers := o.buildProviders(db)
		enricher, err := enrich.New(providers, o.cfg.Enrichment.Workers,
			time.Duration(o.cfg.Enrichment.TimeoutSeconds)*time.Second)
		if err != nil {
			return o.fatal(ctx, db, run, domain.StageEnriched, err)
		}
		stats := enricher.Run(ctx, run.Leads)
		enricher.Release()
		run.Stats.Enriched = stats.Enriched
		run.Stats.EnrichmentFailed = stats.Failed
		o.advance(run, domain.StageEnriched,
			fmt.Sprintf("providers=%d enriched=%d failed=%d", len(providers), stats.Enriched, stats.Failed))
	}

	// Score and rank.
	scorer := score.New(bundle)
	scorer.ScoreAll(run.Leads)
	run.Stats.Scored = len(run.Leads)
	o.advance(run, domain.StageScored, fmt.Sprintf("scored=%d", len(run.Leads)))

	// Export.
	if opts.SkipExport {
		o.skip(run, domain.StageExported, "--skip-export")
	} else {
		run.Stage = domain.StageExported
		run.Stats.Exported = len(run.Leads)
		writer := export.New(o.cfg.App.OutputDir, o.cfg.Export.TopN)
		refs, err := writer.Write(persistCtx, run)
		if err != nil {
			run.Stats.Exported = 0
			return o.fatal(ctx, db, run, domain.StageExported, err)
		}
		run.Artifacts = refs
		failed := 0
		for _, ref := range refs {
			if ref.Err != "" {
				failed++
			}
		}
		o.advance(run, domain.StageExported,
			fmt.Sprintf("artifacts=%d failed=%d", len(refs), failed))
	}

	// Live leads land in the store; dry runs leave no lead rows behind.
	if !opts.DryRun {
		for i := range run.Leads {
			if _, _, err := store.UpsertLead(persistCtx, db.Pool, run.Leads[i], run.ID); err != nil {
				log.Printf("[pipeline] run=%s persist lead=%s err=%v", run.ID, run.Leads[i].EmailKey(), err)
			}
		}
	}

	if err := checkStats(run); err != nil {
		return o.fatal(ctx, db, run, run.Stage, err)
	}

	run.Status = domain.StatusCompleted
	finish(run)
	o.advance(run, domain.StageDone,
		fmt.Sprintf("fetched=%d enriched=%d scored=%d exported=%d", run.Stats.Fetched, run.Stats.Enriched, run.Stats.Scored, run.Stats.Exported))
	o.saveRun(ctx, db, run)
	return run, nil
}

// fatal finalizes the run as failed and returns both the report and the
// error that killed it.
func (o *Orchestrator) fatal(ctx context.Context, db *store.DB, run *domain.Run, stage string, err error) (*domain.Run, error) {
	run.Error = &domain.RunError{Stage: stage, Message: err.Error()}
	run.Status = domain.StatusFailed
	run.Stage = domain.StageErrored
	run.Stages[stage] = domain.StageOutcomeFailed
	finish(run)
	log.Printf("[pipeline] run=%s stage=%s fatal: %v", run.ID, stage, err)
	o.publish(run.ID, domain.StageErrored, err.Error())
	if db != nil {
		o.saveRun(ctx, db, run)
	}
	return run, err
}

// saveRun persists the current report. History is best effort; a store
// hiccup must not kill a run that is otherwise fine. Reports land even
// when the run itself was cancelled.
func (o *Orchestrator) saveRun(ctx context.Context, db *store.DB, run *domain.Run) {
	if err := store.SaveRun(context.WithoutCancel(ctx), db.Pool, run); err != nil {
		log.Printf("[pipeline] run=%s save run err=%v", run.ID, err)
	}
}

func markSkipped(leads []domain.Lead) {
	for i := range leads {
		leads[i].EnrichmentStatus = domain.EnrichmentSkipped
	}
}

func checkStats(run *domain.Run) error {
	st := run.Stats
	if st.Enriched+st.EnrichmentFailed > st.Fetched {
		return fmt.Errorf("stats out of range: enriched=%d failed=%d fetched=%d",
			st.Enriched, st.EnrichmentFailed, st.Fetched)
	}
	if st.Scored != len(run.Leads) {
		return fmt.Errorf("stats out of range: scored=%d leads=%d", st.Scored, len(run.Leads))
	}
	return nil
}

func describeFilters(f domain.FilterSpec) string {
	if f.Empty() {
		return "none"
	}
	return fmt.Sprintf("titles=%d seniorities=%d industries=%d sizes=%d locations=%d",
		len(f.Titles), len(f.Seniorities), len(f.Industries),
		len(f.CompanySizeRanges), len(f.Locations))
}
