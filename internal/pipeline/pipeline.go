// Package pipeline drives one lead-generation run end to end:
// parse -> fetch -> enrich -> score -> export, with the run lock, the
// store, and progress events around it. Run always returns a structured
// report, fatal errors included.
package pipeline

import (
	"crypto/rand"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"leadgen-engine/internal/config"
	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/events"
	"leadgen-engine/internal/netutil"
)

// Options select what a single run does. Zero values defer to config.
type Options struct {
	Query          string
	ICPName        string
	Source         string
	CSVPath        string
	Limit          int
	DryRun         bool
	SkipEnrichment bool
	SkipExport     bool
}

// Orchestrator owns the stage machine and the wiring between packages.
type Orchestrator struct {
	cfg     config.Config
	hub     *events.Hub
	limiter *netutil.HostLimiter
	sources SourceFactory
	entropy *ulid.MonotonicEntropy
}

func New(cfg config.Config, hub *events.Hub) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		hub:     hub,
		limiter: netutil.NewHostLimiter(2.0, 4),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	o.sources = o.buildSource
	return o
}

// SetSourceFactory swaps how sources are built, used by tests.
func (o *Orchestrator) SetSourceFactory(f SourceFactory) { o.sources = f }

func (o *Orchestrator) newRunID() string {
	return ulid.MustNew(ulid.Now(), o.entropy).String()
}

// advance moves the run to stage, marks it done and tells listeners.
func (o *Orchestrator) advance(run *domain.Run, stage, msg string) {
	run.Stage = stage
	run.Stages[stage] = domain.StageOutcomeDone
	log.Printf("[pipeline] run=%s stage=%s %s", run.ID, stage, msg)
	o.publish(run.ID, stage, msg)
}

// skip marks a stage as deliberately not run.
func (o *Orchestrator) skip(run *domain.Run, stage, msg string) {
	run.Stages[stage] = domain.StageOutcomeSkipped
	log.Printf("[pipeline] run=%s stage=%s skipped: %s", run.ID, stage, msg)
	o.publish(run.ID, stage, "skipped: "+msg)
}

func (o *Orchestrator) publish(runID, stage, msg string) {
	if o.hub != nil {
		o.hub.Publish(events.New(runID, stage, msg))
	}
}

func finish(run *domain.Run) {
	run.FinishedAt = time.Now().UTC()
}
