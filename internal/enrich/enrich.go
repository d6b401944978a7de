// Package enrich augments fetched leads with extra signals from external
// providers. Providers run concurrently across leads; a provider failure
// never blocks other leads or erases data already on the lead.
package enrich

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"leadgen-engine/internal/domain"
)

// Patch is one provider's contribution for one lead: flat key/value pairs
// merged additively into the lead.
type Patch map[string]string

// Provider answers one enrichment concern (webhook relay, person match,
// domain discovery). Enrich must honor ctx and may return an empty patch
// when it simply has nothing to add.
type Provider interface {
	Name() string
	Enrich(ctx context.Context, lead domain.Lead) (Patch, error)
}

type Stats struct {
	Enriched int
	Failed   int
}

const (
	minWorkers     = 5
	maxWorkers     = 10
	defaultTimeout = 15 * time.Second
)

// Enricher fans leads out over a bounded worker pool.
type Enricher struct {
	providers []Provider
	pool      *ants.Pool
	timeout   time.Duration
}

// New builds an enricher with workers clamped to [5,10] and a per-call
// timeout (default 15s).
func New(providers []Provider, workers int, timeout time.Duration) (*Enricher, error) {
	if workers < minWorkers {
		workers = minWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("enrich pool: %w", err)
	}
	return &Enricher{providers: providers, pool: pool, timeout: timeout}, nil
}

func (e *Enricher) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Run enriches every lead in place and reports how many ended up enriched
// versus failed. Leads keep their positions; statuses land on the leads
// themselves.
func (e *Enricher) Run(ctx context.Context, leads []domain.Lead) Stats {
	if len(e.providers) == 0 {
		for i := range leads {
			leads[i].EnrichmentStatus = domain.EnrichmentSkipped
		}
		return Stats{}
	}

	var wg sync.WaitGroup
	for i := range leads {
		i := i
		wg.Add(1)
		if err := e.pool.Submit(func() {
			defer wg.Done()
			e.enrichOne(ctx, &leads[i])
		}); err != nil {
			wg.Done()
			leads[i].EnrichmentStatus = domain.EnrichmentFailed
			leads[i].AddDefect(fmt.Sprintf("enrichment not scheduled: %v", err))
		}
	}
	wg.Wait()

	var stats Stats
	for i := range leads {
		switch leads[i].EnrichmentStatus {
		case domain.EnrichmentSuccess:
			stats.Enriched++
		case domain.EnrichmentFailed:
			stats.Failed++
		}
	}
	return stats
}

func (e *Enricher) enrichOne(ctx context.Context, lead *domain.Lead) {
	succeeded, failed := 0, 0
	for _, p := range e.providers {
		cctx, cancel := context.WithTimeout(ctx, e.timeout)
		patch, err := p.Enrich(cctx, *lead)
		cancel()

		if err != nil {
			failed++
			lead.AddDefect(fmt.Sprintf("enrich %s: %v", p.Name(), err))
			log.Printf("[enrich] provider=%s lead=%s err=%v", p.Name(), lead.Email, err)
			continue
		}
		if len(patch) > 0 {
			Apply(lead, p.Name(), patch)
			succeeded++
		}
	}

	switch {
	case succeeded > 0:
		lead.EnrichmentStatus = domain.EnrichmentSuccess
	case failed > 0:
		lead.EnrichmentStatus = domain.EnrichmentFailed
	default:
		lead.EnrichmentStatus = domain.EnrichmentSkipped
	}
}
