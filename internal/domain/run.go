package domain

import (
	"sort"
	"time"
)

// Run modes.
const (
	ModeLive   = "live"
	ModeDryRun = "dry-run"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Pipeline stages in execution order. Errored is terminal and reachable
// from any stage on a fatal error.
const (
	StageInit     = "init"
	StageParsed   = "parsed"
	StageFetched  = "fetched"
	StageEnriched = "enriched"
	StageScored   = "scored"
	StageExported = "exported"
	StageDone     = "done"
	StageErrored  = "errored"
)

// Stage outcomes recorded in Run.Stages.
const (
	StageOutcomeDone    = "done"
	StageOutcomeSkipped = "skipped"
	StageOutcomeFailed  = "failed"
)

// The seven scoring criteria, in declaration order. Every breakdown
// enumerates exactly these, in exactly this order.
const (
	CriterionTitleMatch       = "title_match"
	CriterionSeniorityMatch   = "seniority_match"
	CriterionIndustryMatch    = "industry_match"
	CriterionCompanySizeMatch = "company_size_match"
	CriterionLocationMatch    = "location_match"
	CriterionVerifiedEmail    = "verified_email"
	CriterionHasLinkedIn      = "has_linkedin"
)

var Criteria = []string{
	CriterionTitleMatch,
	CriterionSeniorityMatch,
	CriterionIndustryMatch,
	CriterionCompanySizeMatch,
	CriterionLocationMatch,
	CriterionVerifiedEmail,
	CriterionHasLinkedIn,
}

// CriterionScore is one line of the explainable breakdown.
type CriterionScore struct {
	Criterion string `json:"criterion" yaml:"criterion"`
	Points    int    `json:"points" yaml:"points"`
	Matched   bool   `json:"matched" yaml:"matched"`
	Detail    string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Stats are the per-run counters. Skipped counts malformed import records.
type Stats struct {
	Fetched          int `json:"fetched"`
	Skipped          int `json:"skipped"`
	Enriched         int `json:"enriched"`
	EnrichmentFailed int `json:"enrichment_failed"`
	Scored           int `json:"scored"`
	Exported         int `json:"exported"`
}

// RunError describes a fatal failure: which stage died and why.
type RunError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// ArtifactRef points at one exported artifact. Err is set when that
// artifact failed to write (fatal for the artifact, not the run).
type ArtifactRef struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	Err  string `json:"error,omitempty"`
}

// Run is the unit of execution and the structured result returned to the
// caller in every case, including fatal failures.
type Run struct {
	ID         string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at,omitempty"`
	Query      string            `json:"query_text,omitempty"`
	ICPName    string            `json:"icp_name,omitempty"`
	Source     string            `json:"source,omitempty"`
	Mode       string            `json:"mode"`
	Status     string            `json:"status"`
	Stage      string            `json:"stage"`
	Filters    FilterSpec        `json:"filters"`
	Stats      Stats             `json:"stats"`
	Stages     map[string]string `json:"stages"`
	Leads      []Lead            `json:"leads"`
	Artifacts  []ArtifactRef     `json:"artifacts,omitempty"`
	Error      *RunError         `json:"error,omitempty"`
}

// SortLeadsByScore orders leads by descending fit score. The sort is
// stable so ties keep their original fetch order.
func SortLeadsByScore(leads []Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].FitScore > leads[j].FitScore
	})
}

// FitLabel buckets a score for reporting: high >= 70, medium 40-69, low < 40.
func FitLabel(score int) string {
	switch {
	case score >= 70:
		return "high"
	case score >= 40:
		return "medium"
	default:
		return "low"
	}
}
