package domain

import "strings"

// Enrichment status values, tracked per lead across the run.
const (
	EnrichmentPending = "pending"
	EnrichmentSuccess = "success"
	EnrichmentFailed  = "failed"
	EnrichmentSkipped = "skipped"
)

// Lead is one candidate contact moving through fetch -> enrich -> score.
type Lead struct {
	ID            string `json:"id" yaml:"id"`
	FirstName     string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	FullName      string `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	Title         string `json:"title,omitempty" yaml:"title,omitempty"`
	Company       string `json:"company,omitempty" yaml:"company,omitempty"`
	CompanyDomain string `json:"company_domain,omitempty" yaml:"company_domain,omitempty"`
	Industry      string `json:"industry,omitempty" yaml:"industry,omitempty"`
	EmployeeCount int    `json:"employee_count,omitempty" yaml:"employee_count,omitempty"`
	Location      string `json:"location,omitempty" yaml:"location,omitempty"`
	Email         string `json:"email,omitempty" yaml:"email,omitempty"`
	EmailVerified bool   `json:"email_verified" yaml:"email_verified"`
	LinkedInURL   string `json:"linkedin_url,omitempty" yaml:"linkedin_url,omitempty"`
	Seniority     string `json:"seniority,omitempty" yaml:"seniority,omitempty"`
	Source        string `json:"source,omitempty" yaml:"source,omitempty"`

	// Enrichment maps provider name -> attribute bag. Additive only;
	// identity fields above are filled from it but never overwritten.
	Enrichment       map[string]map[string]string `json:"enrichment,omitempty" yaml:"enrichment,omitempty"`
	EnrichmentStatus string                       `json:"enrichment_status,omitempty" yaml:"enrichment_status,omitempty"`
	Defects          []string                     `json:"defects,omitempty" yaml:"defects,omitempty"`

	FitScore  int              `json:"fit_score" yaml:"fit_score"`
	Breakdown []CriterionScore `json:"score_breakdown,omitempty" yaml:"score_breakdown,omitempty"`
}

// DisplayName prefers the full name, falling back to first+last.
func (l Lead) DisplayName() string {
	if l.FullName != "" {
		return l.FullName
	}
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// EmailKey is the lead's identity for dedupe and store upserts.
func (l Lead) EmailKey() string {
	return strings.ToLower(strings.TrimSpace(l.Email))
}

func (l *Lead) AddDefect(msg string) {
	if msg == "" {
		return
	}
	l.Defects = append(l.Defects, msg)
}
