package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"leadgen-engine/internal/domain"
)

// UpsertLead writes a lead keyed by lowercased email. An existing row keeps
// its id, empty incoming fields keep the stored value, and scoring plus
// enrichment state always reflect the latest run.
func UpsertLead(ctx context.Context, db *sql.DB, l domain.Lead, runID string) (id string, added bool, err error) {
	email := l.EmailKey()
	if email == "" {
		return "", false, fmt.Errorf("upsert lead: empty email")
	}

	enrichment, breakdown, err := leadJSON(l)
	if err != nil {
		return "", false, fmt.Errorf("upsert lead: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	var existing string
	err = db.QueryRowContext(ctx, `SELECT id FROM leads WHERE email = ? LIMIT 1;`, email).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return "", false, fmt.Errorf("upsert lead: %w", err)
	}

	if existing != "" {
		_, err = db.ExecContext(ctx, `
UPDATE leads SET
  first_name = COALESCE(NULLIF(?, ''), first_name),
  last_name = COALESCE(NULLIF(?, ''), last_name),
  full_name = COALESCE(NULLIF(?, ''), full_name),
  title = COALESCE(NULLIF(?, ''), title),
  seniority = COALESCE(NULLIF(?, ''), seniority),
  company = COALESCE(NULLIF(?, ''), company),
  company_domain = COALESCE(NULLIF(?, ''), company_domain),
  employee_count = COALESCE(NULLIF(?, 0), employee_count),
  industry = COALESCE(NULLIF(?, ''), industry),
  location = COALESCE(NULLIF(?, ''), location),
  linkedin_url = COALESCE(NULLIF(?, ''), linkedin_url),
  email_verified = ?,
  source = COALESCE(NULLIF(?, ''), source),
  enrichment = ?,
  enrichment_status = ?,
  fit_score = ?,
  breakdown = ?,
  run_id = ?,
  updated_at = ?
WHERE id = ?;
`,
			l.FirstName, l.LastName, l.FullName, l.Title, l.Seniority,
			l.Company, l.CompanyDomain, l.EmployeeCount, l.Industry, l.Location,
			l.LinkedInURL, boolInt(l.EmailVerified), l.Source,
			enrichment, l.EnrichmentStatus, l.FitScore, breakdown, runID, now,
			existing,
		)
		if err != nil {
			return "", false, fmt.Errorf("update lead: %w", err)
		}
		return existing, false, nil
	}

	id = l.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err = db.ExecContext(ctx, `
INSERT INTO leads (
  id, email, first_name, last_name, full_name, title, seniority,
  company, company_domain, employee_count, industry, location,
  linkedin_url, email_verified, source, enrichment, enrichment_status,
  fit_score, breakdown, run_id, created_at, updated_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);
`,
		id, email, l.FirstName, l.LastName, l.FullName, l.Title, l.Seniority,
		l.Company, l.CompanyDomain, l.EmployeeCount, l.Industry, l.Location,
		l.LinkedInURL, boolInt(l.EmailVerified), l.Source, enrichment,
		l.EnrichmentStatus, l.FitScore, breakdown, runID, now, now,
	)
	if err != nil {
		return "", false, fmt.Errorf("insert lead: %w", err)
	}
	return id, true, nil
}

// LeadsByRun returns the leads last touched by runID, best score first.
func LeadsByRun(ctx context.Context, db *sql.DB, runID string) ([]domain.Lead, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, email, first_name, last_name, full_name, title, seniority,
       company, company_domain, employee_count, industry, location,
       linkedin_url, email_verified, source, enrichment, enrichment_status,
       fit_score, breakdown
FROM leads
WHERE run_id = ?
ORDER BY fit_score DESC, email ASC;
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		var l domain.Lead
		var verified int
		var enrichment, breakdown string
		if err := rows.Scan(
			&l.ID, &l.Email, &l.FirstName, &l.LastName, &l.FullName,
			&l.Title, &l.Seniority, &l.Company, &l.CompanyDomain,
			&l.EmployeeCount, &l.Industry, &l.Location, &l.LinkedInURL,
			&verified, &l.Source, &enrichment, &l.EnrichmentStatus,
			&l.FitScore, &breakdown,
		); err != nil {
			return nil, err
		}
		l.EmailVerified = verified != 0
		_ = json.Unmarshal([]byte(enrichment), &l.Enrichment)
		_ = json.Unmarshal([]byte(breakdown), &l.Breakdown)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func leadJSON(l domain.Lead) (enrichment, breakdown string, err error) {
	eb, err := json.Marshal(l.Enrichment)
	if err != nil {
		return "", "", err
	}
	if l.Enrichment == nil {
		eb = []byte("{}")
	}
	bb, err := json.Marshal(l.Breakdown)
	if err != nil {
		return "", "", err
	}
	if l.Breakdown == nil {
		bb = []byte("[]")
	}
	return string(eb), string(bb), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
