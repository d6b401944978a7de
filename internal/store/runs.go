package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leadgen-engine/internal/domain"
)

var ErrRunNotFound = errors.New("run not found")

// RunSummary is the history row: run metadata without the lead payload.
type RunSummary struct {
	ID         string
	Query      string
	ICPName    string
	Source     string
	Mode       string
	Status     string
	Stage      string
	Fetched    int
	Scored     int
	Exported   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// SaveRun upserts the run row with the full report JSON. Called once when
// the run starts and again whenever its state advances, so a crash leaves
// the last known stage behind.
func SaveRun(ctx context.Context, db *sql.DB, run *domain.Run) error {
	report, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	finished := ""
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt.UTC().Format(time.RFC3339)
	}

	_, err = db.ExecContext(ctx, `
INSERT INTO runs (
  id, query_text, icp_name, source, mode, status, stage,
  fetched, scored, exported, report, started_at, finished_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  status = excluded.status,
  stage = excluded.stage,
  fetched = excluded.fetched,
  scored = excluded.scored,
  exported = excluded.exported,
  report = excluded.report,
  finished_at = excluded.finished_at;
`,
		run.ID, run.Query, run.ICPName, run.Source, run.Mode, run.Status,
		run.Stage, run.Stats.Fetched, run.Stats.Scored, run.Stats.Exported,
		string(report), run.StartedAt.UTC().Format(time.RFC3339), finished,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// GetRun loads one run's full report.
func GetRun(ctx context.Context, db *sql.DB, id string) (*domain.Run, error) {
	var report string
	err := db.QueryRowContext(ctx,
		`SELECT report FROM runs WHERE id = ? LIMIT 1;`, id,
	).Scan(&report)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var run domain.Run
	if err := json.Unmarshal([]byte(report), &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

// ListRuns returns recent runs, newest first.
func ListRuns(ctx context.Context, db *sql.DB, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
SELECT id, query_text, icp_name, source, mode, status, stage,
       fetched, scored, exported, started_at, finished_at
FROM runs
ORDER BY started_at DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var started, finished string
		if err := rows.Scan(
			&s.ID, &s.Query, &s.ICPName, &s.Source, &s.Mode, &s.Status,
			&s.Stage, &s.Fetched, &s.Scored, &s.Exported, &started, &finished,
		); err != nil {
			return nil, err
		}
		s.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			s.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
