// Package export renders a finished run into its output artifacts: a
// tabular CSV, the full run as JSON, and a human-readable markdown summary.
// Each artifact is written atomically and independently, so one bad
// artifact never corrupts or blocks the others.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"leadgen-engine/internal/domain"
)

// ArtifactError reports one artifact that failed to write.
type ArtifactError struct {
	Artifact string
	Err      error
}

func (e *ArtifactError) Error() string { return fmt.Sprintf("export %s: %v", e.Artifact, e.Err) }
func (e *ArtifactError) Unwrap() error { return e.Err }

type Writer struct {
	dir  string
	topN int
}

func New(dir string, topN int) Writer {
	if topN <= 0 {
		topN = 10
	}
	return Writer{dir: dir, topN: topN}
}

// Write renders the run's three artifacts concurrently. A failed artifact
// records its error on the returned ref; the others still land. The only
// whole-call failure is an unusable output directory.
func (w Writer) Write(ctx context.Context, run *domain.Run) ([]domain.ArtifactRef, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	jobs := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{fmt.Sprintf("leads_%s.csv", run.ID), func() ([]byte, error) { return renderCSV(run) }},
		{fmt.Sprintf("run_%s.json", run.ID), func() ([]byte, error) { return renderJSON(run) }},
		{fmt.Sprintf("summary_%s.md", run.ID), func() ([]byte, error) { return w.renderSummary(run), nil }},
	}

	refs := make([]domain.ArtifactRef, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			path := filepath.Join(w.dir, job.name)
			err := ctx.Err()
			if err == nil {
				var b []byte
				if b, err = job.render(); err == nil {
					err = writeAtomic(path, b)
				}
			}
			if err != nil {
				aerr := &ArtifactError{Artifact: job.name, Err: err}
				log.Printf("[export] artifact=%s err=%v", job.name, err)
				refs[i] = domain.ArtifactRef{Name: job.name, Err: aerr.Error()}
				return nil
			}
			log.Printf("[export] artifact=%s path=%s", job.name, path)
			refs[i] = domain.ArtifactRef{Name: job.name, Path: path}
			return nil
		})
	}
	_ = g.Wait()
	return refs, nil
}

// writeAtomic lands data at path via a temp file in the same directory,
// synced before the rename.
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

var csvHeader = []string{
	"email", "full_name", "first_name", "last_name", "title", "seniority",
	"company", "company_domain", "employee_count", "industry", "location",
	"linkedin_url", "email_verified", "source",
	"fit_score", "fit_label", "matched_criteria",
}

func renderCSV(run *domain.Run) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, l := range run.Leads {
		count := ""
		if l.EmployeeCount > 0 {
			count = strconv.Itoa(l.EmployeeCount)
		}
		row := []string{
			l.Email, l.FullName, l.FirstName, l.LastName, l.Title, l.Seniority,
			l.Company, l.CompanyDomain, count, l.Industry, l.Location,
			l.LinkedInURL, strconv.FormatBool(l.EmailVerified), l.Source,
			strconv.Itoa(l.FitScore), domain.FitLabel(l.FitScore),
			strings.Join(matchedReasons(l, len(domain.Criteria)), "; "),
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderJSON(run *domain.Run) ([]byte, error) {
	b, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func (w Writer) renderSummary(run *domain.Run) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Lead run %s\n\n", run.ID)
	fmt.Fprintf(&b, "- Mode: %s\n", run.Mode)
	fmt.Fprintf(&b, "- Status: %s\n", run.Status)
	if run.Query != "" {
		fmt.Fprintf(&b, "- Query: %q\n", run.Query)
	}
	if run.ICPName != "" {
		fmt.Fprintf(&b, "- ICP: %s\n", run.ICPName)
	}
	fmt.Fprintf(&b, "- Started: %s\n", run.StartedAt.Format(time.RFC3339))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- Finished: %s\n", run.FinishedAt.Format(time.RFC3339))
	}

	st := run.Stats
	fmt.Fprintf(&b, "\n## Stats\n\n")
	fmt.Fprintf(&b, "| fetched | skipped | enriched | enrich failed | scored |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d |\n",
		st.Fetched, st.Skipped, st.Enriched, st.EnrichmentFailed, st.Scored)

	fmt.Fprintf(&b, "\n## Score distribution\n\n")
	if len(run.Leads) == 0 {
		fmt.Fprintf(&b, "No leads.\n")
		return b.Bytes()
	}
	high, medium, low, sum := 0, 0, 0, 0
	maxScore, minScore := run.Leads[0].FitScore, run.Leads[0].FitScore
	for _, l := range run.Leads {
		switch domain.FitLabel(l.FitScore) {
		case "high":
			high++
		case "medium":
			medium++
		default:
			low++
		}
		sum += l.FitScore
		if l.FitScore > maxScore {
			maxScore = l.FitScore
		}
		if l.FitScore < minScore {
			minScore = l.FitScore
		}
	}
	fmt.Fprintf(&b, "- high (>= 70): %d\n", high)
	fmt.Fprintf(&b, "- medium (40-69): %d\n", medium)
	fmt.Fprintf(&b, "- low (< 40): %d\n", low)
	fmt.Fprintf(&b, "- average %.1f, max %d, min %d\n",
		float64(sum)/float64(len(run.Leads)), maxScore, minScore)

	fmt.Fprintf(&b, "\n## Top leads\n\n")
	top := run.Leads
	if len(top) > w.topN {
		top = top[:w.topN]
	}
	for i, l := range top {
		name := l.DisplayName()
		if name == "" {
			name = l.Email
		}
		fmt.Fprintf(&b, "%d. **%s** (%s at %s) score %d\n",
			i+1, name, orDash(l.Title), orDash(l.Company), l.FitScore)
		for _, reason := range matchedReasons(l, 3) {
			fmt.Fprintf(&b, "   - %s\n", reason)
		}
	}
	return b.Bytes()
}

// matchedReasons returns the details of up to n matched criteria, in
// breakdown order.
func matchedReasons(l domain.Lead, n int) []string {
	var out []string
	for _, cs := range l.Breakdown {
		if !cs.Matched || cs.Detail == "" {
			continue
		}
		out = append(out, cs.Detail)
		if len(out) == n {
			break
		}
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
