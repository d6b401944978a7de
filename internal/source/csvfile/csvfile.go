// Package csvfile imports leads from directory CSV exports. Header names
// vary wildly between export tools, so columns are resolved through an
// alias table rather than fixed positions.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/query"
	"leadgen-engine/internal/source"
)

// SourceTag marks leads imported from CSV files.
const SourceTag = "csv_import"

// columnAliases maps each lead field to the header spellings seen in the
// wild. Matching is case-insensitive on trimmed headers; first hit wins.
var columnAliases = map[string][]string{
	"email":          {"email", "email address", "email_address", "work email"},
	"first_name":     {"first_name", "first name", "first", "firstname"},
	"last_name":      {"last_name", "last name", "last", "lastname"},
	"full_name":      {"name", "full name", "fullname", "person name"},
	"title":          {"title", "job title", "jobtitle", "position"},
	"seniority":      {"seniority", "level"},
	"company":        {"company", "company name", "organization", "organization_name"},
	"company_domain": {"company_domain", "domain", "website", "company domain"},
	"company_size":   {"employees", "company size", "# employees", "employee_count"},
	"industry":       {"industry", "company industry"},
	"location":       {"location", "person location"},
	"city":           {"city", "person city"},
	"state":          {"state", "region", "person state"},
	"country":        {"country", "person country"},
	"linkedin_url":   {"linkedin", "linkedin url", "linkedin_url", "person linkedin url"},
}

type Config struct {
	Path string
}

type Importer struct {
	cfg Config
}

func New(cfg Config) *Importer { return &Importer{cfg: cfg} }

func (im *Importer) Name() string { return source.NameCSV }

// Fetch decodes the configured file, keeps rows matching spec, and stops
// at limit. Row order is preserved.
func (im *Importer) Fetch(ctx context.Context, spec domain.FilterSpec, limit int) ([]domain.Lead, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(im.cfg.Path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: open csv: %v", source.ErrUnavailable, err)
	}
	defer f.Close()
	return Decode(f, spec, limit)
}

// Decode reads one CSV stream. Rows without a usable email address are
// counted as skipped; rows failing spec are dropped silently. The mailbox
// source feeds attachment bodies through here.
func Decode(r io.Reader, spec domain.FilterSpec, limit int) ([]domain.Lead, int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read csv: %v", source.ErrUnavailable, err)
	}

	cr := csv.NewReader(strings.NewReader(string(raw)))
	cr.Comma = sniffDelimiter(string(raw))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: csv header: %v", source.ErrUnavailable, err)
	}
	cols := resolveColumns(header)
	if _, ok := cols["email"]; !ok {
		return nil, 0, fmt.Errorf("%w: no email column in csv header", source.ErrUnavailable)
	}

	var leads []domain.Lead
	skipped, filtered := 0, 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		get := func(field string) string {
			idx, ok := cols[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return source.CleanText(row[idx])
		}

		email := strings.ToLower(get("email"))
		if email == "" || !strings.Contains(email, "@") {
			skipped++
			continue
		}

		lead := domain.Lead{
			Email:         email,
			FirstName:     get("first_name"),
			LastName:      get("last_name"),
			FullName:      get("full_name"),
			Title:         get("title"),
			Seniority:     strings.ToLower(get("seniority")),
			Company:       get("company"),
			CompanyDomain: strings.ToLower(get("company_domain")),
			Industry:      get("industry"),
			EmployeeCount: parseEmployeeCount(get("company_size")),
			Location:      pickLocation(get),
			LinkedInURL:   get("linkedin_url"),
			Source:        SourceTag,
		}
		if !domain.KnownSeniority(lead.Seniority) {
			lead.Seniority = query.InferSeniority(lead.Title)
		}

		if !spec.MatchesLead(lead) {
			filtered++
			continue
		}
		leads = append(leads, lead)
		if len(leads) >= limit {
			break
		}
	}
	if filtered > 0 {
		log.Printf("[csv] rows=%d kept=%d filtered=%d skipped=%d", len(leads)+filtered+skipped, len(leads), filtered, skipped)
	}
	return leads, skipped, nil
}

func pickLocation(get func(string) string) string {
	if loc := get("location"); loc != "" {
		return loc
	}
	var parts []string
	for _, field := range []string{"city", "state", "country"} {
		if v := get(field); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func resolveColumns(header []string) map[string]int {
	lowered := make([]string, len(header))
	for i, h := range header {
		lowered[i] = strings.ToLower(source.CleanText(h))
	}
	cols := map[string]int{}
	for field, aliases := range columnAliases {
		for _, a := range aliases {
			for i, h := range lowered {
				if h == a {
					cols[field] = i
					break
				}
			}
			if _, ok := cols[field]; ok {
				break
			}
		}
	}
	return cols
}

// sniffDelimiter picks the separator with the most hits on the first line.
// Comma wins ties, so plain CSV never misdetects.
func sniffDelimiter(data string) rune {
	line := data
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', strings.Count(line, ",")
	for _, cand := range []rune{';', '\t'} {
		if c := strings.Count(line, string(cand)); c > bestCount {
			best, bestCount = cand, c
		}
	}
	return best
}

var sizeRangeRe = regexp.MustCompile(`^(\d+)\s*[-–]\s*\d+$`)

// parseEmployeeCount accepts plain counts ("40", "1,234"), open buckets
// ("1001+") and range buckets ("51-200", lower bound kept).
func parseEmployeeCount(s string) int {
	s = strings.ToLower(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if m := sizeRangeRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	s = strings.TrimSuffix(s, "+")
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return 0
}
