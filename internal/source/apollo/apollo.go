// Package apollo fetches leads from an Apollo-style people directory API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/netutil"
	"leadgen-engine/internal/source"
)

// SourceTag marks leads fetched through the directory API.
const SourceTag = "apollo_api"

// The API filters employee counts by fixed buckets, not arbitrary ranges.
var sizeBuckets = []domain.SizeRange{
	{Min: 1, Max: 51},
	{Min: 51, Max: 201},
	{Min: 201, Max: 501},
	{Min: 501, Max: 1001},
	{Min: 1001},
}

type Config struct {
	BaseURL  string
	APIKey   string
	PerPage  int
	MaxPages int
}

type Client struct {
	cfg     Config
	hc      *http.Client
	limiter *netutil.HostLimiter
	retry   netutil.RetryPolicy
}

func New(cfg Config, limiter *netutil.HostLimiter) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.apollo.io/v1"
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = 25
	}
	if cfg.PerPage > 100 {
		cfg.PerPage = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 20
	}
	return &Client{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		retry:   netutil.DefaultRetryPolicy(),
	}
}

// SetRetryPolicy overrides the backoff schedule, used by tests.
func (c *Client) SetRetryPolicy(p netutil.RetryPolicy) { c.retry = p }

func (c *Client) Name() string { return source.NameApollo }

type searchRequest struct {
	Page              int      `json:"page"`
	PerPage           int      `json:"per_page"`
	PersonTitles      []string `json:"person_titles,omitempty"`
	PersonSeniorities []string `json:"person_seniorities,omitempty"`
	PersonLocations   []string `json:"person_locations,omitempty"`
	OrgEmployeeRanges []string `json:"organization_num_employees_ranges,omitempty"`
}

type person struct {
	Email        string `json:"email"`
	EmailStatus  string `json:"email_status"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Name         string `json:"name"`
	Title        string `json:"title"`
	Seniority    string `json:"seniority"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	LinkedInURL  string `json:"linkedin_url"`
	Organization struct {
		Name                  string `json:"name"`
		PrimaryDomain         string `json:"primary_domain"`
		WebsiteURL            string `json:"website_url"`
		EstimatedNumEmployees int    `json:"estimated_num_employees"`
		Industry              string `json:"industry"`
	} `json:"organization"`
}

type searchResponse struct {
	People     []person `json:"people"`
	Pagination struct {
		Page       int `json:"page"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

// Fetch pages through the people-search endpoint until limit leads are
// collected or results run out. Persons without an email address are
// counted as skipped.
func (c *Client) Fetch(ctx context.Context, spec domain.FilterSpec, limit int) ([]domain.Lead, int, error) {
	if c.cfg.APIKey == "" {
		return nil, 0, fmt.Errorf("%w: apollo api key not set", source.ErrUnavailable)
	}

	req := buildSearchRequest(spec)
	var leads []domain.Lead
	skipped := 0

	for page := 1; page <= c.cfg.MaxPages; page++ {
		req.Page = page
		req.PerPage = c.cfg.PerPage

		resp, err := c.search(ctx, req)
		if err != nil {
			return nil, skipped, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
		}
		if len(resp.People) == 0 {
			break
		}

		for _, p := range resp.People {
			if len(leads) >= limit {
				break
			}
			if strings.TrimSpace(p.Email) == "" {
				skipped++
				continue
			}
			leads = append(leads, p.toLead())
		}
		log.Printf("[apollo] page=%d fetched=%d/%d skipped=%d", page, len(leads), limit, skipped)

		if len(leads) >= limit {
			break
		}
		if resp.Pagination.TotalPages > 0 && page >= resp.Pagination.TotalPages {
			break
		}
	}
	return leads, skipped, nil
}

func (c *Client) search(ctx context.Context, sr searchRequest) (*searchResponse, error) {
	url := c.cfg.BaseURL + "/mixed_people/search"
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.WaitURL(ctx, url); err != nil {
			return nil, err
		}
	}

	resp, err := c.retry.Do(ctx, c.hc, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search: http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("search: decode: %w", err)
	}
	return &out, nil
}

func buildSearchRequest(spec domain.FilterSpec) searchRequest {
	var sr searchRequest
	for _, t := range spec.Titles {
		sr.PersonTitles = append(sr.PersonTitles, strings.TrimSuffix(t, "*"))
	}
	sr.PersonSeniorities = append(sr.PersonSeniorities, spec.Seniorities...)
	sr.PersonLocations = append(sr.PersonLocations, spec.Locations...)
	for _, b := range sizeBuckets {
		if overlapsAny(b, spec.CompanySizeRanges) {
			sr.OrgEmployeeRanges = append(sr.OrgEmployeeRanges, bucketParam(b))
		}
	}
	return sr
}

// overlapsAny reports whether bucket shares at least one employee count
// with any requested range.
func overlapsAny(bucket domain.SizeRange, ranges []domain.SizeRange) bool {
	for _, r := range ranges {
		if bucket.Max != 0 && r.Contains(bucket.Max-1) || r.Contains(bucket.Min) {
			return true
		}
		if bucket.Max == 0 && (r.Max == 0 || r.Max > bucket.Min) {
			return true
		}
		// Requested range nested inside the bucket.
		if r.Min >= bucket.Min && (bucket.Max == 0 || r.Min < bucket.Max) {
			return true
		}
	}
	return false
}

func bucketParam(b domain.SizeRange) string {
	if b.Max == 0 {
		return fmt.Sprintf("%d+", b.Min)
	}
	return fmt.Sprintf("%d,%d", b.Min, b.Max-1)
}

func (p person) toLead() domain.Lead {
	var locParts []string
	for _, s := range []string{p.City, p.State, p.Country} {
		if s = source.CleanText(s); s != "" {
			locParts = append(locParts, s)
		}
	}

	companyDomain := p.Organization.PrimaryDomain
	if companyDomain == "" {
		companyDomain = p.Organization.WebsiteURL
	}

	return domain.Lead{
		FirstName:     source.CleanText(p.FirstName),
		LastName:      source.CleanText(p.LastName),
		FullName:      source.CleanText(p.Name),
		Title:         source.CleanText(p.Title),
		Seniority:     strings.ToLower(source.CleanText(p.Seniority)),
		Company:       source.CleanText(p.Organization.Name),
		CompanyDomain: strings.ToLower(source.CleanText(companyDomain)),
		Industry:      source.CleanText(p.Organization.Industry),
		EmployeeCount: p.Organization.EstimatedNumEmployees,
		Location:      strings.Join(locParts, ", "),
		Email:         strings.ToLower(strings.TrimSpace(p.Email)),
		EmailVerified: p.EmailStatus == "verified",
		LinkedInURL:   strings.TrimSpace(p.LinkedInURL),
		Source:        SourceTag,
	}
}
