package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/netutil"
)

// PersonMatch fills gaps on a lead through the directory API's match
// endpoint, which resolves a person from a LinkedIn URL or name+company.
type PersonMatch struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	limiter *netutil.HostLimiter
	retry   netutil.RetryPolicy
}

func NewPersonMatch(baseURL, apiKey string, limiter *netutil.HostLimiter) *PersonMatch {
	if baseURL == "" {
		baseURL = "https://api.apollo.io/v1"
	}
	return &PersonMatch{
		baseURL: baseURL,
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		retry:   netutil.DefaultRetryPolicy(),
	}
}

// SetRetryPolicy overrides the backoff schedule, used by tests.
func (pm *PersonMatch) SetRetryPolicy(p netutil.RetryPolicy) { pm.retry = p }

func (pm *PersonMatch) Name() string { return "person_match" }

type matchRequest struct {
	LinkedInURL      string `json:"linkedin_url,omitempty"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
	Domain           string `json:"domain,omitempty"`
}

type matchResponse struct {
	Person struct {
		Email       string `json:"email"`
		EmailStatus string `json:"email_status"`
		Title       string `json:"title"`
		Seniority   string `json:"seniority"`
		City        string `json:"city"`
		State       string `json:"state"`
		Country     string `json:"country"`
		LinkedInURL string `json:"linkedin_url"`

		Organization struct {
			Name                  string `json:"name"`
			PrimaryDomain         string `json:"primary_domain"`
			EstimatedNumEmployees int    `json:"estimated_num_employees"`
			Industry              string `json:"industry"`
		} `json:"organization"`
	} `json:"person"`
}

func (pm *PersonMatch) Enrich(ctx context.Context, lead domain.Lead) (Patch, error) {
	if pm.apiKey == "" {
		return nil, nil
	}

	// LinkedIn URL is the most precise identifier; fall back to
	// name + company.
	mr := matchRequest{}
	if lead.LinkedInURL != "" {
		mr.LinkedInURL = lead.LinkedInURL
	} else {
		mr.FirstName = lead.FirstName
		mr.LastName = lead.LastName
		mr.OrganizationName = lead.Company
		mr.Domain = lead.CompanyDomain
	}
	if mr == (matchRequest{}) {
		return nil, nil
	}

	body, err := json.Marshal(mr)
	if err != nil {
		return nil, err
	}

	url := pm.baseURL + "/people/match"
	if pm.limiter != nil {
		if err := pm.limiter.WaitURL(ctx, url); err != nil {
			return nil, err
		}
	}

	resp, err := pm.retry.Do(ctx, pm.hc, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Api-Key", pm.apiKey)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("person match: http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("person match: decode: %w", err)
	}

	p := out.Person
	if p.Email == "" && p.Title == "" && p.LinkedInURL == "" && p.Organization.Name == "" {
		return nil, nil // no match
	}

	patch := Patch{
		"title":          p.Title,
		"seniority":      strings.ToLower(p.Seniority),
		"linkedin_url":   p.LinkedInURL,
		"company":        p.Organization.Name,
		"company_domain": strings.ToLower(p.Organization.PrimaryDomain),
		"industry":       p.Organization.Industry,
	}
	if p.EmailStatus == "verified" {
		patch["email_verified"] = "true"
	}
	if n := p.Organization.EstimatedNumEmployees; n > 0 {
		patch["employee_count"] = strconv.Itoa(n)
	}
	var locParts []string
	for _, s := range []string{p.City, p.State, p.Country} {
		if s = strings.TrimSpace(s); s != "" {
			locParts = append(locParts, s)
		}
	}
	if len(locParts) > 0 {
		patch["location"] = strings.Join(locParts, ", ")
	}

	for k, v := range patch {
		if v == "" {
			delete(patch, k)
		}
	}
	return patch, nil
}
