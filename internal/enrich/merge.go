package enrich

import (
	"strconv"
	"strings"

	"leadgen-engine/internal/domain"
)

// Apply merges a provider patch into the lead. The merge is additive: the
// raw patch lands in the lead's enrichment bag under the provider's name,
// and identity fields are only filled where currently empty. Nothing a
// source or earlier provider wrote is ever overwritten.
func Apply(l *domain.Lead, provider string, p Patch) {
	if len(p) == 0 {
		return
	}

	if l.Enrichment == nil {
		l.Enrichment = map[string]map[string]string{}
	}
	bag := l.Enrichment[provider]
	if bag == nil {
		bag = map[string]string{}
		l.Enrichment[provider] = bag
	}
	for k, v := range p {
		if v == "" {
			continue
		}
		if _, exists := bag[k]; !exists {
			bag[k] = v
		}
	}

	fill := func(dst *string, key string) {
		if *dst == "" {
			if v := strings.TrimSpace(p[key]); v != "" {
				*dst = v
			}
		}
	}
	fill(&l.FirstName, "first_name")
	fill(&l.LastName, "last_name")
	fill(&l.FullName, "full_name")
	fill(&l.Title, "title")
	fill(&l.Company, "company")
	fill(&l.CompanyDomain, "company_domain")
	fill(&l.Industry, "industry")
	fill(&l.Location, "location")
	fill(&l.LinkedInURL, "linkedin_url")

	if l.Seniority == "" {
		if s := strings.ToLower(strings.TrimSpace(p["seniority"])); domain.KnownSeniority(s) {
			l.Seniority = s
		}
	}
	if l.EmployeeCount == 0 {
		if n, err := strconv.Atoi(p["employee_count"]); err == nil && n > 0 {
			l.EmployeeCount = n
		}
	}
	if !l.EmailVerified && strings.EqualFold(p["email_verified"], "true") {
		l.EmailVerified = true
	}
}
