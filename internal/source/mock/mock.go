// Package mock generates deterministic leads for dry runs and tests. The
// same filter spec and limit always produce the same leads, and every
// generated lead matches the filters so downstream stages have something
// to work with.
package mock

import (
	"context"
	"fmt"
	"strings"

	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/query"
	"leadgen-engine/internal/source"
)

const SourceTag = "mock"

var (
	firstNames = []string{"Ada", "Bo", "Cam", "Dev", "Eli", "Fay", "Gus", "Hana", "Ira", "Jo"}
	lastNames  = []string{"Stone", "Reyes", "Kim", "Okafor", "Novak", "Silva", "Chen", "Haas", "Mori", "Lund"}
	companies  = []struct{ name, domain string }{
		{"Acme Labs", "acmelabs.io"},
		{"Borealis", "borealis.dev"},
		{"Cirrus Data", "cirrusdata.com"},
		{"Drift Metrics", "driftmetrics.io"},
		{"Evergreen HQ", "evergreenhq.com"},
	}

	defaultTitles     = []string{"CTO", "VP of Engineering", "Director of Product", "Engineering Manager", "Software Engineer"}
	defaultIndustries = []string{"Software", "SaaS", "Fintech"}
	defaultLocations  = []string{"San Francisco, California, United States", "New York, United States", "London, United Kingdom"}
)

type Generator struct{}

func New() *Generator { return &Generator{} }

func (g *Generator) Name() string { return source.NameMock }

func (g *Generator) Fetch(ctx context.Context, spec domain.FilterSpec, limit int) ([]domain.Lead, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	leads := make([]domain.Lead, 0, limit)
	for i := 0; i < limit; i++ {
		leads = append(leads, generate(spec, i))
	}
	return leads, 0, nil
}

func generate(spec domain.FilterSpec, i int) domain.Lead {
	title := cycle(defaultTitles, i)
	if len(spec.Titles) > 0 {
		title = strings.TrimSuffix(cycle(spec.Titles, i), "*")
	}
	industry := cycle(defaultIndustries, i)
	if len(spec.Industries) > 0 {
		industry = cycle(spec.Industries, i)
	}
	location := cycle(defaultLocations, i)
	if len(spec.Locations) > 0 {
		location = cycle(spec.Locations, i)
	}

	count := 20 + 7*(i%30)
	if len(spec.CompanySizeRanges) > 0 {
		count = sizeWithin(spec.CompanySizeRanges[i%len(spec.CompanySizeRanges)], i)
	}

	seniority := query.InferSeniority(title)
	if len(spec.Seniorities) > 0 && seniority == "" {
		seniority = cycle(spec.Seniorities, i)
	}

	first := cycle(firstNames, i)
	last := cycle(lastNames, i/len(firstNames)+i)
	co := companies[i%len(companies)]

	return domain.Lead{
		FirstName:     first,
		LastName:      last,
		FullName:      first + " " + last,
		Title:         title,
		Seniority:     seniority,
		Company:       co.name,
		CompanyDomain: co.domain,
		Industry:      industry,
		EmployeeCount: count,
		Location:      location,
		Email:         fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), i, co.domain),
		EmailVerified: i%4 != 3,
		LinkedInURL:   linkedinFor(first, last, i),
		Source:        SourceTag,
	}
}

// sizeWithin picks an employee count inside the half-open range, spreading
// consecutive leads across it.
func sizeWithin(r domain.SizeRange, i int) int {
	min := r.Min
	if min <= 0 {
		min = 1
	}
	width := 200
	if r.Max > min {
		width = r.Max - min
	}
	return min + i%width
}

func linkedinFor(first, last string, i int) string {
	if i%5 == 4 {
		return ""
	}
	return fmt.Sprintf("https://linkedin.com/in/%s-%s-%d", strings.ToLower(first), strings.ToLower(last), i)
}

func cycle(xs []string, i int) string { return xs[i%len(xs)] }
