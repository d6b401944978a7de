package icp

import "leadgen-engine/internal/domain"

// DefaultName is the bundle used when a run names no ICP.
const DefaultName = "default"

// Builtins returns the bundles compiled into the binary. Bootstrap writes
// them out as editable YAML on first run; edited copies shadow these.
func Builtins() []Config {
	return []Config{
		{
			Name:        DefaultName,
			Description: "No filter opinion; standard weight table.",
			Weights:     DefaultWeights(),
		},
		{
			Name:        "icp_v1",
			Description: "B2B SaaS decision makers at growth-stage companies.",
			Filters: domain.FilterSpec{
				Titles:      []string{"CTO*", "VP*", "Director*", "Head*"},
				Seniorities: []string{domain.SeniorityCSuite, domain.SeniorityVP, domain.SeniorityDirector},
				Industries:  []string{"SaaS", "Software", "Technology"},
				CompanySizeRanges: []domain.SizeRange{
					{Min: 51, Max: 500},
				},
			},
			Weights: Weights{
				TitleMatch:       30,
				SeniorityMatch:   15,
				IndustryMatch:    20,
				CompanySizeMatch: 10,
				LocationMatch:    5,
				VerifiedEmail:    15,
				HasLinkedIn:      5,
			},
		},
	}
}
