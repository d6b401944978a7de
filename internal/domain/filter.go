package domain

import (
	"fmt"
	"strings"
)

// Seniority enum shared by the parser, the filters, and the scorer.
const (
	SeniorityCSuite   = "c_suite"
	SeniorityVP       = "vp"
	SeniorityDirector = "director"
	SeniorityManager  = "manager"
	SeniorityIC       = "individual_contributor"
)

// Seniorities lists the enum in rank order, highest first.
var Seniorities = []string{
	SeniorityCSuite,
	SeniorityVP,
	SeniorityDirector,
	SeniorityManager,
	SeniorityIC,
}

func KnownSeniority(s string) bool {
	for _, k := range Seniorities {
		if s == k {
			return true
		}
	}
	return false
}

// SizeRange is a half-open employee-count range [Min, Max).
// Max == 0 means unbounded.
type SizeRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max,omitempty" yaml:"max,omitempty"`
}

func (r SizeRange) Contains(n int) bool {
	if n < r.Min {
		return false
	}
	return r.Max == 0 || n < r.Max
}

func (r SizeRange) String() string {
	if r.Max == 0 {
		return fmt.Sprintf("%d+", r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max-1)
}

// FilterSpec is the structured targeting criteria. The zero value is valid
// and matches everything (with zero criterion bonus in scoring).
type FilterSpec struct {
	Titles            []string    `json:"titles,omitempty" yaml:"titles,omitempty"`
	Seniorities       []string    `json:"seniorities,omitempty" yaml:"seniorities,omitempty"`
	Industries        []string    `json:"industries,omitempty" yaml:"industries,omitempty"`
	CompanySizeRanges []SizeRange `json:"company_size_ranges,omitempty" yaml:"company_size_ranges,omitempty"`
	Locations         []string    `json:"locations,omitempty" yaml:"locations,omitempty"`
}

func (f FilterSpec) Empty() bool {
	return len(f.Titles) == 0 &&
		len(f.Seniorities) == 0 &&
		len(f.Industries) == 0 &&
		len(f.CompanySizeRanges) == 0 &&
		len(f.Locations) == 0
}

// Union merges other into f, per field, preserving order and dropping
// duplicates. Used when a parsed query narrows a named ICP bundle.
func (f *FilterSpec) Union(other FilterSpec) {
	f.Titles = appendUniq(f.Titles, other.Titles)
	f.Seniorities = appendUniq(f.Seniorities, other.Seniorities)
	f.Industries = appendUniq(f.Industries, other.Industries)
	f.Locations = appendUniq(f.Locations, other.Locations)
	for _, r := range other.CompanySizeRanges {
		dup := false
		for _, have := range f.CompanySizeRanges {
			if have == r {
				dup = true
				break
			}
		}
		if !dup {
			f.CompanySizeRanges = append(f.CompanySizeRanges, r)
		}
	}
}

// MatchTitle reports the first title pattern the given title satisfies.
func (f FilterSpec) MatchTitle(title string) (string, bool) {
	for _, pat := range f.Titles {
		if MatchPattern(pat, title) {
			return pat, true
		}
	}
	return "", false
}

// MatchIndustry matches case-insensitively, substring in either direction
// ("SaaS" matches "B2B SaaS", "Software" matches "software development").
func (f FilterSpec) MatchIndustry(industry string) (string, bool) {
	ind := strings.ToLower(strings.TrimSpace(industry))
	if ind == "" {
		return "", false
	}
	for _, want := range f.Industries {
		w := strings.ToLower(strings.TrimSpace(want))
		if w == "" {
			continue
		}
		if strings.Contains(ind, w) || strings.Contains(w, ind) {
			return want, true
		}
	}
	return "", false
}

func (f FilterSpec) MatchSize(count int) (SizeRange, bool) {
	for _, r := range f.CompanySizeRanges {
		if r.Contains(count) {
			return r, true
		}
	}
	return SizeRange{}, false
}

// MatchLocation is substring/alias based, never geocoded.
func (f FilterSpec) MatchLocation(location string) (string, bool) {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return "", false
	}
	for _, want := range f.Locations {
		w := strings.ToLower(strings.TrimSpace(want))
		if w == "" {
			continue
		}
		if strings.Contains(loc, w) || strings.Contains(w, loc) {
			return want, true
		}
	}
	return "", false
}

// MatchesLead is the client-side post-filter used by import sources:
// every populated criterion field must match (AND across fields, OR within).
// Seniority is compared against the lead's own seniority value; importers
// backfill it from the title before filtering.
func (f FilterSpec) MatchesLead(l Lead) bool {
	if len(f.Titles) > 0 {
		if _, ok := f.MatchTitle(l.Title); !ok {
			return false
		}
	}
	if len(f.Seniorities) > 0 {
		hit := false
		for _, s := range f.Seniorities {
			if s == l.Seniority {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if len(f.Industries) > 0 {
		if _, ok := f.MatchIndustry(l.Industry); !ok {
			return false
		}
	}
	if len(f.CompanySizeRanges) > 0 {
		if _, ok := f.MatchSize(l.EmployeeCount); !ok {
			return false
		}
	}
	if len(f.Locations) > 0 {
		if _, ok := f.MatchLocation(l.Location); !ok {
			return false
		}
	}
	return true
}

// MatchPattern matches s against a title pattern: case-insensitive, with
// '*' as a glob wildcard ("VP*" matches "VP of Engineering"). A pattern
// without '*' must match exactly.
func MatchPattern(pattern, s string) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))
	t := strings.ToLower(strings.TrimSpace(s))
	if p == "" {
		return false
	}
	if !strings.Contains(p, "*") {
		return p == t
	}

	parts := strings.Split(p, "*")
	if first := parts[0]; first != "" {
		if !strings.HasPrefix(t, first) {
			return false
		}
		t = t[len(first):]
	}
	if last := parts[len(parts)-1]; last != "" {
		if !strings.HasSuffix(t, last) {
			return false
		}
		t = t[:len(t)-len(last)]
	}
	for _, mid := range parts[1 : len(parts)-1] {
		if mid == "" {
			continue
		}
		i := strings.Index(t, mid)
		if i < 0 {
			return false
		}
		t = t[i+len(mid):]
	}
	return true
}

func appendUniq(dst, src []string) []string {
	seen := map[string]bool{}
	for _, d := range dst {
		seen[strings.ToLower(d)] = true
	}
	for _, s := range src {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		dst = append(dst, s)
	}
	return dst
}
