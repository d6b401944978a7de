package query

import (
	"regexp"
	"strconv"
	"strings"

	"leadgen-engine/internal/domain"
)

// Parse turns a free-text buyer description into a FilterSpec. It is
// total: any input, including empty or junk text, yields a valid
// (possibly empty) spec. Cues union across the text; only company size
// has precedence, where an explicit numeric mention beats qualitative
// adjectives.
func Parse(text string) domain.FilterSpec {
	toks := tokenize(text)

	var spec domain.FilterSpec
	spec.Titles = scanValues(toks, titleTable)
	spec.Seniorities = scanValues(toks, seniorityTable)
	spec.Industries = scanValues(toks, industryTable)
	spec.CompanySizeRanges = scanSizes(toks)
	spec.Locations = scanLocations(toks)
	return spec
}

// InferSeniority classifies a job title with the same cue table the
// parser uses. All cue hits are collected, then the highest rank wins,
// so "VP & Founder" classifies as c_suite. Returns "" for no match.
func InferSeniority(title string) string {
	matches := scanValues(tokenize(title), seniorityTable)
	if len(matches) == 0 {
		return ""
	}
	for _, level := range domain.Seniorities {
		for _, m := range matches {
			if m == level {
				return level
			}
		}
	}
	return matches[0]
}

// scanValues walks the tokens once, longest cue first at each position,
// collecting canonical values in first-seen order.
func scanValues(toks []token, t *cueTable) []string {
	var out []string
	for i := 0; i < len(toks); {
		if v, n, ok := t.lookup(toks, i); ok {
			out = appendValue(out, v)
			i += n
			continue
		}
		i++
	}
	return out
}

var (
	reNumRange = regexp.MustCompile(`^(\d+)-(\d+)$`)
	reNumPlus  = regexp.MustCompile(`^(\d+)\+$`)
	reNum      = regexp.MustCompile(`^\d+$`)
)

// Words that mark a number as a company-size mention.
var sizeContextWords = map[string]bool{
	"employee": true, "people": true, "person": true,
	"staff": true, "headcount": true, "fte": true, "seat": true,
}

func scanSizes(toks []token) []domain.SizeRange {
	var numeric, qualitative []domain.SizeRange

	for i := 0; i < len(toks); i++ {
		tok := toks[i]

		if m := reNumRange.FindStringSubmatch(tok.lower); m != nil && hasSizeContext(toks, i+1) {
			lo, _ := strconv.Atoi(m[1])
			hi, _ := strconv.Atoi(m[2])
			if lo > 0 && hi > lo {
				numeric = appendRange(numeric, domain.SizeRange{Min: lo, Max: hi})
			}
			continue
		}
		if m := reNumPlus.FindStringSubmatch(tok.lower); m != nil && hasSizeContext(toks, i+1) {
			lo, _ := strconv.Atoi(m[1])
			if lo > 0 {
				numeric = appendRange(numeric, domain.SizeRange{Min: lo})
			}
			continue
		}
		// "50 to 200 employees"
		if reNum.MatchString(tok.lower) && i+3 < len(toks) &&
			toks[i+1].lower == "to" && reNum.MatchString(toks[i+2].lower) &&
			hasSizeContext(toks, i+3) {
			lo, _ := strconv.Atoi(tok.lower)
			hi, _ := strconv.Atoi(toks[i+2].lower)
			if lo > 0 && hi > lo {
				numeric = appendRange(numeric, domain.SizeRange{Min: lo, Max: hi})
			}
			i += 2
			continue
		}

		if label, n, ok := sizeTable.lookup(toks, i); ok {
			if r, found := sizeRangeFor(label); found {
				qualitative = appendRange(qualitative, r)
			}
			i += n - 1
		}
	}

	if len(numeric) > 0 {
		return numeric
	}
	return qualitative
}

func hasSizeContext(toks []token, i int) bool {
	if i >= len(toks) {
		return false
	}
	return sizeContextWords[singularize(toks[i].lower)]
}

func scanLocations(toks []token) []string {
	var out []string
	consumed := make([]bool, len(toks))

	for i := 0; i < len(toks); {
		if v, n, ok := locationTable.lookup(toks, i); ok {
			// Short aliases collide with English words ("us" the pronoun);
			// require the raw token to be fully upper-case for those.
			if n == 1 && len(toks[i].lower) <= 2 && toks[i].raw != strings.ToUpper(toks[i].raw) {
				i++
				continue
			}
			out = appendValue(out, v)
			for k := 0; k < n; k++ {
				consumed[i+k] = true
			}
			i += n
			continue
		}
		i++
	}

	// Best effort: unrecognized capitalized words right after a location
	// preposition are taken verbatim, up to three tokens ("in New Haven").
	for i := 0; i < len(toks)-1; i++ {
		if !locationPrepositions[toks[i].lower] {
			continue
		}
		j := i + 1
		var parts []string
		for j < len(toks) && len(parts) < 3 {
			if consumed[j] || !isCapitalized(toks[j].raw) || knownCue(toks[j].lower) {
				break
			}
			parts = append(parts, toks[j].raw)
			j++
		}
		if len(parts) > 0 {
			out = appendValue(out, strings.Join(parts, " "))
		}
	}

	return out
}

func appendValue(xs []string, v string) []string {
	for _, x := range xs {
		if x == v {
			return xs
		}
	}
	return append(xs, v)
}

func appendRange(rs []domain.SizeRange, r domain.SizeRange) []domain.SizeRange {
	for _, have := range rs {
		if have == r {
			return rs
		}
	}
	return append(rs, r)
}
