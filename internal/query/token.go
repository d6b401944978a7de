package query

import (
	"strings"
	"unicode"
)

// token keeps the raw (cased) form next to the lowercase lookup form so
// the location fallback can still see capitalization.
type token struct {
	raw   string
	lower string
}

// tokenize splits on whitespace and punctuation. '-' and '+' stay inside
// tokens so "50-200", "1000+" and "mid-size" survive as single tokens.
func tokenize(text string) []token {
	var out []token
	var cur strings.Builder

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		raw := cur.String()
		out = append(out, token{raw: raw, lower: strings.ToLower(raw)})
		cur.Reset()
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		case r == '-' || r == '+':
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return out
}

// singularize normalizes simple English plurals for cue lookups:
// "CTOs" -> "cto", "companies" -> "company". Lookup tries the exact lower
// form first, so acronyms like "saas" never get mangled.
func singularize(lower string) string {
	switch {
	case strings.HasSuffix(lower, "ies") && len(lower) > 4:
		return lower[:len(lower)-3] + "y"
	case strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss") && len(lower) > 3:
		return lower[:len(lower)-1]
	}
	return lower
}

// isCapitalized reports whether the raw token starts with an upper-case
// letter (used by the best-effort location fallback).
func isCapitalized(raw string) bool {
	for _, r := range raw {
		return unicode.IsUpper(r)
	}
	return false
}
