// Package normalize turns free-text company names and job titles into
// stable keys that can be compared across source databases. All functions
// are pure and idempotent: normalize(normalize(x)) == normalize(x).
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Legal-entity suffixes stripped from the tail of company names.
var legalSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"llc":          true,
	"llp":          true,
	"lp":           true,
	"ltd":          true,
	"limited":      true,
	"corp":         true,
	"corporation":  true,
	"co":           true,
	"company":      true,
	"gmbh":         true,
	"plc":          true,
	"sa":           true,
	"ag":           true,
	"srl":          true,
	"pty":          true,
	"pvt":          true,
}

// folder strips diacritics: decompose, drop combining marks, recompose.
var folder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Company canonicalizes a company name into its dedup key. Empty or
// whitespace-only input returns "" (the unknown bucket); callers must
// never merge records through an empty key.
func Company(raw string) string {
	toks := tokens(raw)
	if len(toks) == 0 {
		return ""
	}

	// Strip trailing legal suffixes, but never down to nothing: a company
	// literally named "Co" keeps its name.
	end := len(toks)
	for end > 1 && legalSuffixes[toks[end-1]] {
		end--
	}
	return strings.Join(toks[:end], " ")
}

// Title canonicalizes a job title into its dedup key component.
func Title(raw string) string {
	return strings.Join(tokens(raw), " ")
}

// Email lowercases and trims an email address. It does not validate.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func tokens(raw string) []string {
	s, _, err := transform.String(folder, raw)
	if err != nil {
		// Malformed input degrades to best effort on the raw bytes.
		s = raw
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}
