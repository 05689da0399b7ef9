package reconcile

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reNonAlnum   = regexp.MustCompile(`[^a-z0-9\s]+`)
	reMultiSpace = regexp.MustCompile(`\s+`)
)

// stripDiacritics removes combining marks after NFD decomposition.
func stripDiacritics(s string) string {
	decomp := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomp))
	for _, r := range decomp {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalizeTitle folds a title to a comparison key: NFKC, diacritics
// stripped (ō -> o), lowercased, punctuation collapsed to spaces.
func normalizeTitle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	s = norm.NFKC.String(s)
	s = stripDiacritics(s)
	s = strings.ToLower(s)
	s = reNonAlnum.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
