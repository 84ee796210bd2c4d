package dedupe

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripDiacritics removes combining marks so "Genève" and "Geneve"
// normalize to the same token.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// countryTokens never help identify a unit and are dropped.
var countryTokens = map[string]bool{
	"switzerland": true,
	"suisse":      true,
	"schweiz":     true,
	"svizzera":    true,
	"ch":          true,
}

// NormalizeAddress canonicalizes a street address for cross-source
// matching: diacritics stripped, lower-cased, postal-code and country
// tokens removed, the area token appended if absent, and the remaining
// tokens sorted so token order never matters.
func NormalizeAddress(address, area string) string {
	tokens := tokenize(address)
	out := make([]string, 0, len(tokens)+1)
	seen := make(map[string]bool, len(tokens)+1)
	for _, t := range tokens {
		if countryTokens[t] || isPostalCode(t) || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range tokenize(area) {
		if !seen[t] && !countryTokens[t] && !isPostalCode(t) {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return strings.Join(out, "-")
}

// tokenize lowers, folds diacritics, and splits on anything that is not
// a letter or digit.
func tokenize(s string) []string {
	folded, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// isPostalCode reports whether t looks like a Swiss postal code
// (four digits).
func isPostalCode(t string) bool {
	if len(t) != 4 {
		return false
	}
	for _, r := range t {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
