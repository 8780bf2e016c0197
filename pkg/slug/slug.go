// Package slug builds and normalizes URL slugs for catalog and blog paths.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into a base letter plus a mark.
var specialLetters = strings.NewReplacer(
	"ı", "i", "ß", "ss", "æ", "ae", "ø", "o", "đ", "d", "ł", "l",
)

// Generate creates a URL-friendly slug from the given name. Accents are
// folded to their base letter.
//
// Examples:
//   - "Hand-Painted Diyā Set" → "hand-painted-diya-set"
//   - "Crème Brûlée Candle" → "creme-brulee-candle"
//   - "Hello   World!" → "hello-world"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = specialLetters.Replace(s)

	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = folded
	}

	s = slugRegexp.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Normalize canonicalizes a slug taken from a request path so that
// "Rose-Gold-Locket" and "rose-gold-locket/" resolve to the same row.
func Normalize(raw string) string {
	return Generate(raw)
}
