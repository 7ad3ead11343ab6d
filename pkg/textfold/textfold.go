// Package textfold canonicalizes free text typed by staff so it can be
// compared against fixed tables.
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// Fold trims, lower-cases, strips diacritics, unifies apostrophes and
// collapses runs of whitespace.
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	// Chain keeps state, so it is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	s = apostrophes.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// ContainsAny reports whether the folded form of s contains any of markers.
// Markers are expected to be folded already.
func ContainsAny(s string, markers ...string) bool {
	f := Fold(s)
	for _, m := range markers {
		if m != "" && strings.Contains(f, m) {
			return true
		}
	}
	return false
}
