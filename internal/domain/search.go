package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinSearchLength is the shortest folded query that filters anything.
const MinSearchLength = 2

// Fold normalizes a string for accent- and case-insensitive matching:
// "Brno-venkov " and "BRNO-VENKOV" fold the same, as do "Březina" and "brezina".
func Fold(s string) string {
	// A transformer chain keeps state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// searchActive reports whether a folded query is long enough to filter.
func searchActive(folded string) bool {
	return utf8.RuneCountInString(folded) >= MinSearchLength
}

// matches reports whether a folded key contains a folded query.
func matches(key, folded string) bool {
	return strings.Contains(key, folded)
}
