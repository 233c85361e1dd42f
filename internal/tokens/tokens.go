// Package tokens holds the shared token normalization helpers used by
// extractors, matchers and the scoring engine. All cross-component string
// comparison goes through Normalize so that the layers agree on equality.
package tokens

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var folder = cases.Fold()

// Normalize lowercases (Unicode case folding) and trims a token, collapsing
// internal whitespace runs to single spaces.
func Normalize(s string) string {
	s = folder.String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

// Canonical returns a display-cased form of a token for human-readable
// output (notes, reports).
func Canonical(s string) string {
	return cases.Title(language.Und).String(Normalize(s))
}

// NormalizeAll maps Normalize over a token list, dropping empties.
func NormalizeAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if n := Normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Equal compares two tokens under normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// ContainsFold reports whether the normalized form of s contains the
// normalized form of sub.
func ContainsFold(s, sub string) bool {
	return strings.Contains(Normalize(s), Normalize(sub))
}

// AnyOverlap reports whether any token in a matches (exact or substring,
// either direction) any token in b.
func AnyOverlap(a, b []string) bool {
	for _, x := range a {
		nx := Normalize(x)
		if nx == "" {
			continue
		}
		for _, y := range b {
			ny := Normalize(y)
			if ny == "" {
				continue
			}
			if nx == ny || strings.Contains(nx, ny) || strings.Contains(ny, nx) {
				return true
			}
		}
	}
	return false
}
