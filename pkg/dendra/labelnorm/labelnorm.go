// Package labelnorm canonicalizes entity label strings so that every
// other component agrees on label identity. Matrices, trees and
// explanation text are authored independently and disagree on case,
// accents and stray whitespace; all cross-references go through Key.
package labelnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Fold returns the trimmed, lowercased form of s. Suitable for
// case-insensitive comparison when accents are trustworthy.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Key returns the matching key for s: lowercase, diacritics stripped,
// non-alphanumeric runes treated as spaces, whitespace collapsed to
// single spaces. Two labels refer to the same entity iff their keys are
// equal.
func Key(s string) string {
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	space := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark from NFD decomposition
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		default:
			space = true
		}
	}
	return b.String()
}

// Clean tidies a display label: trim, strip one layer of surrounding
// quote characters, collapse internal whitespace runs.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'“”‘’")
	s = strings.TrimSpace(s)
	return strings.Join(strings.Fields(s), " ")
}

// KeyMap builds a key→index map over labels. The first occurrence of a
// duplicate key wins; later duplicates are shadowed, matching the
// permissive lookup behavior used throughout alignment.
func KeyMap(labels []string) map[string]int {
	m := make(map[string]int, len(labels))
	for i, l := range labels {
		k := Key(l)
		if _, ok := m[k]; !ok {
			m[k] = i
		}
	}
	return m
}
