// SPDX-License-Identifier: Apache-2.0

// Package textnorm holds the text folding helpers shared by the edital heuristics.
// Procurement documents mix accented and unaccented spellings of the same word
// (CÂMERA / CAMERA, NÃO / NAO), so keyword matching is done on folded text.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold removes combining diacritics and upper-cases the result.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(folded)
}

// Upper upper-cases s keeping its accents, in NFC form.
func Upper(s string) string {
	return strings.ToUpper(norm.NFC.String(s))
}

// CollapseSpaces trims s and replaces every run of whitespace with one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ContainsAny reports whether the folded haystack contains any folded needle.
func ContainsAny(haystack string, needles ...string) bool {
	folded := Fold(haystack)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(folded, Fold(n)) {
			return true
		}
	}
	return false
}

// Len returns the length of s in characters, not bytes.
func Len(s string) int {
	return len([]rune(s))
}
