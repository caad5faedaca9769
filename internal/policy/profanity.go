// Package policy implements the content-policy checks applied during the
// message pipeline (spec §4.1 step 3): explicit-content detection and the
// per-recipient allowExplicitContent gate.
package policy

import (
	"strings"

	"golang.org/x/text/cases"
)

// ProfanityDetector flags explicit content by case-folded substring match
// against a fixed word list, following the teacher's reliance on
// golang.org/x/text for text normalization rather than a regex pile-up.
type ProfanityDetector struct {
	words  []string
	folder cases.Caser
}

// NewProfanityDetector builds a detector over the given word list. An
// empty list is valid and never flags anything.
func NewProfanityDetector(words []string) *ProfanityDetector {
	folder := cases.Fold()
	folded := make([]string, len(words))
	for i, w := range words {
		folded[i] = folder.String(w)
	}
	return &ProfanityDetector{words: folded, folder: folder}
}

// DefaultWordList is empty; a detector built from it flags nothing.
var DefaultWordList = []string{}

// IsExplicit reports whether body contains any flagged word,
// case-insensitively (Unicode case folding). Accents are not stripped, so
// an accented letter does not match its unaccented form.
func (d *ProfanityDetector) IsExplicit(body string) bool {
	if len(d.words) == 0 {
		return false
	}
	folded := d.folder.String(body)
	for _, w := range d.words {
		if w == "" {
			continue
		}
		if strings.Contains(folded, w) {
			return true
		}
	}
	return false
}

// Mask replaces every occurrence of a flagged word with asterisks of the
// same length, leaving the rest of body untouched. Case folding can
// occasionally change a string's rune count (e.g. some ligatures); when
// that happens the offsets no longer line up with the original body, so
// the whole body is masked instead of risking a mismatched replacement.
func (d *ProfanityDetector) Mask(body string) string {
	if len(d.words) == 0 {
		return body
	}

	runes := []rune(body)
	folded := []rune(d.folder.String(body))
	if len(folded) != len(runes) {
		if d.IsExplicit(body) {
			return strings.Repeat("*", len(runes))
		}
		return body
	}

	for _, w := range d.words {
		if w == "" {
			continue
		}
		wr := []rune(w)
		for i := 0; i+len(wr) <= len(folded); i++ {
			if runesEqual(folded[i:i+len(wr)], wr) {
				for j := i; j < i+len(wr); j++ {
					runes[j] = '*'
				}
			}
		}
	}
	return string(runes)
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
