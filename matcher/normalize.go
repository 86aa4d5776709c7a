// Package matcher scores free-text questions against stored questions and
// picks the closest one above a similarity cutoff.
package matcher

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize canonicalizes question text for comparison: lower-cased, every
// '?' removed and surrounding whitespace trimmed. Question marks go before
// the trim so that "? what" and "what ?" normalize in a single pass.
func Normalize(text string) string {
	lowered := cases.Lower(language.Und).String(text)
	return strings.TrimSpace(strings.ReplaceAll(lowered, "?", ""))
}
