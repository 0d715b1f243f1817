// Package textscan cleans raw OCR output into candidate drug-name
// tokens. Everything in this package is a pure function over strings;
// no configuration, no state.
package textscan

import "strings"

// Normalize cleans a raw OCR string into a canonical lowercase token
// stream: only letters, digits, spaces, and hyphens survive, runs of
// whitespace collapse to a single space, and the result is trimmed.
// Empty input yields an empty string, never an error.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	pendingSpace := false

	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		default:
			// Whitespace and every other character become token
			// separators.
			pendingSpace = true
		}
	}

	return b.String()
}
