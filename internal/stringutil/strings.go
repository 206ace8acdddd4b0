// Package stringutil provides common string manipulation utilities.
package stringutil

import "unicode/utf8"

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Truncate cuts s to at most limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}

// ChunkRunes splits s into pieces of at most limit runes. Multi-byte
// characters are never split.
func ChunkRunes(s string, limit int) []string {
	if limit < 1 || utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	runes := []rune(s)
	var out []string
	for len(runes) > limit {
		out = append(out, string(runes[:limit]))
		runes = runes[limit:]
	}
	return append(out, string(runes))
}
