package service

import "strings"

// NormalizeAnswer reduces a raw answer to the form stored in a session:
// everything from the first period, then from the first opening parenthesis,
// is dropped before trimming and lower-casing.
//
// The cut is applied as-is, so answers like "U.S. Grant" come out as "u".
func NormalizeAnswer(raw string) string {
	if i := strings.Index(raw, "."); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.Index(raw, "("); i >= 0 {
		raw = raw[:i]
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// AnswerMatches reports whether the normalized answer appears anywhere in the
// user's reply. An empty normalized answer matches everything.
func AnswerMatches(input, normalized string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(input)), normalized)
}
