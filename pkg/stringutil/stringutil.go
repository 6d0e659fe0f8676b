// Package stringutil holds small string helpers for terminal output.
package stringutil

import "strings"

// Ellipsis flattens s to a single trimmed line and shortens it to at most
// maxLength runes, ending in "..." when something was cut. With maxLength of
// 3 or less there is no room for the marker and s is simply cut.
func Ellipsis(s string, maxLength int) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")

	if maxLength <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
