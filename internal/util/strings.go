// Package util provides shared utility functions used across the codebase.
package util

import "strings"

// SplitList splits a comma-separated string into a slice, trimming
// whitespace and dropping empty entries. Returns nil for empty input.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// Truncate shortens s to at most n runes, appending an ellipsis when it cut
// anything. Used for sample values in reports.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
