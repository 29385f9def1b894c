// Package strings holds small slice helpers for request normalization.
package strings

import (
	"strings"
)

// Dedupe drops repeated values, keeping the first occurrence. A nil or empty
// input is returned as is.
func Dedupe[T comparable](values []T) []T {
	if len(values) == 0 {
		return values
	}
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// DedupeAndTrim trims each value, drops blanks, then dedupes.
//
//	DedupeAndTrim([]string{" mon 9:00 ", "mon 9:00", ""}) // ["mon 9:00"]
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	trimmed := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			trimmed = append(trimmed, v)
		}
	}
	return Dedupe(trimmed)
}
