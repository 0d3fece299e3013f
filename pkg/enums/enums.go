// Package enums holds the string-backed states persisted on marketplace rows.
package enums

import (
	"fmt"
	"slices"
	"strings"
)

func known[T ~string](value T, set []T) bool {
	return slices.Contains(set, value)
}

// parse lowercases and trims raw before matching it against set.
func parse[T ~string](kind, raw string, set []T) (T, error) {
	normalized := T(strings.ToLower(strings.TrimSpace(raw)))
	if known(normalized, set) {
		return normalized, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
