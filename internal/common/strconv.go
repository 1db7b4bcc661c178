package common

import "strconv"

// AtoiDefault parses value as a base-10 integer, returning def when the
// value is empty or malformed. Query parameter parsing leans on this.
func AtoiDefault(value string, def int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
