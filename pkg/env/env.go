// Package env reads process environment knobs that live outside the
// SCHOOLMART_ config tree, such as LOG_FORMAT.
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}
