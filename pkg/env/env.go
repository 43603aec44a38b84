// Package env reads process settings that are needed before the typed
// config is loaded, such as the log format.
package env

import (
	"os"
	"strings"
)

const prefix = "CROWN_"

// Get returns CROWN_<key>, then <key>, then fallback.
func Get(key, fallback string) string {
	for _, name := range []string{prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
