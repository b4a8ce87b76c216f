package env

import (
	"os"
	"strings"
)

// Prefix namespaces every foodapp variable.
const Prefix = "FOODAPP_"

// Get resolves key as FOODAPP_<key> first, then the bare key, then fallback.
// Blank values count as unset.
func Get(key, fallback string) string {
	for _, candidate := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(candidate)); val != "" {
			return val
		}
	}
	return fallback
}
