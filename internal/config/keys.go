package config

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/semmy-space/pinechat/internal/storage"
)

// Key names accepted by Get, Set and Unset
const (
	KeyStore         = "store"
	KeyDataDir       = "data_dir"
	KeyLogLevel      = "log_level"
	KeyDefaultOutput = "default_output"
)

// AllowedValues maps enumerated config keys to their accepted values.
// Keys absent from the map accept any string.
var AllowedValues = map[string][]string{
	KeyStore:         storage.Backends(),
	KeyLogLevel:      {"trace", "debug", "info", "warn", "error"},
	KeyDefaultOutput: {"json", "plain", "rich", "auto"},
}

// Keys returns a sorted list of config key names
func Keys() []string {
	keys := []string{KeyStore, KeyDataDir, KeyLogLevel, KeyDefaultOutput}
	sort.Strings(keys)
	return keys
}

// ValidateValue reports whether value is acceptable for key
func ValidateValue(key, value string) error {
	allowed, ok := AllowedValues[key]
	if !ok || slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("invalid %s: %s. Valid values: %s", key, value, strings.Join(allowed, ", "))
}
