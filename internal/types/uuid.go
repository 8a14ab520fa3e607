package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex map_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	// UUID_PREFIX_PROJECT_MAPPING is the prefix for deal-project mapping IDs
	UUID_PREFIX_PROJECT_MAPPING = "map"
	// UUID_PREFIX_AUTH_TOKEN is the prefix for stored auth token IDs
	UUID_PREFIX_AUTH_TOKEN = "tok"
)
