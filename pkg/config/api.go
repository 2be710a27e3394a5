package config

import (
	"fmt"
	"strings"
)

// APIConfig controls API-level behavior that is not tied to a single route.
// WritesEnabled is the permission gate: when false, every mutating endpoint
// answers 400 Bad Request while reads keep working.
type APIConfig struct {
	WritesEnabled bool `koanf:"writesEnabled"`
}

// String returns a string representation of the API configuration.
func (c *APIConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- API ---\n")
	b.WriteString(fmt.Sprintf("  writesEnabled: %t\n", c.WritesEnabled))
	return b.String()
}

func (c *APIConfig) Validate() error {
	return nil
}
