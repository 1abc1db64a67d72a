package config

import (
	"fmt"
)

// Override adjusts the raw configuration before it is resolved.
// Command line flags and environment variables are applied this way.
type Override func(raw *RawConfig)

// Load reads and resolves a YAML configuration file
func Load(path string, overrides ...Override) (*Config, error) {
	raw, err := Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	for _, apply := range overrides {
		apply(raw)
	}

	cfg, err := Resolve(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config: %w", err)
	}

	return cfg, nil
}
