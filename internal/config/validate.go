package config

import (
	"fmt"
	"strings"
)

// Validate performs syntactic validation on raw config
func Validate(raw *RawConfig) error {
	return validateRawSyntax(raw)
}

// validateRawSyntax performs basic syntactic validation on raw config
func validateRawSyntax(raw *RawConfig) error {
	if raw.Redis.Timeout < 0 {
		return fmt.Errorf("redis timeout cannot be negative: %s", raw.Redis.Timeout)
	}

	if p := raw.Export.Prometheus; p != nil && p.Path != "" && !strings.HasPrefix(p.Path, "/") {
		return fmt.Errorf("prometheus path must start with '/': %q", p.Path)
	}

	if path := raw.Settings.InternalMetrics.Path; path != "" && !strings.HasPrefix(path, "/") {
		return fmt.Errorf("internal metrics path must start with '/': %q", path)
	}

	if raw.Settings.Monitor.Interval < 0 {
		return fmt.Errorf("monitor interval cannot be negative: %s", raw.Settings.Monitor.Interval)
	}

	return nil
}
