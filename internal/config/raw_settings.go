package config

import "time"

// RawSettingsConfig holds general application settings
type RawSettingsConfig struct {
	InternalMetrics RawInternalMetricsConfig `yaml:"internal_metrics"`
	Monitor         RawMonitorConfig         `yaml:"monitor"`
}

// RawInternalMetricsConfig controls redisbox's self-monitoring metrics
type RawInternalMetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RawMonitorConfig controls the resource usage log
type RawMonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
}
