package config

import "time"

const (
	DefaultInternalMetricsPath = "/internal/metrics"
)

// SettingsConfig holds general application settings.
type SettingsConfig struct {
	InternalMetrics InternalMetricsConfig
	Monitor         MonitorConfig
}

// InternalMetricsConfig controls redisbox's self-monitoring metrics.
type InternalMetricsConfig struct {
	Enabled bool
	Path    string
}

// MonitorConfig controls the periodic resource usage log.
// A zero interval disables it.
type MonitorConfig struct {
	Interval time.Duration
}

// Validate applies defaults and validates settings configuration.
func (s *SettingsConfig) Validate() error {
	if s.InternalMetrics.Path == "" {
		s.InternalMetrics.Path = DefaultInternalMetricsPath
	}
	return nil
}
