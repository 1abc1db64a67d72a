package config

import (
	"fmt"
	"maps"
)

// Resolve applies defaults to a raw config and builds the final config
func Resolve(raw *RawConfig) (*Config, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}

	redis, err := resolveRedis(&raw.Redis)
	if err != nil {
		return nil, err
	}

	export, err := resolveExport(&raw.Export)
	if err != nil {
		return nil, err
	}

	settings, err := resolveSettings(&raw.Settings)
	if err != nil {
		return nil, err
	}

	if err := validatePaths(export, settings); err != nil {
		return nil, err
	}

	return &Config{
		Redis:    redis,
		Export:   export,
		Settings: settings,
	}, nil
}

func resolveRedis(raw *RawRedisConfig) (RedisConfig, error) {
	cfg := RedisConfig{
		Addr:     raw.Addr,
		Username: raw.Username,
		Password: raw.Password,
		Timeout:  raw.Timeout,
	}
	if err := cfg.Validate(); err != nil {
		return RedisConfig{}, fmt.Errorf("redis: %w", err)
	}
	return cfg, nil
}

func resolveExport(raw *RawExportConfig) (ExportConfig, error) {
	cfg := ExportConfig{
		Namespace:             DefaultNamespace,
		IncludeEmptyDatabases: DefaultIncludeEmptyDatabases,
	}
	if raw.Namespace != nil {
		cfg.Namespace = *raw.Namespace
	}
	if raw.IncludeEmptyDatabases != nil {
		cfg.IncludeEmptyDatabases = *raw.IncludeEmptyDatabases
	}

	if raw.Prometheus != nil {
		cfg.Prometheus = &PrometheusExportConfig{
			Enabled: raw.Prometheus.Enabled,
			Address: raw.Prometheus.Address,
			Path:    raw.Prometheus.Path,
		}
	}

	if raw.OTEL != nil {
		insecure := true
		if raw.OTEL.Insecure != nil {
			insecure = *raw.OTEL.Insecure
		}
		cfg.OTEL = &OTELExportConfig{
			Enabled:   raw.OTEL.Enabled,
			Transport: raw.OTEL.Transport,
			Host:      raw.OTEL.Host,
			Port:      raw.OTEL.Port,
			Insecure:  insecure,
			Interval: IntervalConfig{
				Push:    raw.OTEL.Interval.Push,
				Timeout: raw.OTEL.Interval.Timeout,
			},
			Resource: maps.Clone(raw.OTEL.Resource),
			Headers:  maps.Clone(raw.OTEL.Headers),
		}
	}

	if err := cfg.Validate(); err != nil {
		return ExportConfig{}, fmt.Errorf("export: %w", err)
	}
	return cfg, nil
}

func resolveSettings(raw *RawSettingsConfig) (SettingsConfig, error) {
	cfg := SettingsConfig{
		InternalMetrics: InternalMetricsConfig{
			Enabled: raw.InternalMetrics.Enabled,
			Path:    raw.InternalMetrics.Path,
		},
		Monitor: MonitorConfig{
			Interval: raw.Monitor.Interval,
		},
	}
	if err := cfg.Validate(); err != nil {
		return SettingsConfig{}, fmt.Errorf("settings: %w", err)
	}
	return cfg, nil
}

// validatePaths rejects HTTP paths that would be registered twice on the
// server mux.
func validatePaths(export ExportConfig, settings SettingsConfig) error {
	if export.PrometheusEnabled() && export.Prometheus.Path == HealthPath {
		return fmt.Errorf("prometheus path %q is reserved for health checks", HealthPath)
	}

	if !settings.InternalMetrics.Enabled {
		return nil
	}
	if !export.PrometheusEnabled() {
		return fmt.Errorf("internal metrics require the prometheus exporter")
	}
	if settings.InternalMetrics.Path == HealthPath {
		return fmt.Errorf("internal metrics path %q is reserved for health checks", HealthPath)
	}
	if settings.InternalMetrics.Path == export.Prometheus.Path {
		return fmt.Errorf("internal metrics path %q collides with prometheus path", settings.InternalMetrics.Path)
	}
	return nil
}
