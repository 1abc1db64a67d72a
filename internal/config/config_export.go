package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// Prometheus defaults
	DefaultNamespace             = "redis"
	DefaultIncludeEmptyDatabases = true
	DefaultPrometheusAddress     = ":9999"
	DefaultPrometheusPath        = "/metrics"

	// HealthPath is served next to the metrics endpoint and cannot be reused.
	HealthPath = "/healthz"

	// OTEL defaults
	DefaultOTELPushInterval = 10 * time.Second
	DefaultOTELTransport    = "grpc"
	DefaultOTELHost         = "localhost"
	DefaultOTELPortGRPC     = 4317
	DefaultOTELPortHTTP     = 4318
	DefaultServiceName      = "redisbox"
)

// ExportConfig defines how metrics are exposed.
type ExportConfig struct {
	Namespace string
	// IncludeEmptyDatabases zero-fills per-database series for databases
	// absent from the keyspace section.
	IncludeEmptyDatabases bool
	Prometheus            *PrometheusExportConfig
	OTEL                  *OTELExportConfig
}

// Validate applies defaults and validates export configuration.
func (e *ExportConfig) Validate() error {
	// Default to Prometheus enabled if no exporters configured
	if e.Prometheus == nil && e.OTEL == nil {
		e.Prometheus = &PrometheusExportConfig{
			Enabled: true,
			Address: DefaultPrometheusAddress,
			Path:    DefaultPrometheusPath,
		}
		return nil
	}

	// Validate individual exporters
	if e.Prometheus != nil && e.Prometheus.Enabled {
		if err := e.Prometheus.Validate(); err != nil {
			return err
		}
	}

	if e.OTEL != nil && e.OTEL.Enabled {
		if err := e.OTEL.Validate(); err != nil {
			return err
		}
	}

	// Verify at least one exporter enabled
	if !e.PrometheusEnabled() && !e.OTELEnabled() {
		return fmt.Errorf("at least one exporter must be enabled")
	}

	return nil
}

// PrometheusEnabled reports whether the pull endpoint is served.
func (e *ExportConfig) PrometheusEnabled() bool {
	return e.Prometheus != nil && e.Prometheus.Enabled
}

// OTELEnabled reports whether metrics are pushed over OTLP.
func (e *ExportConfig) OTELEnabled() bool {
	return e.OTEL != nil && e.OTEL.Enabled
}

// PrometheusExportConfig defines Prometheus pull endpoint settings.
type PrometheusExportConfig struct {
	Enabled bool
	// Address is the listen address, host:port. An empty host binds all interfaces.
	Address string
	Path    string
}

// Validate applies defaults and validates Prometheus configuration.
func (c *PrometheusExportConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	// Apply defaults
	if c.Address == "" {
		c.Address = DefaultPrometheusAddress
	}
	if c.Path == "" {
		c.Path = DefaultPrometheusPath
	}

	_, port, err := net.SplitHostPort(c.Address)
	if err != nil {
		return fmt.Errorf("invalid prometheus listen address %q: %w", c.Address, err)
	}

	// Validate port range
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("invalid prometheus port in listen address %q", c.Address)
	}

	return nil
}

// OTELExportConfig defines OTEL push settings.
type OTELExportConfig struct {
	Enabled   bool
	Transport string
	Host      string
	Port      int
	Insecure  bool
	Interval  IntervalConfig
	Resource  map[string]string
	Headers   map[string]string
}

// IntervalConfig defines the push interval and per-push timeout for OTEL.
type IntervalConfig struct {
	Push    time.Duration
	Timeout time.Duration
}

// Validate applies defaults and validates OTEL configuration.
func (c *OTELExportConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	// Apply transport default
	if c.Transport == "" {
		c.Transport = DefaultOTELTransport
	}

	// Validate transport
	if c.Transport != "grpc" && c.Transport != "http" {
		return fmt.Errorf("invalid transport: %s (must be grpc or http)", c.Transport)
	}

	// Apply host default
	if c.Host == "" {
		c.Host = DefaultOTELHost
	}

	// Apply port default based on transport
	if c.Port == 0 {
		if c.Transport == "grpc" {
			c.Port = DefaultOTELPortGRPC
		} else {
			c.Port = DefaultOTELPortHTTP
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid otel port: %d", c.Port)
	}

	// Apply interval defaults
	if c.Interval.Push == 0 {
		c.Interval.Push = DefaultOTELPushInterval
	}
	if c.Interval.Push < 0 {
		return fmt.Errorf("otel push interval must be positive")
	}
	if c.Interval.Timeout < 0 || c.Interval.Timeout > c.Interval.Push {
		return fmt.Errorf("otel push timeout must be between 0 and the push interval")
	}

	if c.Resource == nil {
		c.Resource = make(map[string]string)
	}

	return nil
}

// GetEndpoint returns the full endpoint address.
func (c *OTELExportConfig) GetEndpoint() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
