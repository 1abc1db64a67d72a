package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, DefaultRedisAddr, cfg.Redis.Addr)
	require.Equal(t, DefaultRedisTimeout, cfg.Redis.Timeout)
	require.Equal(t, DefaultNamespace, cfg.Export.Namespace)
	require.True(t, cfg.Export.IncludeEmptyDatabases)

	require.True(t, cfg.Export.PrometheusEnabled())
	require.Equal(t, DefaultPrometheusAddress, cfg.Export.Prometheus.Address)
	require.Equal(t, DefaultPrometheusPath, cfg.Export.Prometheus.Path)
	require.False(t, cfg.Export.OTELEnabled(), "otel must be disabled by default")

	require.False(t, cfg.Settings.InternalMetrics.Enabled)
	require.Equal(t, DefaultInternalMetricsPath, cfg.Settings.InternalMetrics.Path)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
redis:
  addr: cache.internal:6380
  username: exporter
  password: s3cret
  timeout: 2s
export:
  namespace: ""
  include_empty_databases: false
  prometheus:
    enabled: true
    address: 127.0.0.1:9121
  otel:
    enabled: true
    transport: http
    insecure: false
    interval:
      push: 30s
      timeout: 10s
    resource:
      deployment.environment: staging
settings:
  internal_metrics:
    enabled: true
  monitor:
    interval: 1m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, RedisConfig{
		Addr:     "cache.internal:6380",
		Username: "exporter",
		Password: "s3cret",
		Timeout:  2 * time.Second,
	}, cfg.Redis)
	require.Empty(t, cfg.Export.Namespace)
	require.False(t, cfg.Export.IncludeEmptyDatabases)
	require.Equal(t, "127.0.0.1:9121", cfg.Export.Prometheus.Address)
	require.Equal(t, DefaultPrometheusPath, cfg.Export.Prometheus.Path)

	otel := cfg.Export.OTEL
	require.Equal(t, DefaultOTELPortHTTP, otel.Port)
	require.Equal(t, DefaultOTELHost, otel.Host)
	require.False(t, otel.Insecure)
	require.Equal(t, IntervalConfig{Push: 30 * time.Second, Timeout: 10 * time.Second}, otel.Interval)
	require.Equal(t, "localhost:4318", otel.GetEndpoint())
	require.Equal(t, "staging", otel.Resource["deployment.environment"])

	require.Equal(t, time.Minute, cfg.Settings.Monitor.Interval)
	require.True(t, cfg.Settings.InternalMetrics.Enabled)
}

func TestIntervalSimpleForm(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
export:
  otel:
    enabled: true
    interval: 15s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 15*time.Second, cfg.Export.OTEL.Interval.Push)
	require.Equal(t, DefaultOTELPortGRPC, cfg.Export.OTEL.Port)
	require.True(t, cfg.Export.OTEL.Insecure)
	require.False(t, cfg.Export.PrometheusEnabled(), "prometheus must stay disabled when only otel is configured")
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "redis:\n  addr: file-host:6379\n")

	cfg, err := Load(path, func(raw *RawConfig) {
		raw.Redis.Addr = "flag-host:7000"
		raw.Redis.Password = "from-env"
	})
	require.NoError(t, err)

	require.Equal(t, "flag-host:7000", cfg.Redis.Addr)
	require.Equal(t, "from-env", cfg.Redis.Password)
}

func TestListenAddressForms(t *testing.T) {
	t.Parallel()

	for _, addr := range []string{":9999", "0.0.0.0:9121", "[::1]:8080", "localhost:9999"} {
		t.Run(addr, func(t *testing.T) {
			t.Parallel()

			cfg, err := Load("", func(raw *RawConfig) {
				raw.Export.Prometheus = &RawPrometheusExportConfig{Enabled: true, Address: addr}
			})
			require.NoError(t, err)
			require.Equal(t, addr, cfg.Export.Prometheus.Address)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad yaml", content: "redis: [", wantErr: "failed to parse YAML"},
		{name: "address without port", content: "redis:\n  addr: localhost\n", wantErr: "invalid redis address"},
		{name: "negative timeout", content: "redis:\n  timeout: -1s\n", wantErr: "redis timeout"},
		{name: "listen address without port", content: "export:\n  prometheus:\n    enabled: true\n    address: localhost\n", wantErr: "invalid prometheus listen address"},
		{name: "port out of range", content: "export:\n  prometheus:\n    enabled: true\n    address: \":70000\"\n", wantErr: "invalid prometheus port"},
		{name: "named port", content: "export:\n  prometheus:\n    enabled: true\n    address: \":http\"\n", wantErr: "invalid prometheus port"},
		{name: "relative path", content: "export:\n  prometheus:\n    enabled: true\n    path: metrics\n", wantErr: "must start with '/'"},
		{name: "metrics on health path", content: "export:\n  prometheus:\n    enabled: true\n    path: /healthz\n", wantErr: "reserved for health checks"},
		{name: "bad transport", content: "export:\n  otel:\n    enabled: true\n    transport: udp\n", wantErr: "invalid transport"},
		{name: "nothing enabled", content: "export:\n  prometheus:\n    enabled: false\n", wantErr: "at least one exporter"},
		{
			name:    "timeout longer than interval",
			content: "export:\n  otel:\n    enabled: true\n    interval:\n      push: 5s\n      timeout: 10s\n",
			wantErr: "push timeout",
		},
		{
			name:    "internal path collision",
			content: "settings:\n  internal_metrics:\n    enabled: true\n    path: /metrics\n",
			wantErr: "collides",
		},
		{
			name:    "internal metrics on health path",
			content: "settings:\n  internal_metrics:\n    enabled: true\n    path: /healthz\n",
			wantErr: "reserved for health checks",
		},
		{
			name:    "internal metrics without prometheus",
			content: "export:\n  otel:\n    enabled: true\nsettings:\n  internal_metrics:\n    enabled: true\n",
			wantErr: "require the prometheus exporter",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(writeConfig(t, tc.content))
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestHealthPathUnusedWhenDisabled(t *testing.T) {
	t.Parallel()

	// A disabled internal metrics path is never registered.
	path := writeConfig(t, "settings:\n  internal_metrics:\n    enabled: false\n    path: /healthz\n")

	_, err := Load(path)
	require.NoError(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
