package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/neox5/redisbox/internal/config"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	cases := []struct {
		format  string
		debug   bool
		wantErr bool
	}{
		{format: "text"},
		{format: "JSON", debug: true},
		{format: ""},
		{format: "plain", wantErr: true},
	}

	for _, tc := range cases {
		logger, err := newLogger(tc.format, tc.debug)
		if tc.wantErr {
			require.Error(t, err, tc.format)
			continue
		}
		require.NoError(t, err, tc.format)
		require.Equal(t, tc.debug, logger.Enabled(context.Background(), slog.LevelDebug), tc.format)
	}
}

// loadWithFlags runs a command carrying the override flags and resolves the
// config the way serve does.
func loadWithFlags(t *testing.T, path string, args ...string) *config.Config {
	t.Helper()

	var got *config.Config

	cmd := &cli.Command{
		Name: "redisbox",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "redis.addr"},
			&cli.StringFlag{Name: "redis.user"},
			&cli.StringFlag{Name: "redis.password"},
			&cli.StringFlag{Name: "namespace"},
			&cli.StringFlag{Name: "web.listen-address", Value: config.DefaultPrometheusAddress},
			&cli.BoolFlag{Name: "include-metrics-for-empty-databases", Value: config.DefaultIncludeEmptyDatabases},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(path, flagOverrides(cmd)...)
			got = cfg
			return err
		},
	}

	require.NoError(t, cmd.Run(context.Background(), append([]string{"redisbox"}, args...)))
	return got
}

func TestFlagOverrides(t *testing.T) {
	t.Parallel()

	got := loadWithFlags(t, "",
		"--redis.addr", "cache:6380",
		"--redis.password", "pw",
		"--namespace", "",
		"--web.listen-address", "127.0.0.1:9121",
		"--include-metrics-for-empty-databases=false",
	)

	require.Equal(t, "cache:6380", got.Redis.Addr)
	require.Equal(t, "pw", got.Redis.Password)
	require.Empty(t, got.Redis.Username)
	require.Empty(t, got.Export.Namespace)
	require.False(t, got.Export.IncludeEmptyDatabases)
	require.Equal(t, "127.0.0.1:9121", got.Export.Prometheus.Address)
	require.Equal(t, config.DefaultPrometheusPath, got.Export.Prometheus.Path)
}

func TestUnsetFlagsKeepFileValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "export:\n  include_empty_databases: false\n  prometheus:\n    enabled: true\n    address: 10.0.0.1:9200\n")

	got := loadWithFlags(t, path)

	require.Equal(t, "10.0.0.1:9200", got.Export.Prometheus.Address)
	require.False(t, got.Export.IncludeEmptyDatabases)
	require.Equal(t, config.DefaultRedisAddr, got.Redis.Addr)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
