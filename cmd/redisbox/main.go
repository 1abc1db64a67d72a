package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/neox5/redisbox/internal/app"
	"github.com/neox5/redisbox/internal/config"
	"github.com/neox5/redisbox/internal/monitor"
	"github.com/neox5/redisbox/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:    "redisbox",
		Usage:   "Prometheus exporter for Redis INFO statistics",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file (optional)",
				Sources: cli.EnvVars("REDIS_EXPORTER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "redis.addr",
				Usage:   "Redis address (host:port)",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis.user",
				Usage:   "Redis username",
				Sources: cli.EnvVars("REDIS_USER"),
			},
			&cli.StringFlag{
				Name:    "redis.password",
				Usage:   "Redis password",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "namespace",
				Usage:   "namespace prefixed to every metric name",
				Sources: cli.EnvVars("REDIS_EXPORTER_NAMESPACE"),
			},
			&cli.StringFlag{
				Name:    "web.listen-address",
				Value:   config.DefaultPrometheusAddress,
				Usage:   "address to listen on for the metrics endpoint",
				Sources: cli.EnvVars("REDIS_EXPORTER_WEB_LISTEN_ADDRESS"),
			},
			&cli.BoolFlag{
				Name:    "include-metrics-for-empty-databases",
				Value:   config.DefaultIncludeEmptyDatabases,
				Usage:   "emit db_keys and db_keys_expiring for empty databases",
				Sources: cli.EnvVars("REDIS_EXPORTER_INCL_METRICS_FOR_EMPTY_DATABASES"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "log output format: text or json",
				Sources: cli.EnvVars("REDIS_EXPORTER_LOG_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("REDIS_EXPORTER_DEBUG"),
			},
		},
		Action: serve,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	logger, err := newLogger(cmd.String("log-format"), cmd.Bool("debug"))
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	slog.Info("starting redisbox", "version", version.String(), "config", configPath)

	// Load configuration
	cfg, err := config.Load(configPath, flagOverrides(cmd)...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup graceful shutdown
	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(shutdownCtx, cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}()

	slog.Info("scraping redis", "addr", cfg.Redis.Addr, "namespace", cfg.Export.Namespace)

	// Start resource monitor
	if cfg.Settings.Monitor.Interval > 0 {
		mon, err := monitor.New(cfg.Settings.Monitor.Interval, logger)
		if err != nil {
			slog.Warn("resource monitor disabled", "error", err)
		} else {
			mon.Run(shutdownCtx)
			defer mon.Wait()
		}
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	if application.Server != nil {
		wg.Go(func() {
			if err := application.Server.Start(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("prometheus server: %w", err)
			}
		})
	}

	if application.OTELExporter != nil {
		wg.Go(func() {
			if err := application.OTELExporter.Start(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("otel exporter: %w", err)
			}
		})
	}

	// Wait for shutdown or error
	var runErr error
	select {
	case runErr = <-errChan:
		slog.Error("exporter error", "error", runErr)
		stop() // Cancel context to trigger shutdown
	case <-shutdownCtx.Done():
		// Graceful shutdown triggered
	}

	wg.Wait()

	slog.Info("shutdown complete")
	return runErr
}

// flagOverrides turns explicitly set flags and environment variables into
// config overrides. Unset flags leave file values alone, so a flag's Value
// only documents the config default.
func flagOverrides(cmd *cli.Command) []config.Override {
	var overrides []config.Override

	if cmd.IsSet("redis.addr") {
		addr := cmd.String("redis.addr")
		overrides = append(overrides, func(raw *config.RawConfig) { raw.Redis.Addr = addr })
	}
	if cmd.IsSet("redis.user") {
		user := cmd.String("redis.user")
		overrides = append(overrides, func(raw *config.RawConfig) { raw.Redis.Username = user })
	}
	if cmd.IsSet("redis.password") {
		password := cmd.String("redis.password")
		overrides = append(overrides, func(raw *config.RawConfig) { raw.Redis.Password = password })
	}
	if cmd.IsSet("namespace") {
		namespace := cmd.String("namespace")
		overrides = append(overrides, func(raw *config.RawConfig) { raw.Export.Namespace = &namespace })
	}
	if cmd.IsSet("include-metrics-for-empty-databases") {
		include := cmd.Bool("include-metrics-for-empty-databases")
		overrides = append(overrides, func(raw *config.RawConfig) { raw.Export.IncludeEmptyDatabases = &include })
	}
	if cmd.IsSet("web.listen-address") {
		address := cmd.String("web.listen-address")
		overrides = append(overrides, func(raw *config.RawConfig) {
			if raw.Export.Prometheus == nil {
				raw.Export.Prometheus = &config.RawPrometheusExportConfig{Enabled: true}
			}
			raw.Export.Prometheus.Address = address
		})
	}

	return overrides
}
