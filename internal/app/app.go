package app

import (
	"context"
	"fmt"

	"github.com/neox5/redisbox/internal/config"
	"github.com/neox5/redisbox/internal/exporter"
	"github.com/neox5/redisbox/internal/metric"
	"github.com/neox5/redisbox/internal/server"
	"github.com/neox5/redisbox/internal/store"
)

// App holds initialized application components.
type App struct {
	Config       *config.Config
	Store        *store.Client
	Metrics      *metric.Registry
	Exporter     *exporter.Exporter
	Server       *server.Server
	OTELExporter *exporter.OTELExporter
}

// New initializes the application from a resolved configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	client, err := store.New(store.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		Timeout:  cfg.Redis.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	metrics, err := metric.New(cfg.Export.Namespace)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	exp := exporter.New(client, metrics, exporter.WithEmptyDatabases(cfg.Export.IncludeEmptyDatabases))

	var srv *server.Server
	var otelExporter *exporter.OTELExporter

	// Create Prometheus endpoint if enabled
	if cfg.Export.PrometheusEnabled() {
		opts := server.Options{
			Addr:        cfg.Export.Prometheus.Address,
			MetricsPath: cfg.Export.Prometheus.Path,
		}
		if cfg.Settings.InternalMetrics.Enabled {
			opts.InternalMetricsPath = cfg.Settings.InternalMetrics.Path
		}
		srv = server.New(opts, exp)
	}

	// Create OTEL exporter if enabled
	if cfg.Export.OTELEnabled() {
		otelExporter, err = exporter.NewOTELExporter(ctx, cfg.Export.OTEL, metrics, exp)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to create OTEL exporter: %w", err)
		}
	}

	return &App{
		Config:       cfg,
		Store:        client,
		Metrics:      metrics,
		Exporter:     exp,
		Server:       srv,
		OTELExporter: otelExporter,
	}, nil
}

// Close releases the Redis connection pool.
func (a *App) Close() error {
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}
