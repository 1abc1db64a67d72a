// Package server owns the HTTP surface of the exporter.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/neox5/redisbox/internal/config"
	"github.com/neox5/redisbox/internal/exporter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	healthzPath = config.HealthPath

	shutdownTimeout = 5 * time.Second
)

// Options configures the HTTP surface.
type Options struct {
	// Addr is the listen address, host:port.
	Addr        string
	MetricsPath string

	// InternalMetricsPath serves the exporter's own metrics when set.
	InternalMetricsPath string
}

// Server provides HTTP server for Prometheus metrics.
type Server struct {
	addr   string
	path   string
	server *http.Server
}

// New creates a new HTTP server that scrapes source on every metrics request.
func New(opts Options, source exporter.Snapshotter) *Server {
	mux := http.NewServeMux()

	var handler http.Handler = metricsHandler(source)

	if opts.InternalMetricsPath != "" {
		internal := prometheus.NewRegistry()
		internal.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		handler = instrumentScrapes(internal, handler)
		handler = promhttp.InstrumentMetricHandler(internal, handler)

		mux.Handle(opts.InternalMetricsPath, promhttp.HandlerFor(
			internal,
			promhttp.HandlerOpts{
				EnableOpenMetrics: true,
			},
		))

		slog.Info("enabled internal metrics", "path", opts.InternalMetricsPath)
	}

	mux.Handle(opts.MetricsPath, loggingMiddleware(handler))
	mux.HandleFunc(healthzPath, healthHandler)

	return &Server{
		addr: opts.Addr,
		path: opts.MetricsPath,
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving HTTP requests and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		slog.Info("starting server", "addr", s.addr, "path", s.path)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.shutdown()
	}
}

// shutdown gracefully stops the server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("shutting down server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness without touching Redis.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// loggingMiddleware logs scrape requests when debug logging is enabled
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("prometheus scrape", "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
