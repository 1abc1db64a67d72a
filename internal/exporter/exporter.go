// Package exporter translates Redis INFO output into metric families.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neox5/redisbox/internal/metric"
	"github.com/neox5/redisbox/internal/store"
	dto "github.com/prometheus/client_model/go"
)

// ErrCommand marks a reachable server that failed to answer INFO.
var ErrCommand = errors.New("redis INFO command failed")

// InfoSource returns the raw text of an INFO reply.
type InfoSource interface {
	Info(ctx context.Context) (string, error)
}

// Exporter runs scrapes against an InfoSource and keeps a metric registry current.
// Scrapes are serialized: a second Collect waits until the first returns.
type Exporter struct {
	mu      sync.Mutex
	source  InfoSource
	metrics *metric.Registry

	includeEmptyDatabases bool
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithEmptyDatabases reports db_keys and db_keys_expiring as zero for
// databases missing from the keyspace section of a master.
func WithEmptyDatabases(include bool) Option {
	return func(e *Exporter) {
		e.includeEmptyDatabases = include
	}
}

// New creates an exporter over source and metrics.
func New(source InfoSource, metrics *metric.Registry, opts ...Option) *Exporter {
	e := &Exporter{
		source:  source,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Collect performs one scrape and returns the current snapshot.
//
// When the server cannot be reached the snapshot holds only the liveness
// gauge at 0. Error replies and malformed keyspace figures are returned as
// errors with liveness set to 0 and the registry left as it was.
func (e *Exporter) Collect(ctx context.Context) ([]*dto.MetricFamily, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()

	text, err := e.source.Info(ctx)
	if err != nil {
		e.metrics.Up.Set(0)

		if errors.Is(err, store.ErrConnection) {
			slog.Warn("redis unreachable", "error", err)
			return e.metrics.Gather(false, nil)
		}

		return nil, fmt.Errorf("%w: %w", ErrCommand, err)
	}

	s, err := translate(text, e.metrics)
	if err != nil {
		e.metrics.Up.Set(0)
		return nil, fmt.Errorf("failed to translate INFO reply: %w", err)
	}

	s.apply(e.metrics)
	e.metrics.Up.Set(1)

	partitions := s.partitionList(e.includeEmptyDatabases)

	slog.Debug("scrape complete",
		"role", s.role,
		"updated", len(s.updates),
		"skipped", s.skipped,
		"partitions", len(partitions),
		"duration", time.Since(start))

	return e.metrics.Gather(true, partitions)
}
