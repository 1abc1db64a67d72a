package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neox5/redisbox/internal/config"
	"github.com/neox5/redisbox/internal/metric"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/neox5/redisbox"

// Snapshotter produces the current metric families. *Exporter implements it.
type Snapshotter interface {
	Collect(ctx context.Context) ([]*dto.MetricFamily, error)
}

// OTELExporter pushes metrics to an OTEL collector.
// Every push cycle runs one scrape through the Snapshotter.
type OTELExporter struct {
	config        *config.OTELExportConfig
	meterProvider *sdkmetric.MeterProvider
	gauges        map[string]otelmetric.Float64ObservableGauge
}

// NewOTELExporter creates a new OTEL exporter.
func NewOTELExporter(
	ctx context.Context,
	cfg *config.OTELExportConfig,
	metrics *metric.Registry,
	source Snapshotter,
) (*OTELExporter, error) {
	res, err := createOTELResource(ctx, cfg.Resource)
	if err != nil {
		return nil, err
	}

	meterProvider, err := createMeterProvider(ctx, cfg, res)
	if err != nil {
		return nil, err
	}

	gauges, err := registerOTELInstruments(meterProvider.Meter(meterName), metrics, source)
	if err != nil {
		_ = meterProvider.Shutdown(ctx)
		return nil, err
	}

	return &OTELExporter{
		config:        cfg,
		meterProvider: meterProvider,
		gauges:        gauges,
	}, nil
}

// registerOTELInstruments creates one observable gauge per exposed family
// and a callback that scrapes once per collection. Prometheus labels become
// attributes.
func registerOTELInstruments(
	meter otelmetric.Meter,
	metrics *metric.Registry,
	source Snapshotter,
) (map[string]otelmetric.Float64ObservableGauge, error) {
	descriptors := append([]metric.Descriptor{metric.UpDescriptor}, metric.Descriptors...)
	descriptors = append(descriptors, metric.PartitionDescriptors...)

	gauges := make(map[string]otelmetric.Float64ObservableGauge, len(descriptors))
	observables := make([]otelmetric.Observable, 0, len(descriptors))

	for _, d := range descriptors {
		name := metrics.FullName(d.Name)

		gauge, err := meter.Float64ObservableGauge(
			name,
			otelmetric.WithDescription(d.Description),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create gauge %q: %w", name, err)
		}

		gauges[name] = gauge
		observables = append(observables, gauge)

		slog.Debug("registered otel metric", "name", name)
	}

	_, err := meter.RegisterCallback(
		func(ctx context.Context, observer otelmetric.Observer) error {
			families, err := source.Collect(ctx)
			if err != nil {
				return fmt.Errorf("failed to collect redis metrics: %w", err)
			}

			observed := 0
			for _, mf := range families {
				gauge, ok := gauges[mf.GetName()]
				if !ok {
					continue
				}
				for _, m := range mf.GetMetric() {
					observer.ObserveFloat64(gauge, m.GetGauge().GetValue(),
						otelmetric.WithAttributes(labelAttributes(m)...))
					observed++
				}
			}

			slog.Debug("otel push", "metrics", observed)
			return nil
		},
		observables...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register callback: %w", err)
	}

	return gauges, nil
}

func labelAttributes(m *dto.Metric) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		attrs = append(attrs, attribute.String(l.GetName(), l.GetValue()))
	}
	return attrs
}

// Start blocks until ctx is cancelled and then shuts the exporter down.
// The periodic reader pushes on its own schedule in the meantime.
func (e *OTELExporter) Start(ctx context.Context) error {
	slog.Info("starting otel exporter",
		"endpoint", e.config.GetEndpoint(),
		"transport", e.config.Transport,
		"push_interval", e.config.Interval.Push,
		"metrics", len(e.gauges),
	)

	<-ctx.Done()
	return e.Stop()
}

// Stop flushes pending data and shuts down the meter provider.
func (e *OTELExporter) Stop() error {
	slog.Info("shutting down otel exporter")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return e.meterProvider.Shutdown(ctx)
}
