package exporter

import (
	"context"
	"fmt"

	"github.com/neox5/redisbox/internal/config"
	"github.com/neox5/redisbox/internal/version"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// createOTELResource creates an OTEL resource from configuration attributes.
// Configured attributes take precedence over the service defaults.
func createOTELResource(ctx context.Context, resourceAttrs map[string]string) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(config.DefaultServiceName),
		semconv.ServiceVersionKey.String(version.String()),
	}
	for k, v := range resourceAttrs {
		attrs = append(attrs, attribute.String(k, v))
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}
