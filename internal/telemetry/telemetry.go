// Package telemetry bootstraps the OpenTelemetry tracer provider. The
// exporter is selected by configuration: "none" leaves the global no-op
// provider in place, "stdout" pretty-prints spans, "otlp" ships them to a
// collector over gRPC.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/relenghq/releng/internal/config"
	"github.com/relenghq/releng/internal/log"
)

const serviceName = "releng"

// Shutdown flushes and stops the tracer provider. It is a no-op when no
// exporter was configured.
type Shutdown func(ctx context.Context) error

// Init installs the global tracer provider per the telemetry config and
// returns its shutdown hook.
func Init(ctx context.Context, cfg config.TelemetryConfig) (Shutdown, error) {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.Exporter {
	case "", "none":
		return func(context.Context) error { return nil }, nil
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unknown telemetry exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", cfg.Exporter, err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	log.Debug(log.CatTelemetry, "tracer provider installed", "exporter", cfg.Exporter)

	return func(ctx context.Context) error {
		return provider.Shutdown(ctx)
	}, nil
}
