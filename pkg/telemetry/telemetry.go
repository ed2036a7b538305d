// Package telemetry wires OpenTelemetry tracing for gamestate tools.
package telemetry

import (
	"context"
	"os"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	serviceName    = "gamestate"
	serviceVersion = "0.1.0"
)

// Option adjusts Setup.
type Option func(*setupConfig)

type setupConfig struct {
	serviceName string
	exporter    sdktrace.SpanExporter
}

// WithServiceName overrides the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(cfg *setupConfig) {
		if name != "" {
			cfg.serviceName = name
		}
	}
}

// WithExporter replaces the OTLP HTTP exporter.
func WithExporter(exporter sdktrace.SpanExporter) Option {
	return func(cfg *setupConfig) {
		cfg.exporter = exporter
	}
}

// Setup installs a global tracer provider. Without WithExporter spans go to
// an OTLP HTTP exporter configured from the standard OTEL_* variables
// (OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_HEADERS).
//
// The returned shutdown flushes pending spans and must be called on exit.
func Setup(ctx context.Context, opts ...Option) (shutdown func(context.Context) error, err error) {
	cfg := setupConfig{serviceName: serviceName}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	exporter := cfg.exporter
	if exporter == nil {
		exporter, err = otlptracehttp.New(ctx)
		if err != nil {
			return nil, err
		}
	}

	// Built without resource.Default() to avoid schema URL conflicts.
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.serviceName),
			attribute.String("service.version", serviceVersion),
			attribute.String("host.name", hostname()),
			attribute.String("os.type", runtime.GOOS),
			attribute.String("process.runtime.name", "go"),
			attribute.String("process.runtime.version", runtime.Version()),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns a tracer named after component from the global provider.
func Tracer(component string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(serviceName + "/" + component)
}

// NoopTracer returns a tracer that records nothing.
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer(serviceName + "/noop")
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
