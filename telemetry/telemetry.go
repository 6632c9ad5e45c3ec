// Package telemetry installs the OpenTelemetry tracer provider used to trace
// scan chunks.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"github.com/colorfulnotion/a64map/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const ServiceName = "a64map"

// Span and attribute names shared by the scanners.
const (
	SpanChunk = "sweep.chunk"
	SpanRun   = "sweep.run"

	AttrJob     = "a64map.job"
	AttrLo      = "a64map.lo"
	AttrHi      = "a64map.hi"
	AttrScanned = "a64map.scanned"
	AttrSkipped = "a64map.skipped"
	AttrMarked  = "a64map.marked"
	AttrOracle  = "a64map.oracle"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// Init exports spans over OTLP/HTTP to endpoint. An empty endpoint keeps the
// global no-op provider. endpoint is either host:port or a full URL.
func Init(ctx context.Context, endpoint string, version string) (ShutdownFunc, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	var opt otlptracehttp.Option
	if strings.Contains(endpoint, "://") {
		opt = otlptracehttp.WithEndpointURL(endpoint)
	} else {
		opt = otlptracehttp.WithEndpoint(endpoint)
	}
	exp, err := otlptracehttp.New(ctx, opt, otlptracehttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("otlp exporter %s: %w", endpoint, err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Info(log.TelemetryMonitoring, "tracing enabled", "endpoint", endpoint)
	return tp.Shutdown, nil
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
