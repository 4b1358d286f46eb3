// Package tracing wires the engine's own trace_id/run_id/span_id/
// parent_span_id correlation metadata onto a real OpenTelemetry tracer, so
// every block execution opens a genuine span instead of inventing a parallel
// bookkeeping scheme. A nil/no-op Provider is always a safe default.
package tracing

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Exporter selects where spans are sent.
type Exporter string

const (
	ExporterNone   Exporter = "none"
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
)

// Provider manages a tracer and its span export pipeline for one service.
type Provider struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// NewProvider builds a Provider for serviceName using the given exporter.
// ExporterNone yields a Provider backed by OTel's global no-op tracer, so
// callers never need to branch on whether tracing is enabled.
func NewProvider(serviceName string, exporter Exporter) (*Provider, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("tracing: service name cannot be empty")
	}

	if exporter == ExporterNone || exporter == "" {
		return &Provider{tracer: otel.Tracer(serviceName)}, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing: build resource: %w", err)
	}

	var exp sdktrace.SpanExporter
	switch exporter {
	case ExporterStdout:
		exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("tracing: build stdout exporter: %w", err)
		}
	case ExporterOTLP:
		exp, err = newOTLPExporter()
		if err != nil {
			return nil, fmt.Errorf("tracing: build otlp exporter: %w", err)
		}
	default:
		return nil, fmt.Errorf("tracing: unknown exporter %q", exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)

	return &Provider{
		tracer:   tp.Tracer(serviceName),
		shutdown: tp.Shutdown,
	}, nil
}

// newOTLPExporter builds the gRPC OTLP exporter a production deployment
// points at a collector. The collector endpoint comes from the standard
// OTEL_EXPORTER_OTLP_ENDPOINT env var (same variable the teacher's
// pkg/telemetry reads), defaulting to the collector sidecar convention when
// unset. WithInsecure matches the teacher's own exporter setup; a deployment
// terminating TLS at the collector is expected to front it with a sidecar
// rather than configure TLS here.
func newOTLPExporter() (sdktrace.SpanExporter, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:4317"
	}
	return otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
}

// Shutdown flushes and releases the span exporter. Safe to call on a
// no-op Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}

// StartBlockSpan opens a span for one block execution, tagging it with the
// engine's own correlation metadata so the two correlation schemes --- OTel
// spans and the Request/Response metadata map --- describe the same
// execution rather than drifting apart.
func (p *Provider) StartBlockSpan(ctx context.Context, blockName string, traceID, runID, spanID, parentSpanID string, attempt int) (context.Context, trace.Span) {
	tracer := otel.Tracer("")
	if p != nil && p.tracer != nil {
		tracer = p.tracer
	}
	ctx, span := tracer.Start(ctx, "block.execute:"+blockName)
	span.SetAttributes(
		attribute.String("block.name", blockName),
		attribute.String("correlation.trace_id", traceID),
		attribute.String("correlation.run_id", runID),
		attribute.String("correlation.span_id", spanID),
		attribute.String("correlation.parent_span_id", parentSpanID),
		attribute.Int("correlation.attempt", attempt),
	)
	return ctx, span
}

// RecordOutcome annotates the span with the block's success/failure outcome
// and ends it. Call this from the same defer/finally path that emits the
// BlockAttemptRecord so both observability channels close together.
func RecordOutcome(span trace.Span, success bool, reason string) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.Bool("block.success", success))
	if !success {
		span.SetAttributes(attribute.String("block.failure_reason", reason))
	}
	span.End()
}
