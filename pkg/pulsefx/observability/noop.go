package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordSelection does nothing.
func (NoopMetrics) RecordSelection(_ context.Context, _ string, _ bool) {}

// RecordTrigger does nothing.
func (NoopMetrics) RecordTrigger(_ context.Context, _ string, _ time.Duration, _ error) {}

// RecordBreakerState does nothing.
func (NoopMetrics) RecordBreakerState(_ context.Context, _ string, _ bool) {}

// RecordCacheAccess does nothing.
func (NoopMetrics) RecordCacheAccess(_ context.Context, _ bool) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
// We use the OTel noop package for a proper no-op span implementation.
var noopSpan = noop.Span{}

// StartTriggerSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartTriggerSpan(ctx context.Context, _ string, _ float64) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartHandlerSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartHandlerSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
