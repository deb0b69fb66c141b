package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the engine tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("pulsefx")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartTriggerSpan starts a span for one trigger attempt
	// (selection + record + dispatch).
	StartTriggerSpan(ctx context.Context, sessionID string, intensity float64) (context.Context, trace.Span)

	// StartHandlerSpan starts a span for an effect handler invocation.
	// The handler span should be a child of the trigger span.
	StartHandlerSpan(ctx context.Context, component string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartTriggerSpan starts a span for one trigger attempt.
func (m *otelSpanManager) StartTriggerSpan(ctx context.Context, sessionID string, intensity float64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pulsefx.trigger",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Float64("intensity", intensity),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartHandlerSpan starts a span for an effect handler invocation.
func (m *otelSpanManager) StartHandlerSpan(ctx context.Context, component string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pulsefx.handler."+component,
		trace.WithAttributes(
			attribute.String("component", component),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
