package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records effect engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordSelection records a selection attempt and whether it yielded
	// an event type.
	RecordSelection(ctx context.Context, eventType string, selected bool)

	// RecordTrigger records an effect trigger with its duration and error
	// status.
	RecordTrigger(ctx context.Context, component string, duration time.Duration, err error)

	// RecordBreakerState records a breaker transition for a component.
	RecordBreakerState(ctx context.Context, component string, disabled bool)

	// RecordCacheAccess records a resource cache hit or miss.
	RecordCacheAccess(ctx context.Context, hit bool)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	selections     metric.Int64Counter
	triggers       metric.Int64Counter
	triggerLatency metric.Float64Histogram
	triggerErrors  metric.Int64Counter
	breakerTrips   metric.Int64Counter
	cacheAccesses  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("pulsefx")

	selections, err := meter.Int64Counter("pulsefx.selections",
		metric.WithDescription("Number of selection attempts"),
	)
	if err != nil {
		return nil, err
	}

	triggers, err := meter.Int64Counter("pulsefx.triggers",
		metric.WithDescription("Number of effect triggers dispatched"),
	)
	if err != nil {
		return nil, err
	}

	triggerLatency, err := meter.Float64Histogram("pulsefx.trigger.latency_ms",
		metric.WithDescription("Effect trigger latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	triggerErrors, err := meter.Int64Counter("pulsefx.trigger.errors",
		metric.WithDescription("Number of failed effect triggers"),
	)
	if err != nil {
		return nil, err
	}

	breakerTrips, err := meter.Int64Counter("pulsefx.breaker.transitions",
		metric.WithDescription("Number of breaker state transitions"),
	)
	if err != nil {
		return nil, err
	}

	cacheAccesses, err := meter.Int64Counter("pulsefx.cache.accesses",
		metric.WithDescription("Number of resource cache accesses"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		selections:     selections,
		triggers:       triggers,
		triggerLatency: triggerLatency,
		triggerErrors:  triggerErrors,
		breakerTrips:   breakerTrips,
		cacheAccesses:  cacheAccesses,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordSelection records a selection attempt.
func (m *otelMetrics) RecordSelection(ctx context.Context, eventType string, selected bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("selected", selected),
	}
	if selected {
		attrs = append(attrs, attribute.String("event_type", eventType))
	}
	m.selections.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTrigger records an effect trigger.
func (m *otelMetrics) RecordTrigger(ctx context.Context, component string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("component", component),
	}

	m.triggers.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.triggerLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.triggerErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordBreakerState records a breaker transition.
func (m *otelMetrics) RecordBreakerState(ctx context.Context, component string, disabled bool) {
	attrs := []attribute.KeyValue{
		attribute.String("component", component),
		attribute.Bool("disabled", disabled),
	}
	m.breakerTrips.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheAccess records a cache hit or miss.
func (m *otelMetrics) RecordCacheAccess(ctx context.Context, hit bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("hit", hit),
	}
	m.cacheAccesses.Add(ctx, 1, metric.WithAttributes(attrs...))
}
