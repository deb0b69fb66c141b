// Package observability provides structured logging, metrics, and tracing
// for the effect engine.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds engine context to a logger.
// Returns a new logger with session_id and component fields.
func EnrichLogger(logger *slog.Logger, sessionID, component string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("session_id", sessionID),
		slog.String("component", component),
	)
}

// LogSelection logs a successful event selection.
func LogSelection(logger *slog.Logger, eventType string, intensity, probability float64) {
	if logger == nil {
		return
	}
	logger.Debug("event selected",
		slog.String("event_type", eventType),
		slog.Float64("intensity", intensity),
		slog.Float64("probability", probability),
	)
}

// LogNoSelection logs a gated selection outcome. Not an error.
func LogNoSelection(logger *slog.Logger, intensity float64) {
	if logger == nil {
		return
	}
	logger.Debug("no eligible event",
		slog.Float64("intensity", intensity),
	)
}

// LogTrigger logs a dispatched effect trigger.
func LogTrigger(logger *slog.Logger, component, eventType string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("effect triggered",
		slog.String("component", component),
		slog.String("event_type", eventType),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogTriggerError logs a failed effect trigger.
func LogTriggerError(logger *slog.Logger, component, eventType string, err error) {
	if logger == nil {
		return
	}
	logger.Error("effect trigger failed",
		slog.String("component", component),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// LogSessionReset logs a session reset.
func LogSessionReset(logger *slog.Logger, sessionID string, totalEvents int) {
	if logger == nil {
		return
	}
	logger.Info("session reset",
		slog.String("session_id", sessionID),
		slog.Int("total_events", totalEvents),
	)
}

// LogArchiveError logs an archive store failure (non-fatal).
func LogArchiveError(logger *slog.Logger, sessionID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("event archive failed",
		slog.String("session_id", sessionID),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
