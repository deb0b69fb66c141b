package pulsefx

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/pulsefx/pkg/pulsefx/breaker"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/config"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/history"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/notify"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/observability"
)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger sets the engine logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source for history and breaker bookkeeping.
// Used in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithSettings replaces the default engine settings wholesale.
func WithSettings(s config.Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithSpans sets the trace span manager.
// Default: observability.NoopSpanManager.
func WithSpans(sm observability.SpanManager) Option {
	return func(e *Engine) {
		if sm != nil {
			e.spans = sm
		}
	}
}

// WithArchive sets an archive store for fired events. Archiving is
// best-effort: failures are logged, never fatal. Default: no archive.
func WithArchive(store history.Store) Option {
	return func(e *Engine) {
		e.archive = store
	}
}

// WithBreakerConfig replaces the breaker configuration derived from the
// engine settings. The engine still chains its own state-change hook after
// any hook set here.
func WithBreakerConfig(cfg breaker.Config) Option {
	return func(e *Engine) {
		e.breakerCfg = &cfg
	}
}

// WithNotifier sets the notice bus. A caller-provided notifier is not
// closed by Engine.Close. Default: an engine-owned notifier.
func WithNotifier(n *notify.Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithProbabilityTTL overrides how long computed probabilities stay
// memoized. Default: the engine settings value.
func WithProbabilityTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.probTTL = ttl
	}
}

// WithRandFloat overrides the selection random source. Used in tests.
func WithRandFloat(fn func() float64) Option {
	return func(e *Engine) {
		e.randFloat = fn
	}
}
