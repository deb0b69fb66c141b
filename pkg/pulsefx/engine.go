package pulsefx

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/pulsefx/pkg/pulsefx/breaker"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/cache"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/catalog"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/config"
	fxerrors "github.com/randalmurphal/pulsefx/pkg/pulsefx/errors"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/history"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/manager"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/notify"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/observability"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/prob"
)

// Event is a committed effect occurrence as delivered to effect managers.
type Event = manager.Event

// SessionStats summarizes the current session.
type SessionStats struct {
	// SessionID identifies the session. Regenerated on ResetSession.
	SessionID string

	// StartedAt is when the session began.
	StartedAt time.Time

	// Duration is how long the session has been running.
	Duration time.Duration

	// TotalEvents counts all events recorded this session, including any
	// evicted from the bounded history.
	TotalEvents int

	// PerType holds per-type occurrence counts.
	PerType map[string]int

	// AverageIntensity is the mean intensity over the session's events.
	AverageIntensity float64
}

// Engine is the effect trigger engine. It owns the catalog view, the bounded
// event history, the probability calculator, the weighted selector, the
// circuit breaker and the manager registry, and composes them into atomic
// trigger operations.
//
// All methods are safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	closed bool

	sessionID    string
	sessionStart time.Time

	catalog   *catalog.Catalog
	history   *history.History
	tracker   *history.Tracker
	calc      *prob.Calculator
	selector  *prob.Selector
	breaker   *breaker.Breaker
	registry  *manager.Registry
	notifier  *notify.Notifier
	resources *cache.Cache[string, any]
	archive   history.Store

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager

	settings    config.Settings
	breakerCfg  *breaker.Config
	probTTL     time.Duration
	randFloat   func() float64
	now         func() time.Time
	ownNotifier bool
}

// New creates an engine over the given catalog.
func New(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:  cat,
		registry: manager.NewRegistry(),
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		settings: config.DefaultSettings(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.notifier == nil {
		e.notifier = notify.New(notify.Config{})
		e.ownNotifier = true
	}

	e.sessionID = uuid.NewString()
	e.sessionStart = e.now()

	e.history = history.New(e.settings.HistoryCapacity, history.WithNow(e.now))
	e.tracker = history.NewTracker(e.history, cat)

	ttl := e.probTTL
	if ttl <= 0 {
		ttl = e.settings.ProbabilityTTL
	}
	e.calc = prob.NewCalculator(cat, e.history, ttl)

	var selOpts []prob.SelectorOption
	if e.randFloat != nil {
		selOpts = append(selOpts, prob.WithRandFloat(e.randFloat))
	}
	e.selector = prob.NewSelector(cat, e.calc, selOpts...)

	e.breaker = breaker.New(e.buildBreakerConfig())

	e.resources = cache.New[string, any](cache.Config{
		Capacity:      e.settings.CacheCapacity,
		TTL:           e.settings.CacheTTL,
		SweepInterval: e.settings.CacheSweepInterval,
		Now:           e.now,
	})

	return e
}

// NewFromConfig creates an engine from a loaded configuration: the "events"
// section becomes the catalog, the "engine" section the settings. Options
// are applied on top and win over the file.
func NewFromConfig(cfg config.Config, opts ...Option) (*Engine, error) {
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	merged := append([]Option{WithSettings(cfg.Settings())}, opts...)
	return New(cat, merged...), nil
}

// NewFromFile creates an engine from a YAML or JSON configuration file.
func NewFromFile(path string, opts ...Option) (*Engine, error) {
	cfg, err := config.FromFile(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

// buildBreakerConfig derives the breaker configuration and chains the
// engine's state-change hook after any caller-provided one.
func (e *Engine) buildBreakerConfig() breaker.Config {
	cfg := breaker.Config{
		FailureThreshold: e.settings.FailureThreshold,
		RecoveryWindow:   e.settings.RecoveryWindow,
		ErrorResetWindow: e.settings.ErrorResetWindow,
		OperationTimeout: e.settings.OperationTimeout,
	}
	if e.breakerCfg != nil {
		cfg = *e.breakerCfg
	}
	if cfg.Logger == nil {
		cfg.Logger = e.logger
	}
	if cfg.Now == nil {
		cfg.Now = e.now
	}

	userHook := cfg.OnStateChange
	cfg.OnStateChange = func(component string, disabled bool, cause error) {
		if userHook != nil {
			userHook(component, disabled, cause)
		}
		e.metrics.RecordBreakerState(context.Background(), component, disabled)

		notice := notify.Notice{Component: component}
		if disabled {
			notice.Kind = notify.KindComponentDisabled
			if cause != nil {
				notice.Message = cause.Error()
			}
		} else {
			notice.Kind = notify.KindComponentRecovered
		}
		e.notifier.Publish(notice)
	}
	return cfg
}

// SessionID returns the current session identifier.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// Catalog returns the engine's event type catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Managers returns the effect manager registry. Register managers here
// before triggering.
func (e *Engine) Managers() *manager.Registry { return e.registry }

// Notifier returns the engine's notice bus.
func (e *Engine) Notifier() *notify.Notifier { return e.notifier }

// Resources returns the shared resource cache. Effect managers use it for
// expensive assets keyed by name.
func (e *Engine) Resources() *cache.Cache[string, any] { return e.resources }

// CalculateProbability returns the trigger probability for eventType at the
// given intensity, in [0,1]. Unknown, disabled, capped and cooling-down
// types yield exactly 0.
func (e *Engine) CalculateProbability(eventType string, intensity float64) float64 {
	return e.calc.Probability(eventType, intensity)
}

// SelectEvent performs a weighted random draw over the eligible types and
// returns the chosen type, or ok=false if nothing is eligible. Selecting
// never records: commit with RecordEvent or use Trigger.
func (e *Engine) SelectEvent(intensity float64) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", false
	}
	return e.selector.Select(intensity)
}

// RecordEvent commits an occurrence of eventType: it enters the history,
// counts toward the session cap, starts the cooldown and invalidates all
// memoized probabilities. Returns the committed event.
func (e *Engine) RecordEvent(eventType string, intensity float64, variant string) (Event, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Event{}, ErrEngineClosed
	}
	if _, ok := e.catalog.Get(eventType); !ok {
		e.mu.Unlock()
		return Event{}, ErrUnknownEventType
	}
	ev := e.recordLocked(eventType, intensity, variant)
	sessionID := e.sessionID
	e.mu.Unlock()

	e.afterRecord(sessionID, ev)
	return ev, nil
}

// recordLocked commits an occurrence. Caller must hold the engine lock.
func (e *Engine) recordLocked(eventType string, intensity float64, variant string) Event {
	intensity = clampIntensity(intensity)
	rec := e.history.Record(eventType, intensity, variant)

	// A new occurrence changes cooldown and repetition state for the whole
	// catalog, so stale memoized probabilities must go immediately.
	e.calc.Invalidate()

	return Event{
		Type:      rec.Type,
		Intensity: rec.Intensity,
		Variant:   rec.Variant,
		FiredAt:   rec.Time,
	}
}

// afterRecord runs the non-critical followups of a commit: archive and
// notices. Never called under the engine lock.
func (e *Engine) afterRecord(sessionID string, ev Event) {
	if e.archive != nil {
		rec := history.Record{Type: ev.Type, Time: ev.FiredAt, Intensity: ev.Intensity, Variant: ev.Variant}
		if err := e.archive.Append(sessionID, rec); err != nil {
			observability.LogArchiveError(e.logger, sessionID, err)
		}
	}
	e.notifier.Publish(notify.Notice{
		Kind:      notify.KindEffectFired,
		EventType: ev.Type,
	})
}

// Trigger runs one full cycle: weighted selection, commit, and dispatch to
// every enabled effect manager through the circuit breaker.
//
// Selection and commit happen atomically: concurrent triggers cannot both
// fire a type with one cooldown or session-cap slot left. fired is false
// when no type was eligible; that outcome is not an error.
//
// Dispatch errors from distinct managers are joined. Breaker vetoes on
// disabled components are soft skips and do not surface here.
func (e *Engine) Trigger(ctx context.Context, intensity float64) (ev Event, fired bool, err error) {
	ctx, span := e.spans.StartTriggerSpan(ctx, e.SessionID(), intensity)
	defer func() { e.spans.EndSpanWithError(span, err) }()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Event{}, false, ErrEngineClosed
	}

	eventType, ok := e.selector.Select(intensity)
	if !ok {
		e.mu.Unlock()
		e.metrics.RecordSelection(ctx, "", false)
		observability.LogNoSelection(e.logger, intensity)
		return Event{}, false, nil
	}

	p := e.calc.Probability(eventType, clampIntensity(intensity))
	ev = e.recordLocked(eventType, intensity, "")
	sessionID := e.sessionID
	e.mu.Unlock()

	e.metrics.RecordSelection(ctx, eventType, true)
	observability.LogSelection(e.logger, eventType, ev.Intensity, p)
	e.afterRecord(sessionID, ev)

	return ev, true, e.dispatch(ctx, ev)
}

// dispatch delivers a committed event to every enabled manager through the
// breaker. Returns the joined handler errors, if any.
func (e *Engine) dispatch(ctx context.Context, ev Event) error {
	var errs []error

	e.registry.Range(func(component string, m manager.EffectManager) bool {
		if !m.Enabled() {
			return true
		}

		hctx, hspan := e.spans.StartHandlerSpan(ctx, component)
		elapsed := observability.TimedOperation()
		err := e.breaker.Execute(hctx, component, func(ctx context.Context) error {
			return m.Trigger(ctx, ev)
		}, nil)
		durationMs := elapsed()
		e.metrics.RecordTrigger(hctx, component, time.Duration(durationMs*float64(time.Millisecond)), err)
		e.spans.EndSpanWithError(hspan, err)

		if err != nil {
			if fxerrors.IsBreakerOpen(err) {
				// Disabled component: skip quietly, the trip was already
				// logged and surfaced when it happened.
				return true
			}
			observability.LogTriggerError(e.logger, component, ev.Type, err)
			errs = append(errs, err)
			return true
		}

		observability.LogTrigger(e.logger, component, ev.Type, durationMs)
		return true
	})

	return errors.Join(errs...)
}

// IsOnCooldown reports whether eventType may not fire yet. Unknown types
// report true.
func (e *Engine) IsOnCooldown(eventType string) bool {
	return e.tracker.IsOnCooldown(eventType)
}

// RemainingCooldown returns how long until eventType may fire again, or 0
// if it is off cooldown.
func (e *Engine) RemainingCooldown(eventType string) time.Duration {
	return e.tracker.Remaining(eventType)
}

// SessionStats returns a snapshot of the current session.
func (e *Engine) SessionStats() SessionStats {
	e.mu.Lock()
	sessionID := e.sessionID
	start := e.sessionStart
	e.mu.Unlock()

	return SessionStats{
		SessionID:        sessionID,
		StartedAt:        start,
		Duration:         e.now().Sub(start),
		TotalEvents:      e.history.TotalEvents(),
		PerType:          e.history.Counters(),
		AverageIntensity: e.history.AverageIntensity(),
	}
}

// ResetSession starts a fresh session: history, counters, aggregates and
// error stats clear, and a new session ID is issued. The catalog keeps its
// configuration, and circuit-broken components stay disabled: a session
// reset must not silently re-enable a broken handler.
func (e *Engine) ResetSession() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	previous := e.sessionID
	total := e.history.TotalEvents()

	e.history.Reset()
	e.calc.Invalidate()
	e.breaker.Reset()
	e.sessionID = uuid.NewString()
	e.sessionStart = e.now()
	e.mu.Unlock()

	observability.LogSessionReset(e.logger, previous, total)
	e.notifier.Publish(notify.Notice{Kind: notify.KindSessionReset})
}

// ForceDisable disables a component until ForceEnable, bypassing the
// failure counters.
func (e *Engine) ForceDisable(component string) {
	e.breaker.ForceDisable(component)
}

// ForceEnable re-enables a circuit-broken component immediately.
func (e *Engine) ForceEnable(component string) {
	e.breaker.ForceEnable(component)
}

// ComponentDisabled reports whether a component is currently circuit-broken.
func (e *Engine) ComponentDisabled(component string) bool {
	return e.breaker.Disabled(component)
}

// DisabledComponents returns the names of all circuit-broken components.
func (e *Engine) DisabledComponents() []string {
	return e.breaker.DisabledComponents()
}

// BreakerStats returns a snapshot of a component's error stats.
func (e *Engine) BreakerStats(component string) (breaker.Stats, bool) {
	return e.breaker.StatsFor(component)
}

// Close releases engine resources: pending recovery timers, the resource
// cache sweeper, and the notifier if the engine owns it. The archive store,
// if any, is the caller's to close.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.breaker.Close()
	e.resources.Close()
	if e.ownNotifier {
		e.notifier.Close()
	}
}

func clampIntensity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
