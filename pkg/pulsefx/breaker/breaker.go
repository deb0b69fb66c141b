// Package breaker isolates failing effect components.
//
// Every call into an external effect handler goes through Execute. A streak
// of consecutive failures disables the component for a recovery window;
// while disabled, calls short-circuit to the fallback (or an open error)
// without invoking the operation, bounding the blast radius of a
// persistently failing handler. Recovery is a cancellable scheduled task,
// so a manual re-enable cancels the pending timer instead of racing it.
package breaker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	fxerrors "github.com/randalmurphal/pulsefx/pkg/pulsefx/errors"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/sched"
)

// Defaults for breaker behavior.
const (
	DefaultFailureThreshold = 3
	DefaultRecoveryWindow   = 5 * time.Minute
	DefaultErrorResetWindow = time.Minute
	DefaultOperationTimeout = 10 * time.Second
)

// Operation is a call into an external effect handler.
type Operation func(ctx context.Context) error

// Config configures a Breaker.
type Config struct {
	// FailureThreshold is the consecutive failure count that disables a
	// component. Default: 3.
	FailureThreshold int

	// RecoveryWindow is how long a tripped component stays disabled before
	// auto re-enabling. Default: 5 minutes.
	RecoveryWindow time.Duration

	// ErrorResetWindow restarts a failure streak at 1 when the gap since
	// the previous error exceeds it. Default: 1 minute.
	ErrorResetWindow time.Duration

	// OperationTimeout bounds each operation call so a hung handler counts
	// as a failure instead of blocking forever. Default: 10 seconds.
	OperationTimeout time.Duration

	// Logger receives breaker events. Default: slog.Default().
	Logger *slog.Logger

	// OnStateChange, if set, is called after a component is disabled or
	// re-enabled. Used to surface user-visible degradation notices.
	OnStateChange func(component string, disabled bool, cause error)

	// Now overrides the time source. Used in tests.
	Now func() time.Time
}

// Stats tracks failures for one component.
type Stats struct {
	// Component is the component name.
	Component string

	// ErrorCount is the total failures since creation or Reset.
	ErrorCount int

	// LastErrorTime is when the most recent failure happened.
	LastErrorTime time.Time

	// ConsecutiveErrors is the current failure streak.
	ConsecutiveErrors int
}

// Breaker is a per-component circuit breaker.
type Breaker struct {
	mu        sync.Mutex
	config    Config
	stats     map[string]*Stats
	disabled  map[string]bool
	recovery  map[string]*sched.Task
	scheduler *sched.Scheduler
	logger    *slog.Logger
}

// New creates a breaker with the given configuration.
func New(config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultFailureThreshold
	}
	if config.RecoveryWindow <= 0 {
		config.RecoveryWindow = DefaultRecoveryWindow
	}
	if config.ErrorResetWindow <= 0 {
		config.ErrorResetWindow = DefaultErrorResetWindow
	}
	if config.OperationTimeout <= 0 {
		config.OperationTimeout = DefaultOperationTimeout
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Breaker{
		config:    config,
		stats:     make(map[string]*Stats),
		disabled:  make(map[string]bool),
		recovery:  make(map[string]*sched.Task),
		scheduler: sched.New(),
		logger:    logger,
	}
}

// Execute runs op for a component, enforcing the breaker state.
//
// Disabled component: op is never invoked; fallback runs if provided,
// otherwise a BreakerOpenError is returned. Fallback failures are logged
// but never counted toward the breaker.
//
// Enabled component: op runs under the operation timeout. Success resets
// the failure streak. Failure counts toward the streak and, at the
// threshold, trips the breaker; if a fallback is provided it runs once as
// a recovery attempt, but the original failure is still counted.
func (b *Breaker) Execute(ctx context.Context, component string, op Operation, fallback Operation) error {
	if b.isDisabled(component) {
		return b.short(ctx, component, fallback)
	}

	opCtx, cancel := context.WithTimeout(ctx, b.config.OperationTimeout)
	err := op(opCtx)
	cancel()

	if err == nil {
		b.recordSuccess(component)
		return nil
	}

	handlerErr := &fxerrors.HandlerError{Component: component, Op: "execute", Err: err}
	b.recordFailure(component, handlerErr)

	if fallback != nil {
		if fbErr := fallback(ctx); fbErr != nil {
			b.logger.Warn("fallback failed",
				slog.String("component", component),
				slog.String("error", fbErr.Error()),
			)
			return handlerErr
		}
		return nil
	}

	return handlerErr
}

// ExecuteValue runs op for a component and returns its value, with the same
// breaker semantics as Execute.
func ExecuteValue[T any](
	ctx context.Context,
	b *Breaker,
	component string,
	op func(ctx context.Context) (T, error),
	fallback func(ctx context.Context) (T, error),
) (T, error) {
	var result T
	wrapped := func(ctx context.Context) error {
		var err error
		result, err = op(ctx)
		return err
	}

	var wrappedFallback Operation
	if fallback != nil {
		wrappedFallback = func(ctx context.Context) error {
			var err error
			result, err = fallback(ctx)
			return err
		}
	}

	err := b.Execute(ctx, component, wrapped, wrappedFallback)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// short handles a call against a disabled component.
func (b *Breaker) short(ctx context.Context, component string, fallback Operation) error {
	if fallback != nil {
		if err := fallback(ctx); err != nil {
			b.logger.Warn("fallback failed while disabled",
				slog.String("component", component),
				slog.String("error", err.Error()),
			)
			return &fxerrors.BreakerOpenError{Component: component}
		}
		return nil
	}
	return &fxerrors.BreakerOpenError{Component: component}
}

func (b *Breaker) isDisabled(component string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled[component]
}

func (b *Breaker) recordSuccess(component string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if stats, ok := b.stats[component]; ok {
		stats.ConsecutiveErrors = 0
	}
}

func (b *Breaker) recordFailure(component string, cause error) {
	b.mu.Lock()

	stats, ok := b.stats[component]
	if !ok {
		stats = &Stats{Component: component}
		b.stats[component] = stats
	}

	now := b.config.Now()
	if !stats.LastErrorTime.IsZero() && now.Sub(stats.LastErrorTime) > b.config.ErrorResetWindow {
		// Stale streak: this failure starts a new one.
		stats.ConsecutiveErrors = 1
	} else {
		stats.ConsecutiveErrors++
	}
	stats.ErrorCount++
	stats.LastErrorTime = now

	streak := stats.ConsecutiveErrors
	trip := streak >= b.config.FailureThreshold && !b.disabled[component]
	if trip {
		b.disabled[component] = true
		b.scheduleRecoveryLocked(component)
	}
	b.mu.Unlock()

	b.logger.Error("effect handler failed",
		slog.String("component", component),
		slog.Int("consecutive_errors", streak),
		slog.String("error", cause.Error()),
	)

	if trip {
		b.logger.Warn("component disabled after repeated failures",
			slog.String("component", component),
			slog.Duration("recovery_window", b.config.RecoveryWindow),
		)
		if b.config.OnStateChange != nil {
			b.config.OnStateChange(component, true, cause)
		}
	}
}

// scheduleRecoveryLocked arms the auto re-enable task.
// Caller must hold the lock.
func (b *Breaker) scheduleRecoveryLocked(component string) {
	if task, ok := b.recovery[component]; ok {
		task.Cancel()
	}
	b.recovery[component] = b.scheduler.After(b.config.RecoveryWindow, func() {
		b.recover(component)
	})
}

// recover re-enables a component when its recovery window elapses.
// A component already re-enabled manually makes this a no-op.
func (b *Breaker) recover(component string) {
	b.mu.Lock()
	if !b.disabled[component] {
		b.mu.Unlock()
		return
	}
	delete(b.disabled, component)
	delete(b.recovery, component)
	if stats, ok := b.stats[component]; ok {
		stats.ConsecutiveErrors = 0
	}
	b.mu.Unlock()

	b.logger.Info("component re-enabled after recovery window",
		slog.String("component", component),
	)
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(component, false, nil)
	}
}

// ForceDisable disables a component until ForceEnable, independent of the
// failure counters. Any pending auto recovery is cancelled.
func (b *Breaker) ForceDisable(component string) {
	b.mu.Lock()
	alreadyDisabled := b.disabled[component]
	b.disabled[component] = true
	if task, ok := b.recovery[component]; ok {
		task.Cancel()
		delete(b.recovery, component)
	}
	b.mu.Unlock()

	if !alreadyDisabled {
		b.logger.Info("component force-disabled", slog.String("component", component))
		if b.config.OnStateChange != nil {
			b.config.OnStateChange(component, true, nil)
		}
	}
}

// ForceEnable re-enables a component immediately, cancelling any pending
// recovery task and clearing its failure streak. No-op if not disabled.
func (b *Breaker) ForceEnable(component string) {
	b.mu.Lock()
	if !b.disabled[component] {
		b.mu.Unlock()
		return
	}
	delete(b.disabled, component)
	if task, ok := b.recovery[component]; ok {
		task.Cancel()
		delete(b.recovery, component)
	}
	if stats, ok := b.stats[component]; ok {
		stats.ConsecutiveErrors = 0
	}
	b.mu.Unlock()

	b.logger.Info("component force-enabled", slog.String("component", component))
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(component, false, nil)
	}
}

// Disabled reports whether a component is currently circuit-broken.
func (b *Breaker) Disabled(component string) bool {
	return b.isDisabled(component)
}

// DisabledComponents returns the names of all disabled components.
func (b *Breaker) DisabledComponents() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.disabled))
	for c := range b.disabled {
		out = append(out, c)
	}
	return out
}

// StatsFor returns a snapshot of a component's error stats.
func (b *Breaker) StatsFor(component string) (Stats, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats, ok := b.stats[component]
	if !ok {
		return Stats{}, false
	}
	return *stats, true
}

// Reset clears all error stats. Disabled components stay disabled: a
// session reset must not silently re-enable a broken handler.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = make(map[string]*Stats)
}

// Close cancels all pending recovery tasks.
func (b *Breaker) Close() {
	b.scheduler.Close()
}
