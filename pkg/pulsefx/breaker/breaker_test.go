package breaker

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fxerrors "github.com/randalmurphal/pulsefx/pkg/pulsefx/errors"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

var errBoom = errors.New("boom")

func failing(ctx context.Context) error { return errBoom }

func succeeding(ctx context.Context) error { return nil }

func newTestBreaker(clock *fakeClock) *Breaker {
	return New(Config{
		FailureThreshold: 3,
		RecoveryWindow:   time.Hour,
		ErrorResetWindow: time.Minute,
		Logger:           slog.New(slog.DiscardHandler),
		Now:              clock.Now,
	})
}

func TestPassThroughWhenClosed(t *testing.T) {
	b := newTestBreaker(newFakeClock())
	defer b.Close()

	called := false
	err := b.Execute(context.Background(), "fx", func(ctx context.Context) error {
		called = true
		return nil
	}, nil)

	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, b.Disabled("fx"))
}

func TestFailureReturnsHandlerError(t *testing.T) {
	b := newTestBreaker(newFakeClock())
	defer b.Close()

	err := b.Execute(context.Background(), "fx", failing, nil)
	require.Error(t, err)
	assert.True(t, fxerrors.IsHandlerFailure(err))
	assert.ErrorIs(t, err, errBoom)

	stats, ok := b.StatsFor("fx")
	require.True(t, ok)
	assert.Equal(t, 1, stats.ConsecutiveErrors)
	assert.Equal(t, 1, stats.ErrorCount)
}

func TestThresholdDisablesComponent(t *testing.T) {
	b := newTestBreaker(newFakeClock())
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.Error(t, b.Execute(ctx, "fx", failing, nil))
	}

	assert.True(t, b.Disabled("fx"))
	assert.Contains(t, b.DisabledComponents(), "fx")

	// While open, the operation is never invoked.
	invoked := false
	err := b.Execute(ctx, "fx", func(ctx context.Context) error {
		invoked = true
		return nil
	}, nil)

	require.Error(t, err)
	assert.True(t, fxerrors.IsBreakerOpen(err))
	assert.False(t, invoked)
}

func TestOpenUsesFallback(t *testing.T) {
	b := newTestBreaker(newFakeClock())
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.Error(t, b.Execute(ctx, "fx", failing, nil))
	}

	fallbackRan := false
	err := b.Execute(ctx, "fx", failing, func(ctx context.Context) error {
		fallbackRan = true
		return nil
	})

	assert.NoError(t, err, "fallback success resolves an open call")
	assert.True(t, fallbackRan)
}

func TestFallbackFailureIsNotCounted(t *testing.T) {
	b := newTestBreaker(newFakeClock())
	defer b.Close()

	err := b.Execute(context.Background(), "fx", failing, func(ctx context.Context) error {
		return errors.New("fallback broken too")
	})

	require.Error(t, err)
	assert.True(t, fxerrors.IsHandlerFailure(err), "original handler error surfaces")

	stats, _ := b.StatsFor("fx")
	assert.Equal(t, 1, stats.ErrorCount, "fallback failures must not re-enter the breaker")
}

func TestSuccessResetsStreak(t *testing.T) {
	b := newTestBreaker(newFakeClock())
	defer b.Close()

	ctx := context.Background()
	require.Error(t, b.Execute(ctx, "fx", failing, nil))
	require.Error(t, b.Execute(ctx, "fx", failing, nil))
	require.NoError(t, b.Execute(ctx, "fx", succeeding, nil))

	stats, _ := b.StatsFor("fx")
	assert.Equal(t, 0, stats.ConsecutiveErrors)
	assert.Equal(t, 2, stats.ErrorCount, "total error count is cumulative")

	// Two more failures must not trip: the streak restarted.
	require.Error(t, b.Execute(ctx, "fx", failing, nil))
	require.Error(t, b.Execute(ctx, "fx", failing, nil))
	assert.False(t, b.Disabled("fx"))
}

func TestStaleStreakRestartsAtOne(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	defer b.Close()

	ctx := context.Background()
	require.Error(t, b.Execute(ctx, "fx", failing, nil))
	require.Error(t, b.Execute(ctx, "fx", failing, nil))

	// Gap longer than the error reset window: next failure is streak 1,
	// not 3, so the breaker must not trip.
	clock.Advance(2 * time.Minute)
	require.Error(t, b.Execute(ctx, "fx", failing, nil))

	stats, _ := b.StatsFor("fx")
	assert.Equal(t, 1, stats.ConsecutiveErrors)
	assert.False(t, b.Disabled("fx"))
}

func TestAutoRecovery(t *testing.T) {
	b := New(Config{
		FailureThreshold: 3,
		RecoveryWindow:   20 * time.Millisecond,
		Logger:           slog.New(slog.DiscardHandler),
	})
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.Error(t, b.Execute(ctx, "fx", failing, nil))
	}
	require.True(t, b.Disabled("fx"))

	assert.Eventually(t, func() bool {
		return !b.Disabled("fx")
	}, time.Second, 5*time.Millisecond, "component should re-enable after the recovery window")

	// A subsequent call invokes the operation again.
	invoked := false
	require.NoError(t, b.Execute(ctx, "fx", func(ctx context.Context) error {
		invoked = true
		return nil
	}, nil))
	assert.True(t, invoked)
}

func TestForceEnableCancelsRecoveryTimer(t *testing.T) {
	var changes atomic.Int32
	b := New(Config{
		FailureThreshold: 3,
		RecoveryWindow:   30 * time.Millisecond,
		Logger:           slog.New(slog.DiscardHandler),
		OnStateChange: func(component string, disabled bool, cause error) {
			changes.Add(1)
		},
	})
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.Error(t, b.Execute(ctx, "fx", failing, nil))
	}
	require.True(t, b.Disabled("fx"))
	require.Equal(t, int32(1), changes.Load())

	b.ForceEnable("fx")
	assert.False(t, b.Disabled("fx"))
	assert.Equal(t, int32(2), changes.Load())

	// The cancelled timer firing later must not produce another transition.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(2), changes.Load())
	assert.False(t, b.Disabled("fx"))
}

func TestForceDisable(t *testing.T) {
	b := newTestBreaker(newFakeClock())
	defer b.Close()

	b.ForceDisable("fx")
	assert.True(t, b.Disabled("fx"))

	// Idempotent.
	b.ForceDisable("fx")
	assert.True(t, b.Disabled("fx"))

	err := b.Execute(context.Background(), "fx", succeeding, nil)
	assert.True(t, fxerrors.IsBreakerOpen(err))

	b.ForceEnable("fx")
	assert.False(t, b.Disabled("fx"))

	// Enabling an already-enabled component is a no-op.
	b.ForceEnable("fx")
	assert.False(t, b.Disabled("fx"))
}

func TestOperationTimeoutCountsAsFailure(t *testing.T) {
	b := New(Config{
		FailureThreshold: 3,
		OperationTimeout: 10 * time.Millisecond,
		Logger:           slog.New(slog.DiscardHandler),
	})
	defer b.Close()

	err := b.Execute(context.Background(), "fx", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil)

	require.Error(t, err)
	stats, _ := b.StatsFor("fx")
	assert.Equal(t, 1, stats.ConsecutiveErrors)
}

func TestExecuteValue(t *testing.T) {
	b := newTestBreaker(newFakeClock())
	defer b.Close()

	ctx := context.Background()

	v, err := ExecuteValue(ctx, b, "fx", func(ctx context.Context) (int, error) {
		return 42, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = ExecuteValue(ctx, b, "fx", func(ctx context.Context) (int, error) {
		return 7, errBoom
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 0, v, "errors yield the zero value")

	v, err = ExecuteValue(ctx, b, "fx", func(ctx context.Context) (int, error) {
		return 0, errBoom
	}, func(ctx context.Context) (int, error) {
		return 99, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 99, v, "fallback value is returned")
}

func TestResetClearsStatsButNotDisabled(t *testing.T) {
	b := newTestBreaker(newFakeClock())
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.Error(t, b.Execute(ctx, "fx", failing, nil))
	}
	require.True(t, b.Disabled("fx"))

	b.Reset()

	_, ok := b.StatsFor("fx")
	assert.False(t, ok, "stats cleared")
	assert.True(t, b.Disabled("fx"), "a broken component stays disabled across session reset")
}

func TestStatsLazilyCreated(t *testing.T) {
	b := newTestBreaker(newFakeClock())
	defer b.Close()

	_, ok := b.StatsFor("fx")
	assert.False(t, ok)

	require.NoError(t, b.Execute(context.Background(), "fx", succeeding, nil))
	_, ok = b.StatsFor("fx")
	assert.False(t, ok, "stats appear on first failure, not success")
}
