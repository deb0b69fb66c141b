// Package prob computes per-type trigger probabilities and performs
// weighted random selection over them.
//
// Probability combines four signals: the type's base chance, the intensity
// signal, how long the type has been off cooldown, and how often it appeared
// among the most recent events. Cooldown and session caps are hard gates
// that short-circuit to zero.
package prob

import (
	"math"
	"time"

	"github.com/randalmurphal/pulsefx/pkg/pulsefx/cache"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/catalog"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/history"
)

// DefaultMemoTTL is how long computed probabilities stay memoized.
// Callers poll probabilities repeatedly within a tick; anything inside the
// TTL reuses the cached result.
const DefaultMemoTTL = 100 * time.Millisecond

// repetitionWindow is how many recent events feed the repetition penalty.
const repetitionWindow = 5

type memoKey struct {
	Type      string
	Intensity float64
}

// Calculator computes trigger probabilities per event type.
type Calculator struct {
	catalog *catalog.Catalog
	history *history.History
	memo    *cache.Cache[memoKey, float64]
}

// NewCalculator creates a calculator memoizing results for memoTTL.
// Non-positive TTLs fall back to DefaultMemoTTL.
func NewCalculator(cat *catalog.Catalog, hist *history.History, memoTTL time.Duration) *Calculator {
	if memoTTL <= 0 {
		memoTTL = DefaultMemoTTL
	}
	return &Calculator{
		catalog: cat,
		history: hist,
		memo: cache.New[memoKey, float64](cache.Config{
			Capacity: 256,
			TTL:      memoTTL,
		}),
	}
}

// Probability returns the trigger probability for eventType at the given
// intensity. The result is always in [0,1]. Unknown, disabled, capped and
// cooling-down types yield exactly 0.
func (c *Calculator) Probability(eventType string, intensity float64) float64 {
	intensity = clamp(intensity, 0, 100)

	key := memoKey{Type: eventType, Intensity: intensity}
	p, err := c.memo.GetOrLoad(key, func() (float64, error) {
		return c.compute(eventType, intensity), nil
	})
	if err != nil {
		// Loader never errors; compute directly as a safety net.
		return c.compute(eventType, intensity)
	}
	return p
}

// Invalidate drops all memoized probabilities. Called after every record,
// since a new occurrence changes cooldown and repetition state for the
// whole catalog.
func (c *Calculator) Invalidate() {
	c.memo.Clear()
}

func (c *Calculator) compute(eventType string, intensity float64) float64 {
	config, ok := c.catalog.Get(eventType)
	if !ok || !config.Enabled {
		return 0
	}

	if config.MaxPerSession != catalog.Unlimited && c.history.CountFor(eventType) >= config.MaxPerSession {
		return 0
	}

	elapsed, occurred := c.history.TimeSinceLast(eventType)
	if occurred && elapsed < config.Cooldown {
		// Cooldown is an absolute gate, not a probabilistic one.
		return 0
	}

	intensityFactor := (intensity / 100) * config.IntensityMultiplier

	// Ramp that rewards types which have been quiet, saturating at 2x.
	// A type that never fired gets the full saturated factor.
	timeFactor := 2.0
	if occurred {
		timeFactor = math.Min(float64(elapsed)/float64(2*config.Cooldown), 2.0)
	}

	penalty := c.repetitionPenalty(eventType)

	return clamp(config.BaseChance*(1+intensityFactor)*timeFactor*penalty, 0, 1)
}

// repetitionPenalty inspects the last few events and discretely decays the
// probability of types that keep repeating.
func (c *Calculator) repetitionPenalty(eventType string) float64 {
	occurrences := 0
	for _, rec := range c.history.Recent(repetitionWindow) {
		if rec.Type == eventType {
			occurrences++
		}
	}

	switch {
	case occurrences == 0:
		return 1.0
	case occurrences == 1:
		return 0.7
	case occurrences == 2:
		return 0.4
	default:
		return 0.1
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
