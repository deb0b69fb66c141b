package prob

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulsefx/pkg/pulsefx/catalog"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/history"
)

func selectorFixture(t *testing.T, types map[string]catalog.TypeConfig) (*catalog.Catalog, *Calculator) {
	t.Helper()

	cat := catalog.New()
	for name, config := range types {
		require.NoError(t, cat.Register(name, config))
	}
	hist := history.New(10)
	return cat, NewCalculator(cat, hist, time.Nanosecond)
}

func alwaysType(weight float64) catalog.TypeConfig {
	return catalog.TypeConfig{
		BaseChance:    1.0, // first occurrence: p = 1.0 regardless of intensity
		Cooldown:      time.Second,
		MaxPerSession: catalog.Unlimited,
		Weight:        weight,
		Enabled:       true,
	}
}

func TestSelectReturnsNoneWhenEmpty(t *testing.T) {
	cat, calc := selectorFixture(t, nil)
	s := NewSelector(cat, calc)

	_, ok := s.Select(50)
	assert.False(t, ok)
}

func TestSelectReturnsNoneWhenAllDisabled(t *testing.T) {
	disabled := alwaysType(10)
	disabled.Enabled = false

	cat, calc := selectorFixture(t, map[string]catalog.TypeConfig{
		"a": disabled,
		"b": disabled,
	})
	s := NewSelector(cat, calc)

	for i := 0; i < 10; i++ {
		_, ok := s.Select(100)
		assert.False(t, ok, "disabled catalog must deterministically select none")
	}
}

func TestSelectReturnsNoneWhenZeroWeight(t *testing.T) {
	cat, calc := selectorFixture(t, map[string]catalog.TypeConfig{
		"a": alwaysType(0),
	})
	s := NewSelector(cat, calc)

	_, ok := s.Select(100)
	assert.False(t, ok)
}

func TestSelectSingleCandidate(t *testing.T) {
	cat, calc := selectorFixture(t, map[string]catalog.TypeConfig{
		"only": alwaysType(5),
	})
	s := NewSelector(cat, calc)

	got, ok := s.Select(50)
	require.True(t, ok)
	assert.Equal(t, "only", got)
}

func TestSelectRespectsWeights(t *testing.T) {
	cat, calc := selectorFixture(t, map[string]catalog.TypeConfig{
		"light": alwaysType(1),
		"heavy": alwaysType(3),
	})

	// Fixed draws walk the cumulative list in sorted type order:
	// heavy [0,3), light [3,4).
	draws := []struct {
		r    float64
		want string
	}{
		{0.0, "heavy"},
		{0.5, "heavy"},
		{0.74, "heavy"},
		{0.76, "light"},
		{0.99, "light"},
	}

	for _, d := range draws {
		s := NewSelector(cat, calc, WithRandFloat(func() float64 { return d.r }))
		got, ok := s.Select(50)
		require.True(t, ok)
		assert.Equal(t, d.want, got, "draw %v", d.r)
	}
}

func TestSelectFloatDriftFallsBackToLast(t *testing.T) {
	cat, calc := selectorFixture(t, map[string]catalog.TypeConfig{
		"a": alwaysType(1),
		"b": alwaysType(1),
	})

	// A draw at (or beyond) the cumulative sum must still yield the last
	// candidate, never none.
	s := NewSelector(cat, calc, WithRandFloat(func() float64 { return 1.0 }))
	got, ok := s.Select(50)
	require.True(t, ok)
	assert.Equal(t, "b", got)
}

func TestSelectDoesNotRecord(t *testing.T) {
	cat := catalog.New()
	require.NoError(t, cat.Register("a", alwaysType(1)))
	hist := history.New(10)
	calc := NewCalculator(cat, hist, time.Nanosecond)
	s := NewSelector(cat, calc)

	_, ok := s.Select(50)
	require.True(t, ok)
	assert.Equal(t, 0, hist.Len(), "selection must not commit the event")
}

func TestSelectSkipsCoolingTypes(t *testing.T) {
	clock := newFakeClock()
	cat := catalog.New()
	require.NoError(t, cat.Register("hot", alwaysType(1)))
	require.NoError(t, cat.Register("cooling", alwaysType(100)))

	hist := history.New(10, history.WithNow(clock.Now))
	calc := NewCalculator(cat, hist, time.Nanosecond)
	s := NewSelector(cat, calc)

	hist.Record("cooling", 50, "")

	for i := 0; i < 10; i++ {
		got, ok := s.Select(50)
		require.True(t, ok)
		assert.Equal(t, "hot", got, "a type on cooldown must never be selected")
	}
}

func TestCryptoFloatRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := cryptoFloat()
		assert.GreaterOrEqual(t, v, float64(0))
		assert.Less(t, v, float64(1))
	}
}
