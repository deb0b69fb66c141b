package prob

import (
	crand "crypto/rand"
	"encoding/binary"
	"sort"

	"github.com/randalmurphal/pulsefx/pkg/pulsefx/catalog"
)

// Selector picks one event type (or none) by weighted random draw.
//
// The draw uses a cryptographically strong source so selection cannot be
// predicted across many calls. Selecting does not record: committing the
// event is the caller's explicit follow-up.
type Selector struct {
	catalog *catalog.Catalog
	calc    *Calculator

	// randFloat returns a uniform value in [0,1). Injectable for tests.
	randFloat func() float64
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithRandFloat overrides the random source. Used in tests.
func WithRandFloat(fn func() float64) SelectorOption {
	return func(s *Selector) {
		s.randFloat = fn
	}
}

// NewSelector creates a selector over the catalog and calculator.
func NewSelector(cat *catalog.Catalog, calc *Calculator, opts ...SelectorOption) *Selector {
	s := &Selector{
		catalog:   cat,
		calc:      calc,
		randFloat: cryptoFloat,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type candidate struct {
	eventType       string
	effectiveWeight float64
}

// Select returns an event type chosen proportionally to
// staticWeight * probability, or ok=false if no type is eligible.
func (s *Selector) Select(intensity float64) (string, bool) {
	var candidates []candidate
	total := 0.0

	s.catalog.Range(func(eventType string, config catalog.TypeConfig) bool {
		if !config.Enabled || config.Weight <= 0 {
			return true
		}
		p := s.calc.Probability(eventType, intensity)
		if p <= 0 {
			return true
		}
		w := config.Weight * p
		candidates = append(candidates, candidate{eventType: eventType, effectiveWeight: w})
		total += w
		return true
	})

	if len(candidates) == 0 || total <= 0 {
		return "", false
	}

	// Stable order so equal draws map to the same type regardless of map
	// iteration order.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].eventType < candidates[j].eventType
	})

	draw := s.randFloat() * total
	cumulative := 0.0
	for _, c := range candidates {
		cumulative += c.effectiveWeight
		if draw < cumulative {
			return c.eventType, true
		}
	}

	// Floating point drift can leave the draw at or past the full sum.
	// Return the last candidate rather than dropping the selection.
	return candidates[len(candidates)-1].eventType, true
}

// cryptoFloat returns a uniform float64 in [0,1) backed by crypto/rand.
func cryptoFloat() float64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; bias to the
		// first candidate rather than panicking in a selection path.
		return 0
	}
	// 53 random bits give a uniform value on the float64 lattice.
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
}
