package benchmarks

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/randalmurphal/pulsefx/pkg/pulsefx"
	"github.com/randalmurphal/pulsefx/pkg/pulsefx/catalog"
)

// buildCatalog creates a catalog with n enabled event types.
func buildCatalog(n int) *catalog.Catalog {
	cat := catalog.New()
	for i := 0; i < n; i++ {
		_ = cat.Register(fmt.Sprintf("type-%03d", i), catalog.TypeConfig{
			BaseChance:          0.2,
			IntensityMultiplier: 1.0,
			Cooldown:            30 * time.Second,
			Weight:              1.0 + float64(i%5),
			Enabled:             true,
		})
	}
	return cat
}

func newBenchEngine(b *testing.B, n int) *pulsefx.Engine {
	b.Helper()
	e := pulsefx.New(buildCatalog(n),
		pulsefx.WithLogger(slog.New(slog.DiscardHandler)),
	)
	b.Cleanup(e.Close)
	return e
}

// BenchmarkCalculateProbability measures a memoized probability lookup.
func BenchmarkCalculateProbability(b *testing.B) {
	e := newBenchEngine(b, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.CalculateProbability("type-000", 50)
	}
}

// BenchmarkSelectEvent_10 measures a weighted draw over 10 types.
func BenchmarkSelectEvent_10(b *testing.B) {
	e := newBenchEngine(b, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.SelectEvent(50)
	}
}

// BenchmarkSelectEvent_100 measures a weighted draw over 100 types.
func BenchmarkSelectEvent_100(b *testing.B) {
	e := newBenchEngine(b, 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.SelectEvent(50)
	}
}

// BenchmarkRecordEvent measures committing an occurrence, including the
// memo invalidation it forces.
func BenchmarkRecordEvent(b *testing.B) {
	e := newBenchEngine(b, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.RecordEvent("type-000", 50, "")
	}
}

// BenchmarkSessionStats measures the stats snapshot.
func BenchmarkSessionStats(b *testing.B) {
	e := newBenchEngine(b, 10)
	for i := 0; i < 10; i++ {
		_, _ = e.RecordEvent(fmt.Sprintf("type-%03d", i), 50, "")
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.SessionStats()
	}
}
