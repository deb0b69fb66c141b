// Package history tracks recent effect occurrences and derives cooldown
// state from them.
//
// The history is a fixed-capacity FIFO: once full, recording evicts the
// oldest entry. Session counters and intensity aggregates survive eviction
// and reset only with the session.
package history

import (
	"sync"
	"time"
)

// DefaultCapacity is the standard bounded history size.
const DefaultCapacity = 10

// Record is one effect occurrence. Immutable once created.
type Record struct {
	// Type is the event type that fired.
	Type string

	// Time is when the event was recorded.
	Time time.Time

	// Intensity is the intensity signal at firing time, in [0,100].
	Intensity float64

	// Variant optionally distinguishes sub-variants of the effect.
	Variant string
}

// History is a bounded log of fired events plus per-type session counters.
type History struct {
	mu       sync.Mutex
	records  []Record
	capacity int
	counters map[string]int

	totalEvents  int
	intensitySum float64

	now func() time.Time
}

// Option configures a History.
type Option func(*History)

// WithNow overrides the time source. Used in tests.
func WithNow(now func() time.Time) Option {
	return func(h *History) {
		h.now = now
	}
}

// New creates a history with the given capacity.
// Non-positive capacities fall back to DefaultCapacity.
func New(capacity int, opts ...Option) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	h := &History{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
		counters: make(map[string]int),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Record appends an occurrence, evicting the oldest entry when full, and
// increments the session counter for the type.
func (h *History) Record(eventType string, intensity float64, variant string) Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := Record{
		Type:      eventType,
		Time:      h.now(),
		Intensity: intensity,
		Variant:   variant,
	}

	if len(h.records) >= h.capacity {
		h.records = h.records[1:]
	}
	h.records = append(h.records, rec)

	h.counters[eventType]++
	h.totalEvents++
	h.intensitySum += intensity

	return rec
}

// TimeSinceLast returns the elapsed time since the most recent occurrence
// of eventType. ok is false if the type never occurred in the retained
// history.
func (h *History) TimeSinceLast(eventType string) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].Type == eventType {
			return h.now().Sub(h.records[i].Time), true
		}
	}
	return 0, false
}

// Recent returns the last n records in chronological order, or fewer if
// the history is shorter.
func (h *History) Recent(n int) []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 {
		return nil
	}
	if n > len(h.records) {
		n = len(h.records)
	}

	out := make([]Record, n)
	copy(out, h.records[len(h.records)-n:])
	return out
}

// CountFor returns the session occurrence count for a type.
func (h *History) CountFor(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counters[eventType]
}

// Counters returns a copy of the per-type session counters.
func (h *History) Counters() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]int, len(h.counters))
	for k, v := range h.counters {
		out[k] = v
	}
	return out
}

// TotalEvents returns the number of events recorded this session,
// including any evicted from the bounded history.
func (h *History) TotalEvents() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalEvents
}

// AverageIntensity returns the mean intensity over the session, or 0 if
// nothing has been recorded.
func (h *History) AverageIntensity() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalEvents == 0 {
		return 0
	}
	return h.intensitySum / float64(h.totalEvents)
}

// Len returns the number of retained records.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// Reset clears history, counters and aggregates for a new session.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = h.records[:0]
	h.counters = make(map[string]int)
	h.totalEvents = 0
	h.intensitySum = 0
}
