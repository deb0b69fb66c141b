package history

import "time"

// CooldownSource provides per-type cooldown durations.
// The catalog satisfies this interface.
type CooldownSource interface {
	// Cooldown returns the cooldown for a type and whether the type exists.
	Cooldown(eventType string) (time.Duration, bool)
}

// Tracker derives cooldown state from history and the type catalog.
type Tracker struct {
	history *History
	source  CooldownSource
}

// NewTracker creates a cooldown tracker.
func NewTracker(h *History, source CooldownSource) *Tracker {
	return &Tracker{history: h, source: source}
}

// IsOnCooldown reports whether the type may not fire yet.
// Unknown types are treated as on cooldown (fail safe).
func (t *Tracker) IsOnCooldown(eventType string) bool {
	cooldown, ok := t.source.Cooldown(eventType)
	if !ok {
		return true
	}

	elapsed, occurred := t.history.TimeSinceLast(eventType)
	if !occurred {
		return false
	}
	return elapsed < cooldown
}

// Remaining returns how long until the type may fire again.
// Zero means the type is off cooldown; unknown types report their full
// absence as permanently on cooldown via IsOnCooldown, and Remaining
// returns 0 for them since no duration is defined.
func (t *Tracker) Remaining(eventType string) time.Duration {
	cooldown, ok := t.source.Cooldown(eventType)
	if !ok {
		return 0
	}

	elapsed, occurred := t.history.TimeSinceLast(eventType)
	if !occurred {
		return 0
	}

	remaining := cooldown - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
