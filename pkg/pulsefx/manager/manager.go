// Package manager defines the narrow capability interface the engine uses
// to drive external effect handlers, and a registry to resolve them at
// wiring time.
//
// The engine never inspects a manager beyond this interface: it only flips
// the enabled flag and observes whether Trigger returns an error. All
// Trigger calls go through the circuit breaker.
package manager

import (
	"context"
	"sync"
	"time"
)

// Event carries the committed occurrence to a manager's Trigger call.
type Event struct {
	// Type is the selected event type.
	Type string

	// Intensity is the intensity signal at selection time, in [0,100].
	Intensity float64

	// Variant optionally selects a sub-variant of the effect.
	Variant string

	// FiredAt is when the event was recorded.
	FiredAt time.Time
}

// EffectManager is the capability the engine consumes per effect component.
type EffectManager interface {
	// Name identifies the component for breaker and logging purposes.
	Name() string

	// Enable allows the manager to run effects.
	Enable()

	// Disable stops the manager from running effects.
	Disable()

	// Enabled reports whether the manager will act on triggers.
	Enabled() bool

	// Trigger runs the effect for a committed event. Long-running effect
	// work should return once the effect is safely underway: the engine
	// awaits only long enough to classify success or failure.
	Trigger(ctx context.Context, ev Event) error
}

// Registry resolves effect managers by component name.
// Registration happens at wiring time, not through dynamic discovery.
type Registry struct {
	mu       sync.RWMutex
	managers map[string]EffectManager
}

// NewRegistry creates an empty manager registry.
func NewRegistry() *Registry {
	return &Registry{
		managers: make(map[string]EffectManager),
	}
}

// Register adds or replaces a manager under its own name.
func (r *Registry) Register(m EffectManager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers[m.Name()] = m
}

// Get returns the manager for a component and whether it exists.
func (r *Registry) Get(component string) (EffectManager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.managers[component]
	return m, ok
}

// Remove deletes a manager. Missing names are a no-op.
func (r *Registry) Remove(component string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.managers, component)
}

// Names returns all registered component names. Order is not guaranteed.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.managers))
	for name := range r.managers {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered managers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.managers)
}

// Range iterates over a snapshot of the registry. If fn returns false,
// iteration stops.
func (r *Registry) Range(fn func(component string, m EffectManager) bool) {
	r.mu.RLock()
	snapshot := make(map[string]EffectManager, len(r.managers))
	for k, v := range r.managers {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	for k, v := range snapshot {
		if !fn(k, v) {
			return
		}
	}
}
