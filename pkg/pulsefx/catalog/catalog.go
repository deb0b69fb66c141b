// Package catalog holds the static per-event-type configuration that drives
// probability and selection.
//
// Entries are immutable once registered; the only mutation path is an
// explicit Update, which replaces the whole entry under the catalog lock.
package catalog

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Unlimited is the MaxPerSession value meaning no session cap.
const Unlimited = 0

// Sentinel errors for catalog operations.
var (
	// ErrTypeNotFound indicates an operation referenced an unregistered type.
	ErrTypeNotFound = errors.New("event type not found")

	// ErrTypeExists indicates Register was called for an existing type.
	ErrTypeExists = errors.New("event type already registered")
)

// TypeConfig is the static configuration for one event type.
type TypeConfig struct {
	// BaseChance is the baseline trigger probability in [0,1].
	BaseChance float64

	// IntensityMultiplier scales the intensity contribution. Must be >= 0.
	IntensityMultiplier float64

	// Cooldown is the minimum gap between firings of this type. Must be > 0.
	Cooldown time.Duration

	// MaxPerSession caps firings per session. Unlimited (0) means no cap.
	MaxPerSession int

	// Weight is the static selection weight. Must be >= 0.
	Weight float64

	// Enabled gates the type entirely. A disabled type never fires.
	Enabled bool
}

// Validate checks the configuration for errors.
func (c TypeConfig) Validate() error {
	if c.BaseChance < 0 || c.BaseChance > 1 {
		return fmt.Errorf("base chance must be in [0,1], got %v", c.BaseChance)
	}
	if c.IntensityMultiplier < 0 {
		return fmt.Errorf("intensity multiplier must be >= 0, got %v", c.IntensityMultiplier)
	}
	if c.Cooldown <= 0 {
		return fmt.Errorf("cooldown must be positive, got %v", c.Cooldown)
	}
	if c.MaxPerSession < 0 {
		return fmt.Errorf("max per session must be >= 0, got %d", c.MaxPerSession)
	}
	if c.Weight < 0 {
		return fmt.Errorf("weight must be >= 0, got %v", c.Weight)
	}
	return nil
}

// Catalog is a thread-safe registry of event type configurations.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]TypeConfig
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		entries: make(map[string]TypeConfig),
	}
}

// Register adds a new event type. Fails if the type already exists or the
// configuration is invalid.
func (c *Catalog) Register(eventType string, config TypeConfig) error {
	if eventType == "" {
		return errors.New("event type name is required")
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("event type %q: %w", eventType, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[eventType]; exists {
		return fmt.Errorf("%w: %s", ErrTypeExists, eventType)
	}

	c.entries[eventType] = config
	return nil
}

// Update replaces the configuration for an existing type.
func (c *Catalog) Update(eventType string, config TypeConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("event type %q: %w", eventType, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[eventType]; !exists {
		return fmt.Errorf("%w: %s", ErrTypeNotFound, eventType)
	}

	c.entries[eventType] = config
	return nil
}

// SetEnabled flips the enabled flag for a type.
func (c *Catalog) SetEnabled(eventType string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	config, exists := c.entries[eventType]
	if !exists {
		return fmt.Errorf("%w: %s", ErrTypeNotFound, eventType)
	}

	config.Enabled = enabled
	c.entries[eventType] = config
	return nil
}

// Get returns the configuration for a type and whether it exists.
func (c *Catalog) Get(eventType string) (TypeConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	config, ok := c.entries[eventType]
	return config, ok
}

// Cooldown returns the cooldown for a type and whether the type exists.
func (c *Catalog) Cooldown(eventType string) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	config, ok := c.entries[eventType]
	if !ok {
		return 0, false
	}
	return config.Cooldown, true
}

// Types returns all registered type names. Order is not guaranteed.
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make([]string, 0, len(c.entries))
	for t := range c.entries {
		types = append(types, t)
	}
	return types
}

// Len returns the number of registered types.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Range iterates over a snapshot of the catalog, so registration during
// iteration does not affect the current pass. If fn returns false,
// iteration stops.
func (c *Catalog) Range(fn func(eventType string, config TypeConfig) bool) {
	c.mu.RLock()
	snapshot := make(map[string]TypeConfig, len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	c.mu.RUnlock()

	for k, v := range snapshot {
		if !fn(k, v) {
			return
		}
	}
}
