// Package config loads engine settings and event catalogs from YAML or JSON.
//
// Files are parsed into a loosely-typed map first, then decoded through
// typed accessors with defaults, so partial files are always usable.
package config

import (
	"time"
)

// Engine setting defaults.
const (
	DefaultHistoryCapacity    = 10
	DefaultProbabilityTTL     = 100 * time.Millisecond
	DefaultFailureThreshold   = 3
	DefaultRecoveryWindow     = 5 * time.Minute
	DefaultErrorResetWindow   = time.Minute
	DefaultOperationTimeout   = 10 * time.Second
	DefaultCacheCapacity      = 128
	DefaultCacheTTL           = 5 * time.Minute
	DefaultCacheSweepInterval = time.Minute
)

// Settings holds tunable engine parameters.
type Settings struct {
	// HistoryCapacity is the size of the bounded event history.
	HistoryCapacity int

	// ProbabilityTTL is how long computed probabilities are memoized.
	ProbabilityTTL time.Duration

	// FailureThreshold is the consecutive failure count that trips a breaker.
	FailureThreshold int

	// RecoveryWindow is how long a tripped component stays disabled.
	RecoveryWindow time.Duration

	// ErrorResetWindow restarts a failure streak if the gap since the last
	// error exceeds it.
	ErrorResetWindow time.Duration

	// OperationTimeout bounds each effect handler invocation.
	OperationTimeout time.Duration

	// CacheCapacity, CacheTTL and CacheSweepInterval configure the shared
	// resource cache.
	CacheCapacity      int
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration
}

// DefaultSettings returns the standard engine settings.
func DefaultSettings() Settings {
	return Settings{
		HistoryCapacity:    DefaultHistoryCapacity,
		ProbabilityTTL:     DefaultProbabilityTTL,
		FailureThreshold:   DefaultFailureThreshold,
		RecoveryWindow:     DefaultRecoveryWindow,
		ErrorResetWindow:   DefaultErrorResetWindow,
		OperationTimeout:   DefaultOperationTimeout,
		CacheCapacity:      DefaultCacheCapacity,
		CacheTTL:           DefaultCacheTTL,
		CacheSweepInterval: DefaultCacheSweepInterval,
	}
}

// Config wraps a map[string]any for type-safe value extraction.
// All accessor methods return default values if the key is missing or the
// value cannot be converted to the requested type.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// Duration returns the duration value for key, or defaultVal if missing or
// invalid.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64: interpreted as seconds
//   - time.Duration: used directly
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not
// convertible. Floats convert only when they carry no fractional part.
func (c Config) Int(key string, defaultVal int) int {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal if missing or not
// convertible.
func (c Config) Float(key string, defaultVal float64) float64 {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not
// a bool.
func (c Config) Bool(key string, defaultVal bool) bool {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return defaultVal
}

// Section returns the nested map under key as a Config.
// Missing or non-map values yield an empty Config.
func (c Config) Section(key string) Config {
	v, ok := c.data[key]
	if !ok {
		return New(nil)
	}
	switch m := v.(type) {
	case map[string]any:
		return New(m)
	case map[any]any:
		converted := make(map[string]any, len(m))
		for k, val := range m {
			if s, ok := k.(string); ok {
				converted[s] = val
			}
		}
		return New(converted)
	}
	return New(nil)
}

// Keys returns the top-level keys. Order is not guaranteed.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// Has returns true if the key exists in the config.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Settings decodes the "engine" section into Settings, applying defaults
// for anything absent.
func (c Config) Settings() Settings {
	s := DefaultSettings()
	engine := c.Section("engine")

	s.HistoryCapacity = engine.Int("history_capacity", s.HistoryCapacity)
	s.ProbabilityTTL = engine.Duration("probability_ttl", s.ProbabilityTTL)
	s.FailureThreshold = engine.Int("failure_threshold", s.FailureThreshold)
	s.RecoveryWindow = engine.Duration("recovery_window", s.RecoveryWindow)
	s.ErrorResetWindow = engine.Duration("error_reset_window", s.ErrorResetWindow)
	s.OperationTimeout = engine.Duration("operation_timeout", s.OperationTimeout)
	s.CacheCapacity = engine.Int("cache_capacity", s.CacheCapacity)
	s.CacheTTL = engine.Duration("cache_ttl", s.CacheTTL)
	s.CacheSweepInterval = engine.Duration("cache_sweep_interval", s.CacheSweepInterval)

	return s
}
