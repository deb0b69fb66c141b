package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/pulsefx/pkg/pulsefx/catalog"
)

// FromFile loads configuration from a file, auto-detecting format by
// extension. Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}

// Event type entry defaults.
const (
	defaultBaseChance = 0.1
	defaultMultiplier = 1.0
	defaultCooldown   = 30 * time.Second
	defaultWeight     = 1.0
)

// EventTypes decodes the "events" section into validated catalog entries.
// Each entry is a map keyed by event type name; absent fields take defaults,
// and "enabled" defaults to true.
func (c Config) EventTypes() (map[string]catalog.TypeConfig, error) {
	events := c.Section("events")
	result := make(map[string]catalog.TypeConfig, len(events.data))

	for _, name := range events.Keys() {
		entry := events.Section(name)

		tc := catalog.TypeConfig{
			BaseChance:          entry.Float("base_chance", defaultBaseChance),
			IntensityMultiplier: entry.Float("intensity_multiplier", defaultMultiplier),
			Cooldown:            entry.Duration("cooldown", defaultCooldown),
			MaxPerSession:       entry.Int("max_per_session", catalog.Unlimited),
			Weight:              entry.Float("weight", defaultWeight),
			Enabled:             entry.Bool("enabled", true),
		}

		if err := tc.Validate(); err != nil {
			return nil, fmt.Errorf("event %q: %w", name, err)
		}
		result[name] = tc
	}

	return result, nil
}

// Catalog builds a catalog from the "events" section.
func (c Config) Catalog() (*catalog.Catalog, error) {
	types, err := c.EventTypes()
	if err != nil {
		return nil, err
	}

	cat := catalog.New()
	for name, tc := range types {
		if err := cat.Register(name, tc); err != nil {
			return nil, err
		}
	}
	return cat, nil
}
