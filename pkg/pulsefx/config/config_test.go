package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessorDefaults(t *testing.T) {
	c := New(nil)

	assert.Equal(t, 7, c.Int("missing", 7))
	assert.Equal(t, 1.5, c.Float("missing", 1.5))
	assert.Equal(t, time.Minute, c.Duration("missing", time.Minute))
	assert.True(t, c.Bool("missing", true))
	assert.False(t, c.Has("missing"))
}

func TestDurationConversions(t *testing.T) {
	c := New(map[string]any{
		"str":     "90s",
		"int":     30,
		"float":   1.5,
		"garbage": "not a duration",
	})

	assert.Equal(t, 90*time.Second, c.Duration("str", 0))
	assert.Equal(t, 30*time.Second, c.Duration("int", 0))
	assert.Equal(t, 1500*time.Millisecond, c.Duration("float", 0))
	assert.Equal(t, time.Minute, c.Duration("garbage", time.Minute))
}

func TestIntRejectsFractionalFloat(t *testing.T) {
	c := New(map[string]any{"whole": 3.0, "frac": 3.5})

	assert.Equal(t, 3, c.Int("whole", 0))
	assert.Equal(t, 9, c.Int("frac", 9))
}

func TestSection(t *testing.T) {
	c := New(map[string]any{
		"engine": map[string]any{"history_capacity": 20},
		"scalar": 5,
	})

	assert.Equal(t, 20, c.Section("engine").Int("history_capacity", 0))
	assert.Equal(t, 0, c.Section("scalar").Int("anything", 0))
	assert.Equal(t, 0, c.Section("missing").Int("anything", 0))
}

func TestSettingsDefaults(t *testing.T) {
	s := New(nil).Settings()
	assert.Equal(t, DefaultSettings(), s)
}

func TestSettingsFromYAML(t *testing.T) {
	c, err := FromYAML([]byte(`
engine:
  history_capacity: 20
  probability_ttl: 250ms
  failure_threshold: 5
  recovery_window: 2m
  cache_capacity: 64
`))
	require.NoError(t, err)

	s := c.Settings()
	assert.Equal(t, 20, s.HistoryCapacity)
	assert.Equal(t, 250*time.Millisecond, s.ProbabilityTTL)
	assert.Equal(t, 5, s.FailureThreshold)
	assert.Equal(t, 2*time.Minute, s.RecoveryWindow)
	assert.Equal(t, 64, s.CacheCapacity)

	// Unset keys keep defaults.
	assert.Equal(t, DefaultOperationTimeout, s.OperationTimeout)
}

func TestEventTypesFromYAML(t *testing.T) {
	c, err := FromYAML([]byte(`
events:
  sparks:
    base_chance: 0.3
    intensity_multiplier: 2.0
    cooldown: 45s
    max_per_session: 3
    weight: 10
  glow:
    enabled: false
`))
	require.NoError(t, err)

	types, err := c.EventTypes()
	require.NoError(t, err)
	require.Len(t, types, 2)

	sparks := types["sparks"]
	assert.Equal(t, 0.3, sparks.BaseChance)
	assert.Equal(t, 2.0, sparks.IntensityMultiplier)
	assert.Equal(t, 45*time.Second, sparks.Cooldown)
	assert.Equal(t, 3, sparks.MaxPerSession)
	assert.Equal(t, float64(10), sparks.Weight)
	assert.True(t, sparks.Enabled)

	glow := types["glow"]
	assert.False(t, glow.Enabled)
	assert.Equal(t, defaultCooldown, glow.Cooldown)
	assert.Equal(t, defaultWeight, glow.Weight)
}

func TestEventTypesInvalidEntry(t *testing.T) {
	c, err := FromYAML([]byte(`
events:
  broken:
    base_chance: 2.0
`))
	require.NoError(t, err)

	_, err = c.EventTypes()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestCatalogFromConfig(t *testing.T) {
	c, err := FromYAML([]byte(`
events:
  sparks:
    base_chance: 0.2
`))
	require.NoError(t, err)

	cat, err := c.Catalog()
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())

	tc, ok := cat.Get("sparks")
	require.True(t, ok)
	assert.Equal(t, 0.2, tc.BaseChance)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("engine:\n  failure_threshold: 4\n"), 0o644))

	c, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Settings().FailureThreshold)

	jsonPath := filepath.Join(dir, "engine.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"engine":{"failure_threshold":6}}`), 0o644))

	c, err = FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Settings().FailureThreshold)

	_, err = FromFile(filepath.Join(dir, "engine.toml"))
	assert.Error(t, err)

	_, err = FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFromYAMLInvalid(t *testing.T) {
	_, err := FromYAML([]byte("engine: [unclosed"))
	assert.Error(t, err)
}
