// Package pulsefx is a stochastic effect trigger engine.
//
// The engine decides when ambient effects fire. Callers feed it an intensity
// signal in [0,100]; the engine computes a per-type trigger probability from
// the type's base chance, the intensity, how long the type has been quiet,
// and how often it repeated recently, then performs a weighted random draw
// over the eligible types. Committed events go to registered effect managers
// through a per-component circuit breaker, so one failing handler cannot
// take the session down.
//
// Basic usage:
//
//	cat := catalog.New()
//	cat.Register("sparks", catalog.TypeConfig{
//		BaseChance: 0.2,
//		Cooldown:   30 * time.Second,
//		Weight:     1.0,
//		Enabled:    true,
//	})
//
//	engine := pulsefx.New(cat)
//	defer engine.Close()
//
//	engine.Managers().Register(myLightingManager)
//
//	ev, fired, err := engine.Trigger(ctx, 65)
//
// Selection and recording happen atomically inside Trigger: no two
// concurrent triggers can both fire a type that only has one cooldown slot
// left. SelectEvent alone never records; committing is always explicit.
//
// Subpackages hold the moving parts: catalog (type configuration), history
// (bounded event log and cooldowns), prob (probability and weighted draw),
// breaker (per-component isolation), cache (generic TTL/LRU resource cache),
// manager (effect handler capability), notify (engine notices), config
// (YAML/JSON loading) and observability (slog/OTel helpers).
package pulsefx
