package maps

import (
	"time"

	"github.com/pixil98/go-worldserver/internal/object"
)

// RespawnMode selects how respawn delays react to player density.
type RespawnMode uint8

const (
	RespawnModeOff RespawnMode = iota
	// RespawnModeZonePlayers shortens delays as more players share a zone.
	RespawnModeZonePlayers
)

// Config holds the tunables of one map instance.
type Config struct {
	VisibilityRange float64

	DynamicRespawnMode    RespawnMode
	DynamicRespawnRate    float64
	DynamicRespawnMinimum time.Duration

	// FishingCatchChance is the chance in [0,1] that a bobber hooks a fish.
	FishingCatchChance float64
}

const (
	DefaultDynamicRespawnRate    = 10.0
	DefaultDynamicRespawnMinimum = 10 * time.Second
	DefaultFishingCatchChance    = 0.75
)

func (c Config) withDefaults() Config {
	if c.VisibilityRange <= 0 {
		c.VisibilityRange = object.DefaultVisibilityDistance
	}
	if c.VisibilityRange > object.MaxVisibilityDistance {
		c.VisibilityRange = object.MaxVisibilityDistance
	}
	if c.DynamicRespawnRate <= 0 {
		c.DynamicRespawnRate = DefaultDynamicRespawnRate
	}
	if c.DynamicRespawnMinimum <= 0 {
		c.DynamicRespawnMinimum = DefaultDynamicRespawnMinimum
	}
	if c.FishingCatchChance <= 0 || c.FishingCatchChance > 1 {
		c.FishingCatchChance = DefaultFishingCatchChance
	}
	return c
}
