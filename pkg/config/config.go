package config

import (
	"errors"
	"fmt"
	"time"
)

// Board settings
const (
	DefaultGridSize = 20
	MinGridSize     = 5
	SpawnLength     = 3 // Snake segments at reset
)

// Movement and clock settings
const (
	DefaultMovesPerSecond  = 7.0
	DefaultMaxCatchUpSteps = 5 // Steps drained per frame before dropping backlog
	FrameInterval          = 16 * time.Millisecond
)

// Food settings
const (
	FoodBaseValue        = 10
	FoodGrowAmount       = 1
	MaxPlacementAttempts = 200             // Random samples before the linear scan fallback
	StreakWindow         = 5 * time.Second // Max gap between foods in one streak
)

// Level settings. Score needed per level and the speed multiplier applied on level-up.
const (
	LevelUpScore     = 100
	LevelSpeedFactor = 1.1
)

// Power-up settings
const (
	PowerUpSpawnInterval = 10 * time.Second
	PowerUpLifetime      = 5 * time.Second

	SpeedDuration  = 5 * time.Second
	SlowDuration   = 3 * time.Second
	ShieldDuration = 3 * time.Second
	DoubleDuration = 10 * time.Second
	MagnetDuration = 5 * time.Second
	GhostDuration  = 3 * time.Second

	SpeedMultiplier = 1.8
	SlowMultiplier  = 0.6
	MinSpeedScale   = 0.2
	DoubleScore     = 2
)

// Leaderboard settings
const (
	LeaderboardSize = 10
	DefaultDBPath   = "data/snake.db"
	RecordDir       = "records"
)

// EdgePolicy decides what happens when a head crosses the board edge.
type EdgePolicy string

const (
	EdgeWall EdgePolicy = "wall"
	EdgeWrap EdgePolicy = "wrap"
)

// PowerUps holds power-up timings. Durations are keyed by the power-up name
// ("speed", "slow", "shield", "double", "magnet", "ghost").
type PowerUps struct {
	Enabled       bool                     `json:"enabled"`
	SpawnInterval time.Duration            `json:"spawnInterval"`
	Lifetime      time.Duration            `json:"lifetime"`
	Durations     map[string]time.Duration `json:"durations"`
}

// Config is the full set of knobs for one simulation.
type Config struct {
	GridSize         int        `json:"gridSize"`
	Edge             EdgePolicy `json:"edge"`
	MovesPerSecond   float64    `json:"movesPerSecond"`
	MaxCatchUpSteps  int        `json:"maxCatchUpSteps"`
	FoodValue        int        `json:"foodValue"`
	GrowAmount       int        `json:"growAmount"`
	LevelUpScore     int        `json:"levelUpScore"` // 0 disables levels
	LevelSpeedFactor float64    `json:"levelSpeedFactor"`
	Opponents        int        `json:"opponents"` // Greedy AI snakes
	Seed             uint64     `json:"seed"`
	PowerUps         PowerUps   `json:"powerUps"`
}

// Default returns the standard single-player configuration.
func Default() Config {
	return Config{
		GridSize:         DefaultGridSize,
		Edge:             EdgeWall,
		MovesPerSecond:   DefaultMovesPerSecond,
		MaxCatchUpSteps:  DefaultMaxCatchUpSteps,
		FoodValue:        FoodBaseValue,
		GrowAmount:       FoodGrowAmount,
		LevelUpScore:     0,
		LevelSpeedFactor: LevelSpeedFactor,
		PowerUps:         DefaultPowerUps(),
	}
}

// DefaultPowerUps returns the stock power-up timings.
func DefaultPowerUps() PowerUps {
	return PowerUps{
		Enabled:       true,
		SpawnInterval: PowerUpSpawnInterval,
		Lifetime:      PowerUpLifetime,
		Durations: map[string]time.Duration{
			"speed":  SpeedDuration,
			"slow":   SlowDuration,
			"shield": ShieldDuration,
			"double": DoubleDuration,
			"magnet": MagnetDuration,
			"ghost":  GhostDuration,
		},
	}
}

// StepInterval is the base time between moves before power-up scaling.
func (c Config) StepInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.MovesPerSecond)
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.GridSize < MinGridSize {
		return fmt.Errorf("grid size %d below minimum %d", c.GridSize, MinGridSize)
	}
	if c.Edge != EdgeWall && c.Edge != EdgeWrap {
		return fmt.Errorf("unknown edge policy %q", c.Edge)
	}
	if c.MovesPerSecond <= 0 {
		return errors.New("moves per second must be positive")
	}
	if c.MaxCatchUpSteps < 1 {
		return errors.New("max catch-up steps must be at least 1")
	}
	if c.GrowAmount < 0 {
		return errors.New("grow amount must not be negative")
	}
	if c.LevelUpScore < 0 {
		return errors.New("level-up score must not be negative")
	}
	if c.LevelUpScore > 0 && c.LevelSpeedFactor <= 0 {
		return errors.New("level speed factor must be positive")
	}
	if c.Opponents < 0 || c.Opponents > 3 {
		return fmt.Errorf("opponents must be between 0 and 3, got %d", c.Opponents)
	}
	if c.Opponents > 0 && c.GridSize < 12 {
		return fmt.Errorf("grid size %d too small for opponents", c.GridSize)
	}
	if c.PowerUps.Enabled {
		if c.PowerUps.SpawnInterval <= 0 || c.PowerUps.Lifetime <= 0 {
			return errors.New("power-up spawn interval and lifetime must be positive")
		}
	}
	return nil
}
