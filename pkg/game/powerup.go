package game

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/trytobebee/snakesim/pkg/config"
)

const fallbackEffectDuration = 3 * time.Second

// PowerUpSystem owns the single pickup slot and the active effects.
// Times are simulation time, so every timer stands still while paused.
type PowerUpSystem struct {
	cfg         config.PowerUps
	rng         *rand.Rand
	spawner     *Spawner
	pickup      *Pickup
	active      map[PowerUpType]time.Duration // type -> expiresAt
	lastSpawnAt time.Duration
	log         zerolog.Logger
}

// NewPowerUpSystem creates an empty system
func NewPowerUpSystem(cfg config.PowerUps, rng *rand.Rand, spawner *Spawner, logger zerolog.Logger) *PowerUpSystem {
	return &PowerUpSystem{
		cfg:     cfg,
		rng:     rng,
		spawner: spawner,
		active:  make(map[PowerUpType]time.Duration),
		log:     logger,
	}
}

// Reset clears the pickup and all effects and restarts the spawn timer at now
func (p *PowerUpSystem) Reset(now time.Duration) {
	p.pickup = nil
	clear(p.active)
	p.lastSpawnAt = now
}

// Duration returns how long an effect of type t lasts
func (p *PowerUpSystem) Duration(t PowerUpType) time.Duration {
	if d, ok := p.cfg.Durations[t.String()]; ok && d > 0 {
		return d
	}
	return fallbackEffectDuration
}

// Tick expires effects and the pickup, then spawns a new pickup when the
// slot is empty and the spawn interval has passed. Calling it twice with
// the same now changes nothing the second time.
func (p *PowerUpSystem) Tick(now time.Duration, occupied Occupancy, size int) {
	for t, expiresAt := range p.active {
		if expiresAt <= now {
			delete(p.active, t)
			p.log.Debug().Str("effect", t.String()).Dur("at", now).Msg("effect expired")
		}
	}

	if p.pickup != nil && p.pickup.Expired(now) {
		p.log.Debug().Str("pickup", p.pickup.Type.String()).Dur("at", now).Msg("pickup expired")
		p.pickup = nil
	}

	if !p.cfg.Enabled || p.pickup != nil || now-p.lastSpawnAt < p.cfg.SpawnInterval {
		return
	}

	t := AllPowerUps[p.rng.Intn(len(AllPowerUps))]
	pos, ok := p.spawner.Place(occupied, size)
	p.lastSpawnAt = now
	if !ok {
		return
	}
	p.pickup = &Pickup{Type: t, Pos: pos, SpawnedAt: now, Lifetime: p.cfg.Lifetime}
	p.log.Debug().Str("pickup", t.String()).Int("x", pos.X).Int("y", pos.Y).Msg("pickup spawned")
}

// TryCollect activates the pickup if head is on it. Collecting a type that
// is already active overwrites its expiry rather than extending it.
func (p *PowerUpSystem) TryCollect(head Point, now time.Duration) (PowerUpType, bool) {
	if p.pickup == nil || p.pickup.Pos != head {
		return 0, false
	}
	t := p.pickup.Type
	p.Activate(t, now)
	p.pickup = nil
	return t, true
}

// Activate starts (or restarts) effect t at now
func (p *PowerUpSystem) Activate(t PowerUpType, now time.Duration) {
	p.active[t] = now + p.Duration(t)
	p.log.Debug().Str("effect", t.String()).Dur("expiresAt", p.active[t]).Msg("effect activated")
}

// Pickup returns the spawned pickup or nil
func (p *PowerUpSystem) Pickup() *Pickup {
	return p.pickup
}

// IsActive reports whether effect t is in force
func (p *PowerUpSystem) IsActive(t PowerUpType) bool {
	_, ok := p.active[t]
	return ok
}

// ExpiresAt returns the expiry of effect t
func (p *PowerUpSystem) ExpiresAt(t PowerUpType) (time.Duration, bool) {
	at, ok := p.active[t]
	return at, ok
}

// Active returns the active effect types in a stable order
func (p *PowerUpSystem) Active() []PowerUpType {
	out := make([]PowerUpType, 0, len(p.active))
	for t := range p.active {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SpeedScale is the product of the active speed multipliers, floored
func (p *PowerUpSystem) SpeedScale() float64 {
	scale := 1.0
	if p.IsActive(PowerUpSpeed) {
		scale *= config.SpeedMultiplier
	}
	if p.IsActive(PowerUpSlow) {
		scale *= config.SlowMultiplier
	}
	if scale < config.MinSpeedScale {
		scale = config.MinSpeedScale
	}
	return scale
}

// ScoreMultiplier is 2 while double points is active, else 1
func (p *PowerUpSystem) ScoreMultiplier() int {
	if p.IsActive(PowerUpDouble) {
		return config.DoubleScore
	}
	return 1
}

func (p *PowerUpSystem) HasShield() bool { return p.IsActive(PowerUpShield) }
func (p *PowerUpSystem) HasGhost() bool  { return p.IsActive(PowerUpGhost) }
func (p *PowerUpSystem) HasMagnet() bool { return p.IsActive(PowerUpMagnet) }

func (p *PowerUpSystem) effects(now time.Duration) []EffectInfo {
	types := p.Active()
	out := make([]EffectInfo, 0, len(types))
	for _, t := range types {
		remaining := p.active[t] - now
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, EffectInfo{Type: t.String(), RemainingSeconds: remaining.Seconds()})
	}
	return out
}
