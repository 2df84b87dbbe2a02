package game

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/trytobebee/snakesim/pkg/config"
)

func newTestPowerUps(seed uint64, cfg config.PowerUps) *PowerUpSystem {
	rng := rand.New(rand.NewSource(seed))
	spawner := NewSpawner(rng, config.MaxPlacementAttempts, zerolog.Nop())
	return NewPowerUpSystem(cfg, rng, spawner, zerolog.Nop())
}

func TestEffectExpiryBoundary(t *testing.T) {
	for _, typ := range AllPowerUps {
		t.Run(typ.String(), func(t *testing.T) {
			p := newTestPowerUps(1, config.DefaultPowerUps())
			now := 2 * time.Second
			p.Activate(typ, now)

			expiresAt, ok := p.ExpiresAt(typ)
			if !ok {
				t.Fatal("effect not active after Activate")
			}
			if want := now + p.Duration(typ); expiresAt != want {
				t.Errorf("expiresAt = %v, want %v", expiresAt, want)
			}

			p.Tick(expiresAt-time.Millisecond, Occupancy{}, 20)
			if !p.IsActive(typ) {
				t.Error("effect expired before expiresAt")
			}
			p.Tick(expiresAt, Occupancy{}, 20)
			if p.IsActive(typ) {
				t.Error("effect still active at expiresAt")
			}
		})
	}
}

func TestTickIdempotentAtSameNow(t *testing.T) {
	p := newTestPowerUps(7, config.DefaultPowerUps())
	p.Activate(PowerUpSpeed, 0)
	p.Activate(PowerUpDouble, time.Second)

	now := 5 * time.Second // speed expires here, double does not
	p.Tick(now, Occupancy{}, 20)
	first := p.Active()
	pickup := p.Pickup()

	p.Tick(now, Occupancy{}, 20)
	second := p.Active()

	if len(first) != len(second) {
		t.Fatalf("active set changed: %v then %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("active set changed: %v then %v", first, second)
		}
	}
	if p.Pickup() != pickup {
		t.Error("pickup changed on repeated tick")
	}
}

func TestCollectOverwritesExpiry(t *testing.T) {
	p := newTestPowerUps(1, config.DefaultPowerUps())
	p.Activate(PowerUpShield, 0)
	p.pickup = &Pickup{Type: PowerUpShield, Pos: Point{X: 3, Y: 3}, SpawnedAt: time.Second, Lifetime: 5 * time.Second}

	if _, ok := p.TryCollect(Point{X: 4, Y: 3}, 2*time.Second); ok {
		t.Fatal("collected from the wrong cell")
	}
	typ, ok := p.TryCollect(Point{X: 3, Y: 3}, 2*time.Second)
	if !ok || typ != PowerUpShield {
		t.Fatalf("TryCollect = %v, %v", typ, ok)
	}
	if at, _ := p.ExpiresAt(PowerUpShield); at != 2*time.Second+config.ShieldDuration {
		t.Errorf("expiresAt = %v, want %v", at, 2*time.Second+config.ShieldDuration)
	}
	if p.Pickup() != nil {
		t.Error("pickup slot not emptied by collection")
	}
}

func TestPickupSpawnAndExpire(t *testing.T) {
	cfg := config.DefaultPowerUps()
	p := newTestPowerUps(3, cfg)
	p.Reset(0)

	p.Tick(cfg.SpawnInterval-time.Millisecond, Occupancy{}, 20)
	if p.Pickup() != nil {
		t.Fatal("pickup spawned before the interval elapsed")
	}

	p.Tick(cfg.SpawnInterval, Occupancy{}, 20)
	pickup := p.Pickup()
	if pickup == nil {
		t.Fatal("no pickup after the spawn interval")
	}
	if got := pickup.RemainingFraction(cfg.SpawnInterval); got != 1 {
		t.Errorf("RemainingFraction at spawn = %v, want 1", got)
	}

	// Slot is taken, so nothing new spawns until it expires
	p.Tick(cfg.SpawnInterval+cfg.Lifetime-time.Millisecond, Occupancy{}, 20)
	if p.Pickup() != pickup {
		t.Error("pickup replaced while the slot was full")
	}

	p.Tick(cfg.SpawnInterval+cfg.Lifetime, Occupancy{}, 20)
	if p.Pickup() != nil {
		t.Error("pickup survived its lifetime")
	}
}

func TestPickupAvoidsOccupiedCells(t *testing.T) {
	cfg := config.DefaultPowerUps()
	cfg.SpawnInterval = time.Millisecond
	p := newTestPowerUps(11, cfg)

	occupied := Occupancy{}
	for x := 0; x < 6; x++ {
		for y := 0; y < 5; y++ {
			occupied.Add(Point{X: x, Y: y})
		}
	}
	// One free cell left on a 6x6 board
	for x := 0; x < 5; x++ {
		occupied.Add(Point{X: x, Y: 5})
	}

	p.Tick(time.Millisecond, occupied, 6)
	pickup := p.Pickup()
	if pickup == nil {
		t.Fatal("no pickup spawned")
	}
	if pickup.Pos != (Point{X: 5, Y: 5}) {
		t.Errorf("pickup at %v, want the only free cell (5,5)", pickup.Pos)
	}
}

func TestDisabledPowerUpsNeverSpawn(t *testing.T) {
	cfg := config.DefaultPowerUps()
	cfg.Enabled = false
	p := newTestPowerUps(1, cfg)
	for now := time.Duration(0); now < time.Minute; now += time.Second {
		p.Tick(now, Occupancy{}, 20)
	}
	if p.Pickup() != nil {
		t.Error("pickup spawned with power-ups disabled")
	}
}

func TestSpeedScaleAndMultiplier(t *testing.T) {
	p := newTestPowerUps(1, config.DefaultPowerUps())
	if p.SpeedScale() != 1 || p.ScoreMultiplier() != 1 {
		t.Fatalf("idle system: scale=%v mult=%d", p.SpeedScale(), p.ScoreMultiplier())
	}

	p.Activate(PowerUpSpeed, 0)
	if p.SpeedScale() != config.SpeedMultiplier {
		t.Errorf("speed scale = %v, want %v", p.SpeedScale(), config.SpeedMultiplier)
	}
	p.Activate(PowerUpSlow, 0)
	want := config.SpeedMultiplier * config.SlowMultiplier
	if p.SpeedScale() != want {
		t.Errorf("speed+slow scale = %v, want %v", p.SpeedScale(), want)
	}

	p.Activate(PowerUpDouble, 0)
	if p.ScoreMultiplier() != config.DoubleScore {
		t.Errorf("ScoreMultiplier = %d, want %d", p.ScoreMultiplier(), config.DoubleScore)
	}
}

func TestDurationFallback(t *testing.T) {
	cfg := config.DefaultPowerUps()
	delete(cfg.Durations, "magnet")
	p := newTestPowerUps(1, cfg)
	if got := p.Duration(PowerUpMagnet); got != fallbackEffectDuration {
		t.Errorf("Duration(magnet) = %v, want fallback %v", got, fallbackEffectDuration)
	}
	if got := p.Duration(PowerUpDouble); got != config.DoubleDuration {
		t.Errorf("Duration(double) = %v, want %v", got, config.DoubleDuration)
	}
}
