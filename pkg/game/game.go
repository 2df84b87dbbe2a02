package game

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/trytobebee/snakesim/pkg/config"
)

// TickResult reports one simulation step
type TickResult struct {
	Tick    uint64
	Now     time.Duration
	Outcome Outcome    // Player outcome
	Player  Resolution // Player details (points gained, pickup, crash cell)
}

// Game is one simulation: the board, the snakes, power-ups and the clock.
// It is not safe for concurrent use; hosts drive it from a single goroutine.
type Game struct {
	cfg      config.Config
	log      zerolog.Logger
	world    World
	rng      *rand.Rand
	spawner  *Spawner
	powerUps *PowerUpSystem
	resolver *Resolver
	clock    *Clock

	controllers map[int]Controller
	player      Controller // restored when autoplay is switched off
	autoPlay    bool

	state     State
	tick      uint64
	session   int
	level     int
	crash     *Point
	collected map[PowerUpType]int
	record    *SessionRecord

	streak        int
	longestStreak int
	lastFoodAt    time.Duration

	sinks     []RecordSink
	observers []Observer
}

// Option configures a Game at construction
type Option func(*Game)

// WithLogger sets the logger used for game events
func WithLogger(l zerolog.Logger) Option {
	return func(g *Game) { g.log = l }
}

// WithRecordSink registers a receiver for the game-over record
func WithRecordSink(s RecordSink) Option {
	return func(g *Game) { g.sinks = append(g.sinks, s) }
}

// WithObserver registers a receiver for session starts and ticks
func WithObserver(o Observer) Option {
	return func(g *Game) { g.observers = append(g.observers, o) }
}

// WithController drives snake id with c instead of the default
func WithController(id int, c Controller) Option {
	return func(g *Game) { g.controllers[id] = c }
}

// New creates a game in the ready state
func New(cfg config.Config, opts ...Option) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	g := &Game{
		cfg:         cfg,
		log:         zerolog.Nop(),
		clock:       NewClock(cfg.MaxCatchUpSteps),
		controllers: make(map[int]Controller),
		session:     -1,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.player = g.controllers[0]
	for id := 1; id <= cfg.Opponents; id++ {
		if _, ok := g.controllers[id]; !ok {
			g.controllers[id] = GreedyController{}
		}
	}
	g.Reset()
	return g, nil
}

// Reset starts a new session: fresh snakes, food and power-ups, clock at
// zero, state ready. Each session reseeds placement from the config seed
// plus the session number so a recorded session can be replayed alone.
func (g *Game) Reset() {
	g.session++
	seed := g.cfg.Seed + uint64(g.session)
	g.rng = rand.New(rand.NewSource(seed))
	g.spawner = NewSpawner(g.rng, config.MaxPlacementAttempts, g.log)
	g.powerUps = NewPowerUpSystem(g.cfg.PowerUps, g.rng, g.spawner, g.log)
	g.resolver = NewResolver(g.powerUps, g.spawner, g.cfg.FoodValue, g.cfg.GrowAmount)
	g.clock.Reset()
	g.powerUps.Reset(g.clock.Now())

	g.world = World{
		Grid:   Grid{Size: g.cfg.GridSize, Edge: g.cfg.Edge},
		Snakes: g.spawnSnakes(),
	}
	pos, ok := g.spawner.Place(g.world.Occupancy(), g.cfg.GridSize)
	g.world.Food = Food{Pos: pos, Value: g.cfg.FoodValue, Active: ok}

	g.state = StateReady
	g.tick = 0
	g.level = 1
	g.crash = nil
	g.record = nil
	g.collected = make(map[PowerUpType]int)
	g.streak, g.longestStreak, g.lastFoodAt = 0, 0, 0

	h := SessionHeader{Session: g.session, Seed: seed, Config: g.cfg}
	for _, o := range g.observers {
		o.SessionStarted(h)
	}
}

func (g *Game) spawnSnakes() []*Snake {
	size := g.cfg.GridSize
	c := size / 2
	snakes := []*Snake{NewSnake(0, Point{X: c, Y: c}, DirRight, config.SpawnLength, g.cfg.MovesPerSecond)}

	starts := []struct {
		head Point
		dir  Direction
	}{
		{Point{X: c, Y: size / 4}, DirLeft},
		{Point{X: c, Y: 3 * size / 4}, DirLeft},
		{Point{X: size - 3, Y: c}, DirLeft},
	}
	for i := 0; i < g.cfg.Opponents; i++ {
		s := NewSnake(i+1, starts[i].head, starts[i].dir, config.SpawnLength, g.cfg.MovesPerSecond)
		s.AI = true
		snakes = append(snakes, s)
	}
	return snakes
}

// Start moves a ready game to playing
func (g *Game) Start() bool {
	if g.state != StateReady {
		return false
	}
	g.state = StatePlaying
	g.log.Debug().Int("session", g.session).Msg("game started")
	return true
}

// TogglePause switches between playing and paused. Pausing freezes the
// clock and every power-up timer with it.
func (g *Game) TogglePause() bool {
	switch g.state {
	case StatePlaying:
		g.state = StatePaused
		g.clock.Pause()
	case StatePaused:
		g.state = StatePlaying
		g.clock.Resume()
	default:
		return false
	}
	return true
}

// ToggleAutoPlay hands the player snake to the survival controller and back
func (g *Game) ToggleAutoPlay() bool {
	g.autoPlay = !g.autoPlay
	if g.autoPlay {
		g.controllers[0] = SurvivalController{}
	} else if g.player != nil {
		g.controllers[0] = g.player
	} else {
		delete(g.controllers, 0)
	}
	return g.autoPlay
}

// RequestDirection buffers a heading for snake id. Reversals are ignored.
func (g *Game) RequestDirection(id int, d Direction) bool {
	if g.state == StateOver {
		return false
	}
	for _, s := range g.world.Snakes {
		if s.ID == id && s.Alive {
			return s.SetPendingDirection(d)
		}
	}
	return false
}

// StepInterval is the current time between moves, after power-up scaling
func (g *Game) StepInterval() time.Duration {
	base := float64(time.Second) / g.world.Player().MovesPerSecond
	return time.Duration(base / g.powerUps.SpeedScale())
}

// Advance feeds one frame's elapsed time to the clock and runs every step
// that came due. It does nothing unless the game is playing.
func (g *Game) Advance(delta time.Duration) []TickResult {
	if g.state != StatePlaying {
		return nil
	}
	var results []TickResult
	g.clock.Advance(delta, g.StepInterval, func(now time.Duration) bool {
		r := g.advanceTick(now)
		results = append(results, r)
		return r.Outcome != OutcomeGameOver
	})
	return results
}

// Tick runs exactly one step, ignoring frame timing
func (g *Game) Tick() (TickResult, bool) {
	if g.state != StatePlaying {
		return TickResult{}, false
	}
	var r TickResult
	g.clock.Step(g.StepInterval(), func(now time.Duration) bool {
		r = g.advanceTick(now)
		return r.Outcome != OutcomeGameOver
	})
	return r, true
}

func (g *Game) advanceTick(now time.Duration) TickResult {
	g.tick++
	view := g.view()

	decisions := make(map[int]Direction, len(g.world.Snakes))
	for _, s := range g.world.Snakes {
		if !s.Alive {
			continue
		}
		if c, ok := g.controllers[s.ID]; ok {
			if d, ok := c.Decide(view, s.ID); ok {
				s.SetPendingDirection(d)
			}
		}
		decisions[s.ID] = s.Pending
	}

	var blocked Occupancy
	if g.world.Food.Active {
		blocked = g.world.Occupancy(g.world.Food.Pos)
	} else {
		blocked = g.world.Occupancy()
	}
	g.powerUps.Tick(now, blocked, g.cfg.GridSize)

	result := TickResult{Tick: g.tick, Now: now, Outcome: OutcomeContinued}
	for _, s := range g.world.Snakes {
		if !s.Alive {
			continue
		}
		wrap := g.cfg.Edge == config.EdgeWrap || (!s.AI && g.powerUps.HasGhost())
		undo := s.Step(g.world.Grid, wrap)
		res := g.resolver.Resolve(&g.world, s, undo, now)

		if s.AI {
			if res.Outcome == OutcomeGameOver {
				s.Alive = false
				g.log.Debug().Int("snake", s.ID).Int("score", s.Score).Msg("opponent crashed")
			}
			continue
		}

		result.Player = res
		result.Outcome = res.Outcome
		if res.Ate {
			g.countStreak(now)
		}
		if res.HasCollected {
			g.collected[res.Collected]++
			g.log.Debug().Str("powerup", res.Collected.String()).Dur("at", now).Msg("power-up collected")
		}
		if res.Outcome == OutcomeGameOver {
			break
		}
	}

	if result.Player.Gained > 0 {
		g.checkLevel()
	}
	if result.Outcome == OutcomeGameOver {
		g.finish(now, result.Player.CrashAt)
	}

	rec := TickRecord{
		Session:   g.session,
		Tick:      g.tick,
		Now:       now,
		Decisions: decisions,
		Outcome:   result.Outcome,
		Score:     g.world.Player().Score,
	}
	for _, o := range g.observers {
		o.TickCompleted(rec)
	}
	return result
}

// countStreak tracks foods eaten no more than StreakWindow apart
func (g *Game) countStreak(now time.Duration) {
	if g.streak > 0 && now-g.lastFoodAt <= config.StreakWindow {
		g.streak++
	} else {
		g.streak = 1
	}
	g.lastFoodAt = now
	if g.streak > g.longestStreak {
		g.longestStreak = g.streak
	}
}

func (g *Game) checkLevel() {
	if g.cfg.LevelUpScore <= 0 {
		return
	}
	player := g.world.Player()
	target := 1 + player.Score/g.cfg.LevelUpScore
	for g.level < target {
		g.level++
		player.MovesPerSecond *= g.cfg.LevelSpeedFactor
		g.log.Debug().Int("level", g.level).Float64("movesPerSecond", player.MovesPerSecond).Msg("level up")
	}
}

func (g *Game) finish(now time.Duration, crashAt Point) {
	g.state = StateOver
	g.crash = &crashAt

	player := g.world.Player()
	rec := SessionRecord{
		Score:           player.Score,
		FoodEaten:       player.FoodEaten,
		SnakeLength:     player.Len(),
		DurationSeconds: now.Seconds(),
		Collected:       make(map[string]int, len(g.collected)),
		Opponents:       g.cfg.Opponents,
		LongestStreak:   g.longestStreak,
	}
	for t, n := range g.collected {
		rec.Collected[t.String()] = n
		rec.PowerUpsCollected += n
	}
	for _, s := range g.world.Snakes[1:] {
		if s.Score > rec.BestOpponentScore {
			rec.BestOpponentScore = s.Score
		}
	}
	g.record = &rec

	g.log.Info().
		Int("session", g.session).
		Int("score", rec.Score).
		Int("length", rec.SnakeLength).
		Float64("seconds", rec.DurationSeconds).
		Msg("game over")

	for _, s := range g.sinks {
		s.RecordSession(rec)
	}
}

func (g *Game) view() View {
	v := View{
		Tick:     g.tick,
		Grid:     g.world.Grid,
		Snakes:   make([]SnakeView, len(g.world.Snakes)),
		Food:     g.world.Food,
		occupied: g.world.liveOccupancy(),
	}
	for i, s := range g.world.Snakes {
		v.Snakes[i] = SnakeView{ID: s.ID, Body: s.Segments(), Current: s.Current, Alive: s.Alive, AI: s.AI}
	}
	if p := g.powerUps.Pickup(); p != nil {
		cp := *p
		v.Pickup = &cp
	}
	return v
}

// Snapshot returns a copy of the current state for rendering
func (g *Game) Snapshot() Snapshot {
	now := g.clock.Now()
	snap := Snapshot{
		Tick:       g.tick,
		GridSize:   g.cfg.GridSize,
		Edge:       string(g.cfg.Edge),
		Snakes:     make([]SnakeInfo, len(g.world.Snakes)),
		Effects:    g.powerUps.effects(now),
		Score:      g.world.Player().Score,
		Level:      g.level,
		SpeedScale: g.powerUps.SpeedScale(),
		State:      g.state.String(),
		Paused:     g.state == StatePaused,
		GameOver:   g.state == StateOver,
		AutoPlay:   g.autoPlay,
	}
	for i, s := range g.world.Snakes {
		snap.Snakes[i] = s.info()
	}
	if g.world.Food.Active {
		p := g.world.Food.Pos
		snap.Food = &p
	}
	if p := g.powerUps.Pickup(); p != nil {
		snap.Pickup = &PickupInfo{Type: p.Type.String(), Pos: p.Pos, RemainingFraction: p.RemainingFraction(now)}
	}
	if g.crash != nil {
		c := *g.crash
		snap.CrashPoint = &c
	}
	return snap
}

// Record returns the session record once the game is over
func (g *Game) Record() (SessionRecord, bool) {
	if g.record == nil {
		return SessionRecord{}, false
	}
	return *g.record, true
}

// State returns the lifecycle state
func (g *Game) State() State { return g.state }

// Config returns the configuration the game was built with
func (g *Game) Config() config.Config { return g.cfg }

// Now returns the simulation time of the current session
func (g *Game) Now() time.Duration { return g.clock.Now() }

// Session returns the number of resets since construction
func (g *Game) Session() int { return g.session }

// Score returns the player's score
func (g *Game) Score() int { return g.world.Player().Score }

// Level returns the current level (1 when levels are disabled)
func (g *Game) Level() int { return g.level }

// PowerUps exposes the effect queries for hosts and renderers
func (g *Game) PowerUps() *PowerUpSystem { return g.powerUps }
