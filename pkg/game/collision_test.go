package game

import (
	"testing"

	"github.com/sanity-io/litter"

	"github.com/trytobebee/snakesim/pkg/config"
)

func newTestGame(t *testing.T, mutate func(*config.Config), opts ...Option) *Game {
	t.Helper()
	cfg := config.Default()
	cfg.PowerUps.Enabled = false
	cfg.Seed = 1
	if mutate != nil {
		mutate(&cfg)
	}
	g, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func placeSnake(g *Game, id int, dir Direction, body ...Point) *Snake {
	s := g.world.Snakes[id]
	s.Body = append([]Point(nil), body...)
	s.Current = dir
	s.Pending = dir
	s.GrowthPending = 0
	return s
}

func placeFood(g *Game, p Point) {
	g.world.Food = Food{Pos: p, Value: g.cfg.FoodValue, Active: true}
}

func TestEatFood(t *testing.T) {
	g := newTestGame(t, nil)
	s := placeSnake(g, 0, DirRight, Point{10, 10}, Point{9, 10}, Point{8, 10})
	placeFood(g, Point{11, 10})
	g.Start()

	res, ok := g.Tick()
	if !ok {
		t.Fatal("Tick refused while playing")
	}
	if res.Outcome != OutcomeFoodEaten {
		t.Fatalf("outcome = %v, want food_eaten\n%s", res.Outcome, litter.Sdump(g.Snapshot()))
	}
	if s.Head() != (Point{11, 10}) {
		t.Errorf("head = %v, want (11,10)", s.Head())
	}
	if s.Score != 10 || res.Player.Gained != 10 {
		t.Errorf("score = %d gained = %d, want 10", s.Score, res.Player.Gained)
	}
	if s.Len() != 3 || s.GrowthPending != 1 {
		t.Errorf("len=%d pending=%d right after eating, want 3 and 1", s.Len(), s.GrowthPending)
	}
	if g.world.Food.Active && s.Occupies(g.world.Food.Pos) {
		t.Errorf("food respawned on the snake at %v", g.world.Food.Pos)
	}

	g.Tick()
	if s.Len() != 4 {
		t.Errorf("length after growth consumed = %d, want 4", s.Len())
	}
}

func TestEatFoodDoublePoints(t *testing.T) {
	g := newTestGame(t, nil)
	s := placeSnake(g, 0, DirRight, Point{10, 10}, Point{9, 10}, Point{8, 10})
	placeFood(g, Point{11, 10})
	g.powerUps.Activate(PowerUpDouble, 0)
	g.Start()

	g.Tick()
	if s.Score != 10*config.DoubleScore {
		t.Errorf("score = %d, want %d", s.Score, 10*config.DoubleScore)
	}
}

func TestWrapEdge(t *testing.T) {
	g := newTestGame(t, func(c *config.Config) { c.Edge = config.EdgeWrap })
	s := placeSnake(g, 0, DirLeft, Point{0, 10}, Point{1, 10}, Point{2, 10})
	placeFood(g, Point{5, 5})
	g.Start()

	res, _ := g.Tick()
	if res.Outcome != OutcomeContinued {
		t.Fatalf("outcome = %v, want continued", res.Outcome)
	}
	if s.Head() != (Point{19, 10}) {
		t.Errorf("head = %v, want (19,10)", s.Head())
	}
}

func TestWallEndsGame(t *testing.T) {
	var records []SessionRecord
	sink := RecordSinkFunc(func(rec SessionRecord) { records = append(records, rec) })

	g := newTestGame(t, nil, WithRecordSink(sink))
	s := placeSnake(g, 0, DirLeft, Point{0, 10}, Point{1, 10}, Point{2, 10})
	placeFood(g, Point{5, 5})
	g.Start()

	res, _ := g.Tick()
	if res.Outcome != OutcomeGameOver {
		t.Fatalf("outcome = %v, want game_over", res.Outcome)
	}
	if g.State() != StateOver {
		t.Errorf("state = %v, want over", g.State())
	}
	if s.Head() != (Point{0, 10}) || s.Len() != 3 {
		t.Errorf("body after crash = %v, want it left in place", s.Body)
	}

	snap := g.Snapshot()
	if !snap.GameOver || snap.CrashPoint == nil || *snap.CrashPoint != (Point{-1, 10}) {
		t.Errorf("snapshot after crash:\n%s", litter.Sdump(snap))
	}

	if len(records) != 1 {
		t.Fatalf("sink got %d records, want 1", len(records))
	}
	if records[0].SnakeLength != 3 || records[0].Score != 0 {
		t.Errorf("record = %s", litter.Sdump(records[0]))
	}

	if _, ok := g.Tick(); ok {
		t.Error("Tick ran after game over")
	}
	if g.Advance(config.FrameInterval) != nil {
		t.Error("Advance ran after game over")
	}
}

func TestShieldBlocksWall(t *testing.T) {
	g := newTestGame(t, nil)
	s := placeSnake(g, 0, DirLeft, Point{0, 10}, Point{1, 10}, Point{2, 10})
	placeFood(g, Point{5, 5})
	g.powerUps.Activate(PowerUpShield, 0)
	g.Start()

	res, _ := g.Tick()
	if res.Outcome != OutcomeContinued || !res.Player.Blocked {
		t.Fatalf("result = %s", litter.Sdump(res))
	}
	want := []Point{{0, 10}, {1, 10}, {2, 10}}
	for i, p := range want {
		if s.Body[i] != p {
			t.Fatalf("body = %v, want unchanged %v", s.Body, want)
		}
	}
}

func TestShieldSuppressesNeckCollision(t *testing.T) {
	g := newTestGame(t, nil)
	s := placeSnake(g, 0, DirRight, Point{10, 10}, Point{9, 10}, Point{8, 10})
	placeFood(g, Point{5, 5})
	g.powerUps.Activate(PowerUpShield, 0)
	g.Start()

	// Reversal requests are filtered, so force the heading directly
	s.Pending = DirLeft
	res, _ := g.Tick()
	if res.Outcome != OutcomeContinued || !res.Player.Shielded {
		t.Fatalf("result = %s", litter.Sdump(res))
	}
	want := []Point{{9, 10}, {10, 10}, {9, 10}}
	for i, p := range want {
		if s.Body[i] != p {
			t.Fatalf("body = %v, want %v", s.Body, want)
		}
	}
	if g.State() != StatePlaying {
		t.Errorf("state = %v, want playing", g.State())
	}
}

func TestGhostPassesWalls(t *testing.T) {
	g := newTestGame(t, nil)
	s := placeSnake(g, 0, DirLeft, Point{0, 10}, Point{1, 10}, Point{2, 10})
	placeFood(g, Point{5, 5})
	g.powerUps.Activate(PowerUpGhost, 0)
	g.Start()

	res, _ := g.Tick()
	if res.Outcome != OutcomeContinued {
		t.Fatalf("outcome = %v, want continued", res.Outcome)
	}
	if s.Head() != (Point{19, 10}) {
		t.Errorf("head = %v, want (19,10)", s.Head())
	}
}

func TestHitOpponentEndsGame(t *testing.T) {
	g := newTestGame(t, func(c *config.Config) { c.Opponents = 1 })
	// Opponent spawns at (10,5) facing left with body (11,5),(12,5)
	placeSnake(g, 0, DirUp, Point{11, 6}, Point{11, 7}, Point{11, 8})
	g.Start()

	res, _ := g.Tick()
	if res.Outcome != OutcomeGameOver {
		t.Fatalf("outcome = %v, want game_over\n%s", res.Outcome, litter.Sdump(g.Snapshot()))
	}
}

func TestOpponentCrashLeavesGameRunning(t *testing.T) {
	g := newTestGame(t, func(c *config.Config) { c.Opponents = 1 },
		WithController(1, &ScriptController{}))
	ai := placeSnake(g, 1, DirLeft, Point{0, 2}, Point{1, 2}, Point{2, 2})
	g.Start()

	res, _ := g.Tick()
	if res.Outcome == OutcomeGameOver {
		t.Fatal("opponent crash ended the game")
	}
	if ai.Alive {
		t.Error("opponent still alive after hitting the wall")
	}
	if !g.view().Free(Point{1, 2}) {
		t.Error("dead opponent still blocks moving snakes")
	}
	if !g.world.Occupancy().Has(Point{1, 2}) {
		t.Error("dead opponent's body missing from placement occupancy")
	}
	if snap := g.Snapshot(); snap.Snakes[1].Alive {
		t.Errorf("snapshot shows dead opponent alive:\n%s", litter.Sdump(snap.Snakes))
	}
}

func TestFoodAvoidsDeadOpponent(t *testing.T) {
	// Four full rows of corpse: 80 of the 400 cells
	var corpse []Point
	for y := 0; y < 4; y++ {
		for i := 0; i < 20; i++ {
			x := i
			if y%2 == 1 {
				x = 19 - i
			}
			corpse = append(corpse, Point{x, y})
		}
	}

	hits := 0
	for seed := uint64(1); seed <= 200; seed++ {
		g := newTestGame(t, func(c *config.Config) {
			c.Opponents = 1
			c.Seed = seed
		})
		ai := placeSnake(g, 1, DirLeft, corpse...)
		ai.Alive = false
		placeSnake(g, 0, DirRight, Point{10, 10}, Point{9, 10}, Point{8, 10})
		placeFood(g, Point{11, 10})
		g.Start()

		res, _ := g.Tick()
		if !res.Player.Ate {
			t.Fatalf("seed %d: player did not eat\n%s", seed, litter.Sdump(res))
		}
		if g.world.Food.Active && ai.Occupies(g.world.Food.Pos) {
			hits++
			t.Logf("seed %d: food at %v", seed, g.world.Food.Pos)
		}
	}
	if hits > 0 {
		t.Errorf("food respawned on the dead opponent in %d/200 seeds", hits)
	}
}

func TestOpponentScoresWithoutMultiplier(t *testing.T) {
	g := newTestGame(t, func(c *config.Config) { c.Opponents = 1 },
		WithController(1, &ScriptController{}))
	ai := placeSnake(g, 1, DirLeft, Point{10, 5}, Point{11, 5}, Point{12, 5})
	placeFood(g, Point{9, 5})
	g.powerUps.Activate(PowerUpDouble, 0)
	g.Start()

	g.Tick()
	if ai.Score != 10 || ai.FoodEaten != 1 {
		t.Errorf("opponent score=%d eaten=%d, want 10 and 1", ai.Score, ai.FoodEaten)
	}
	if g.Score() != 0 {
		t.Errorf("player score = %d, want 0", g.Score())
	}
}

func TestMagnetPullsFood(t *testing.T) {
	tests := []struct {
		name string
		food Point
		want Point
	}{
		{"larger x distance", Point{15, 12}, Point{14, 12}},
		{"larger y distance", Point{12, 16}, Point{12, 15}},
		{"tie moves along x", Point{13, 12}, Point{12, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, nil)
			placeSnake(g, 0, DirRight, Point{10, 10}, Point{9, 10}, Point{8, 10})
			placeFood(g, tt.food)
			g.powerUps.Activate(PowerUpMagnet, 0)
			g.Start()

			g.Tick() // Head lands on (11,10)
			if g.world.Food.Pos != tt.want {
				t.Errorf("food at %v, want %v", g.world.Food.Pos, tt.want)
			}
		})
	}
}

func TestMagnetRespectsOccupiedCells(t *testing.T) {
	g := newTestGame(t, nil)
	placeSnake(g, 0, DirDown, Point{10, 10}, Point{10, 9}, Point{10, 8}, Point{11, 8}, Point{12, 8}, Point{12, 7})
	// Head moves to (10,11); pulling food at (13,8) along x would hit the body at (12,8)
	placeFood(g, Point{13, 8})
	g.powerUps.Activate(PowerUpMagnet, 0)
	g.Start()

	g.Tick()
	if g.world.Food.Pos != (Point{13, 8}) {
		t.Errorf("food moved onto the snake: %v", g.world.Food.Pos)
	}
}
