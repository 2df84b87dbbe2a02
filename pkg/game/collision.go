package game

import "time"

// World is the mutable board state a tick works on
type World struct {
	Grid   Grid
	Snakes []*Snake // Snakes[0] is the player
	Food   Food
}

// Player returns the human-controlled snake
func (w *World) Player() *Snake {
	return w.Snakes[0]
}

// Occupancy returns every cell covered by a snake body, plus extra. Crashed
// snakes stay on the board, so their bodies count too.
func (w *World) Occupancy(extra ...Point) Occupancy {
	occ := make(Occupancy)
	for _, s := range w.Snakes {
		occ.Add(s.Body...)
	}
	occ.Add(extra...)
	return occ
}

// liveOccupancy returns the cells a moving head can collide with
func (w *World) liveOccupancy() Occupancy {
	occ := make(Occupancy)
	for _, s := range w.Snakes {
		if s.Alive {
			occ.Add(s.Body...)
		}
	}
	return occ
}

func (w *World) hitsOtherSnake(s *Snake) bool {
	head := s.Head()
	for _, other := range w.Snakes {
		if other == s || !other.Alive {
			continue
		}
		if other.Occupies(head) {
			return true
		}
	}
	return false
}

// Resolution is what happened to one snake during a tick
type Resolution struct {
	Outcome      Outcome
	Gained       int
	Ate          bool
	Collected    PowerUpType
	HasCollected bool
	Blocked      bool // Shield turned a wall hit into a no-op move
	Shielded     bool // Shield absorbed a body hit
	CrashAt      Point
}

// Resolver judges a snake's new head against walls, bodies, food and the
// pickup. Effects only apply to the player.
type Resolver struct {
	powerUps   *PowerUpSystem
	spawner    *Spawner
	foodValue  int
	growAmount int
}

// NewResolver creates a resolver awarding foodValue points and growAmount
// segments per food
func NewResolver(powerUps *PowerUpSystem, spawner *Spawner, foodValue, growAmount int) *Resolver {
	return &Resolver{powerUps: powerUps, spawner: spawner, foodValue: foodValue, growAmount: growAmount}
}

// Resolve runs after s.Step. A terminal hit reverts the step so the body
// stays on the board; CrashAt carries the cell the head tried to enter.
func (r *Resolver) Resolve(w *World, s *Snake, undo stepUndo, now time.Duration) Resolution {
	player := !s.AI
	shield := player && r.powerUps.HasShield()
	head := s.Head()

	// Off-board heads only exist under the wall policy without ghost
	if !w.Grid.InBounds(head) {
		s.revert(undo)
		if shield {
			return Resolution{Outcome: OutcomeContinued, Blocked: true}
		}
		return Resolution{Outcome: OutcomeGameOver, CrashAt: head}
	}

	res := Resolution{Outcome: OutcomeContinued}
	if s.CheckSelfCollision() || w.hitsOtherSnake(s) {
		if !shield {
			s.revert(undo)
			return Resolution{Outcome: OutcomeGameOver, CrashAt: head}
		}
		res.Shielded = true
	}

	if w.Food.Active && head == w.Food.Pos {
		mult := 1
		if player {
			mult = r.powerUps.ScoreMultiplier()
		}
		res.Gained = w.Food.Value * mult
		res.Ate = true
		s.Score += res.Gained
		s.FoodEaten++
		s.Grow(r.growAmount)
		r.respawnFood(w)
		res.Outcome = OutcomeFoodEaten
	}

	if !player {
		return res
	}

	if t, ok := r.powerUps.TryCollect(head, now); ok {
		res.Collected = t
		res.HasCollected = true
		res.Outcome = OutcomePowerUpCollected
	}

	if r.powerUps.HasMagnet() {
		r.pullFood(w, head)
	}
	return res
}

func (r *Resolver) blocked(w *World) Occupancy {
	if p := r.powerUps.Pickup(); p != nil {
		return w.Occupancy(p.Pos)
	}
	return w.Occupancy()
}

func (r *Resolver) respawnFood(w *World) {
	pos, ok := r.spawner.Place(r.blocked(w), w.Grid.Size)
	w.Food = Food{Pos: pos, Value: r.foodValue, Active: ok}
}

// pullFood nudges food one cell toward head along the axis with the larger
// distance (X on ties) when the target cell is free and on the board
func (r *Resolver) pullFood(w *World, head Point) {
	if !w.Food.Active {
		return
	}
	f := w.Food.Pos
	dx, dy := head.X-f.X, head.Y-f.Y
	if dx == 0 && dy == 0 {
		return
	}
	next := f
	if abs(dx) >= abs(dy) {
		next.X += sign(dx)
	} else {
		next.Y += sign(dy)
	}
	if !w.Grid.InBounds(next) || r.blocked(w).Has(next) {
		return
	}
	w.Food.Pos = next
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
