package game

import "github.com/trytobebee/snakesim/pkg/config"

// Controller defines the brain of a snake (human input, AI, or a replay)
type Controller interface {
	// Decide returns the heading to request for the tick in v. Returning
	// false leaves the snake's pending direction untouched.
	Decide(v View, snakeID int) (Direction, bool)
}

// SnakeView is a read-only copy of a snake handed to controllers
type SnakeView struct {
	ID      int
	Body    []Point
	Current Direction
	Alive   bool
	AI      bool
}

// View is the world as a controller sees it before a tick
type View struct {
	Tick     uint64
	Grid     Grid
	Snakes   []SnakeView
	Food     Food
	Pickup   *Pickup
	occupied Occupancy
}

// Snake returns the snake with the given id
func (v View) Snake(id int) (SnakeView, bool) {
	for _, s := range v.Snakes {
		if s.ID == id {
			return s, true
		}
	}
	return SnakeView{}, false
}

// Next returns where a head at p lands moving d under the board's edge policy
func (v View) Next(p Point, d Direction) Point {
	n := p.Add(d.Delta())
	if v.Grid.Edge == config.EdgeWrap {
		n = v.Grid.Wrap(n)
	}
	return n
}

// Free reports whether p is on the board and not part of a live snake
func (v View) Free(p Point) bool {
	return v.Grid.InBounds(p) && !v.occupied.Has(p)
}

// --- Implementation: Manual Controller (Human) ---

// ManualController hands the input layer's key presses to the player snake.
// Presses between two ticks queue up; the last one that is not a reversal
// of the current heading wins, as with Game.RequestDirection.
type ManualController struct {
	requests []Direction
}

// SetDirection queues d for the next tick
func (c *ManualController) SetDirection(d Direction) {
	c.requests = append(c.requests, d)
}

// Clear drops queued presses
func (c *ManualController) Clear() {
	c.requests = c.requests[:0]
}

func (c *ManualController) Decide(v View, snakeID int) (Direction, bool) {
	reqs := c.requests
	c.requests = c.requests[:0]
	s, ok := v.Snake(snakeID)
	if !ok || !s.Alive {
		return 0, false
	}
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i] != s.Current.Opposite() {
			return reqs[i], true
		}
	}
	return 0, false
}

// --- Implementation: Greedy AI Controller ---

// GreedyController steers one step toward the food along the axis with the
// larger distance, falling back to any heading that does not die next tick
type GreedyController struct{}

func (GreedyController) Decide(v View, snakeID int) (Direction, bool) {
	s, ok := v.Snake(snakeID)
	if !ok || !s.Alive || len(s.Body) == 0 {
		return 0, false
	}
	head := s.Body[0]

	candidates := make([]Direction, 0, 6)
	if v.Food.Active {
		dx, dy := v.Food.Pos.X-head.X, v.Food.Pos.Y-head.Y
		horizontal, vertical := DirRight, DirDown
		if dx < 0 {
			horizontal = DirLeft
		}
		if dy < 0 {
			vertical = DirUp
		}
		switch {
		case abs(dx) > abs(dy):
			candidates = append(candidates, horizontal)
			if dy != 0 {
				candidates = append(candidates, vertical)
			}
		case dy != 0:
			candidates = append(candidates, vertical)
			if dx != 0 {
				candidates = append(candidates, horizontal)
			}
		}
	}
	candidates = append(candidates, s.Current)
	candidates = append(candidates, AllDirections[:]...)

	for _, d := range candidates {
		if d == s.Current.Opposite() {
			continue
		}
		if v.Free(v.Next(head, d)) {
			return d, true
		}
	}
	return s.Current, true
}

// --- Implementation: Script Controller (Replay) ---

// ScriptController replays recorded decisions keyed by tick
type ScriptController struct {
	Decisions map[uint64]Direction
}

func (c *ScriptController) Decide(v View, snakeID int) (Direction, bool) {
	d, ok := c.Decisions[v.Tick]
	return d, ok
}
