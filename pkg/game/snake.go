package game

// Snake is one body on the board. Body[0] is the head.
type Snake struct {
	ID             int
	Body           []Point
	Current        Direction // Heading used by the last step
	Pending        Direction // Heading the next step will use
	GrowthPending  int
	MovesPerSecond float64
	Alive          bool
	AI             bool
	Score          int
	FoodEaten      int
}

// stepUndo holds what a step changed so a blocked move can be reverted
type stepUndo struct {
	tail       Point
	popped     bool
	growthUsed bool
}

// NewSnake lays out length segments trailing behind head, opposite to dir
func NewSnake(id int, head Point, dir Direction, length int, movesPerSecond float64) *Snake {
	if length < 1 {
		length = 1
	}
	back := dir.Opposite().Delta()
	body := make([]Point, length)
	p := head
	for i := range body {
		body[i] = p
		p = p.Add(back)
	}
	return &Snake{
		ID:             id,
		Body:           body,
		Current:        dir,
		Pending:        dir,
		MovesPerSecond: movesPerSecond,
		Alive:          true,
	}
}

// Head returns the first segment
func (s *Snake) Head() Point {
	return s.Body[0]
}

// Len returns the number of segments
func (s *Snake) Len() int {
	return len(s.Body)
}

// SetPendingDirection buffers d for the next step. A request that reverses
// the current heading is ignored. Later requests before a step overwrite
// earlier ones.
func (s *Snake) SetPendingDirection(d Direction) bool {
	if d == s.Current.Opposite() {
		return false
	}
	s.Pending = d
	return true
}

// Grow schedules n extra segments, one per future step
func (s *Snake) Grow(n int) {
	if n > 0 {
		s.GrowthPending += n
	}
}

// Step moves the head one cell along the pending direction. With wrap the
// head folds back onto the board; otherwise an off-board head is left for
// the resolver to judge.
func (s *Snake) Step(grid Grid, wrap bool) stepUndo {
	s.Current = s.Pending
	head := s.Head().Add(s.Current.Delta())
	if wrap {
		head = grid.Wrap(head)
	}

	s.Body = append(s.Body, Point{})
	copy(s.Body[1:], s.Body)
	s.Body[0] = head

	if s.GrowthPending > 0 {
		s.GrowthPending--
		return stepUndo{growthUsed: true}
	}
	tail := s.Body[len(s.Body)-1]
	s.Body = s.Body[:len(s.Body)-1]
	return stepUndo{tail: tail, popped: true}
}

// revert undoes the last Step, keeping the new heading
func (s *Snake) revert(u stepUndo) {
	copy(s.Body, s.Body[1:])
	s.Body = s.Body[:len(s.Body)-1]
	if u.popped {
		s.Body = append(s.Body, u.tail)
	}
	if u.growthUsed {
		s.GrowthPending++
	}
}

// CheckSelfCollision reports whether the head overlaps any later segment
func (s *Snake) CheckSelfCollision() bool {
	head := s.Head()
	for _, p := range s.Body[1:] {
		if p == head {
			return true
		}
	}
	return false
}

// Occupies reports whether any segment is on p
func (s *Snake) Occupies(p Point) bool {
	for _, b := range s.Body {
		if b == p {
			return true
		}
	}
	return false
}

// Segments returns a copy of the body
func (s *Snake) Segments() []Point {
	out := make([]Point, len(s.Body))
	copy(out, s.Body)
	return out
}

func (s *Snake) info() SnakeInfo {
	return SnakeInfo{
		ID:        s.ID,
		Body:      s.Segments(),
		Direction: s.Current.String(),
		Alive:     s.Alive,
		AI:        s.AI,
		Score:     s.Score,
	}
}
