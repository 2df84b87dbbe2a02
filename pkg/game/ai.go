package game

// Weights for SurvivalController scoring
const (
	spaceWeight    = 50.0
	trappedPenalty = 5000.0
	foodWeight     = 2.0
	foodBonus      = 1000.0
	survivalMargin = 10 // Extra cells wanted beyond the body length
	floodLimit     = 450
)

// SurvivalController drives the player in auto-play. Each safe heading is
// scored by the space reachable from the next cell and by the distance to
// food; when space runs short it chases its own tail.
type SurvivalController struct{}

func (SurvivalController) Decide(v View, snakeID int) (Direction, bool) {
	s, ok := v.Snake(snakeID)
	if !ok || !s.Alive || len(s.Body) == 0 {
		return 0, false
	}

	head := s.Body[0]
	tail := s.Body[len(s.Body)-1]
	snakeLen := len(s.Body)

	bestDir := s.Current
	bestScore := -1000000.0
	found := false

	for _, dir := range AllDirections {
		// Prevent 180-degree turns
		if dir == s.Current.Opposite() {
			continue
		}

		next := v.Next(head, dir)
		if !v.Free(next) {
			continue
		}

		space := v.reachable(next)
		score := float64(space) * spaceWeight
		if space < snakeLen {
			score -= trappedPenalty
		}

		if v.Food.Active {
			dist := float64(manhattan(v.Food.Pos, next))
			score += (100.0 - dist) * foodWeight
			if next == v.Food.Pos {
				score += foodBonus
			}
		}

		// Low on room: prefer moves that follow the tail out
		if threshold := snakeLen + survivalMargin; space < threshold {
			urgency := float64(threshold - space)
			score += (100.0 - float64(manhattan(tail, next))) * urgency * 0.5
		}

		if score > bestScore {
			bestScore = score
			bestDir = dir
			found = true
		}
	}

	if !found {
		return s.Current, true
	}
	return bestDir, true
}

// reachable counts free cells connected to start with a flood fill. Tail
// cells count as free since they move away on the next step.
func (v View) reachable(start Point) int {
	tails := make(map[Point]bool, len(v.Snakes))
	for _, s := range v.Snakes {
		if s.Alive && len(s.Body) > 0 {
			tails[s.Body[len(s.Body)-1]] = true
		}
	}

	visited := map[Point]bool{start: true}
	queue := []Point{start}
	count := 0

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		count++
		if count >= floodLimit {
			return count
		}

		for _, d := range AllDirections {
			next := v.Next(curr, d)
			if visited[next] || !v.Grid.InBounds(next) {
				continue
			}
			if v.occupied.Has(next) && !tails[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return count
}

func manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}
