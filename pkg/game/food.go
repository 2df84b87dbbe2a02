package game

import (
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// Spawner picks free cells for food and pickups
type Spawner struct {
	rng      *rand.Rand
	attempts int
	log      zerolog.Logger
}

// NewSpawner creates a spawner that samples at most attempts random cells
// before scanning the board in order
func NewSpawner(rng *rand.Rand, attempts int, logger zerolog.Logger) *Spawner {
	if attempts < 1 {
		attempts = 1
	}
	return &Spawner{rng: rng, attempts: attempts, log: logger}
}

// Place returns a uniformly sampled free cell of a size x size board. When
// random sampling keeps hitting taken cells it falls back to the first free
// cell in row-major order. It returns false only when the board is full.
func (s *Spawner) Place(occupied Occupancy, size int) (Point, bool) {
	if len(occupied) < size*size {
		for i := 0; i < s.attempts; i++ {
			p := Point{X: s.rng.Intn(size), Y: s.rng.Intn(size)}
			if !occupied.Has(p) {
				return p, true
			}
		}
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			p := Point{X: x, Y: y}
			if !occupied.Has(p) {
				s.log.Debug().Int("attempts", s.attempts).Msg("placement fell back to linear scan")
				return p, true
			}
		}
	}
	return Point{}, false
}
