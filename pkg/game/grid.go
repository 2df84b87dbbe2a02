package game

import "github.com/trytobebee/snakesim/pkg/config"

// Grid is the square board and its edge policy
type Grid struct {
	Size int
	Edge config.EdgePolicy
}

// InBounds reports whether p lies on the board
func (g Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.X < g.Size && p.Y >= 0 && p.Y < g.Size
}

// Wrap folds p back onto the board on both axes
func (g Grid) Wrap(p Point) Point {
	return Point{X: wrapAxis(p.X, g.Size), Y: wrapAxis(p.Y, g.Size)}
}

// Cells returns the number of cells on the board
func (g Grid) Cells() int {
	return g.Size * g.Size
}

func wrapAxis(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}
	return v
}

// Occupancy is a set of taken cells
type Occupancy map[Point]struct{}

// Add marks cells as taken
func (o Occupancy) Add(ps ...Point) {
	for _, p := range ps {
		o[p] = struct{}{}
	}
}

// Has reports whether p is taken
func (o Occupancy) Has(p Point) bool {
	_, ok := o[p]
	return ok
}
