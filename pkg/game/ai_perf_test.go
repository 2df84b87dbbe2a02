package game

import (
	"testing"
	"time"

	"github.com/trytobebee/snakesim/pkg/config"
)

func benchView(b *testing.B) View {
	b.Helper()
	cfg := config.Default()
	cfg.Opponents = 3
	cfg.Seed = 5
	g, err := New(cfg)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	return g.view()
}

// BenchmarkSurvivalDecide measures one auto-play decision on a busy board
func BenchmarkSurvivalDecide(b *testing.B) {
	v := benchView(b)
	var c SurvivalController

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Decide(v, 0)
	}
}

// BenchmarkGreedyDecide measures one opponent decision
func BenchmarkGreedyDecide(b *testing.B) {
	v := benchView(b)
	var c GreedyController

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Decide(v, 1)
	}
}

// BenchmarkTick measures a full step with three opponents
func BenchmarkTick(b *testing.B) {
	cfg := config.Default()
	cfg.Opponents = 3
	cfg.Seed = 5
	g, err := New(cfg)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	g.ToggleAutoPlay()
	g.Start()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := g.Tick(); !ok {
			g.Reset()
			g.Start()
		}
	}
}

// TestSingleRunReport logs a readable timing of one auto-play decision
func TestSingleRunReport(t *testing.T) {
	cfg := config.Default()
	cfg.Opponents = 3
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v := g.view()

	start := time.Now()
	d, ok := SurvivalController{}.Decide(v, 0)
	elapsed := time.Since(start)

	if !ok {
		t.Fatal("no decision for a live player")
	}
	t.Logf("survival decision %v in %v (space from head: %d)", d, elapsed, v.reachable(v.Snakes[0].Body[0]))
}
