package game

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sanity-io/litter"

	"github.com/trytobebee/snakesim/pkg/config"
)

// recordGame plays one auto-play session with opponents and power-ups and
// returns the JSONL recording
func recordGame(t *testing.T, maxTicks int) ([]byte, *Game) {
	t.Helper()
	var buf bytes.Buffer
	rec := NewStreamRecorder(&buf, zerolog.Nop())

	cfg := config.Default()
	cfg.Opponents = 2
	cfg.Seed = 2024
	cfg.LevelUpScore = 30
	cfg.PowerUps.SpawnInterval = 2 * time.Second
	g, err := New(cfg, WithObserver(rec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g.ToggleAutoPlay()
	g.Start()

	for i := 0; i < maxTicks; i++ {
		if i%25 == 0 {
			// Manual turns on top of auto-play show up in the recording too
			g.RequestDirection(0, DirDown)
		}
		if _, ok := g.Tick(); !ok {
			break
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rec.Dropped() != 0 {
		t.Fatalf("recorder dropped %d lines", rec.Dropped())
	}
	return buf.Bytes(), g
}

func TestRecordingLayout(t *testing.T) {
	data, g := recordGame(t, 200)

	sessions, err := ReadRecording(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadRecording: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	s := sessions[0]
	if s.Header.Seed != 2024 || s.Header.Config.Opponents != 2 {
		t.Errorf("header = %s", litter.Sdump(s.Header))
	}
	if uint64(len(s.Ticks)) != g.Snapshot().Tick {
		t.Errorf("recorded %d ticks, game ran %d", len(s.Ticks), g.Snapshot().Tick)
	}
	for i, tick := range s.Ticks {
		if tick.Tick != uint64(i+1) {
			t.Fatalf("tick %d numbered %d", i, tick.Tick)
		}
		if _, ok := tick.Decisions[0]; !ok {
			t.Fatalf("tick %d has no player decision", tick.Tick)
		}
	}
}

func TestReplayReproducesSession(t *testing.T) {
	data, g := recordGame(t, 300)

	results, err := Replay(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Diverged {
		t.Fatalf("replay diverged: %s", litter.Sdump(r))
	}
	if r.Score != g.Score() || uint64(r.Ticks) != g.Snapshot().Tick {
		t.Errorf("replay score %d over %d ticks, live %d over %d", r.Score, r.Ticks, g.Score(), g.Snapshot().Tick)
	}
}

func TestReplayDetectsTampering(t *testing.T) {
	data, _ := recordGame(t, 100)
	sessions, err := ReadRecording(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadRecording: %v", err)
	}
	s := sessions[0]
	if len(s.Ticks) < 10 {
		t.Skipf("session only lasted %d ticks", len(s.Ticks))
	}
	s.Ticks[9].Score += 1000

	r, err := ReplaySession(s)
	if err != nil {
		t.Fatalf("ReplaySession: %v", err)
	}
	if !r.Diverged || r.DivergedAt != 10 {
		t.Errorf("result = %s", litter.Sdump(r))
	}
}

func TestRecordingAcrossResets(t *testing.T) {
	var buf bytes.Buffer
	rec := NewStreamRecorder(&buf, zerolog.Nop())
	g := newTestGame(t, nil, WithObserver(rec))

	g.Start()
	g.Tick()
	g.Reset()
	g.Start()
	g.Tick()
	g.Tick()
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	sessions, err := ReadRecording(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].Header.Seed != 1 || sessions[1].Header.Seed != 2 {
		t.Errorf("seeds %d, %d; want 1, 2", sessions[0].Header.Seed, sessions[1].Header.Seed)
	}
	if len(sessions[0].Ticks) != 1 || len(sessions[1].Ticks) != 2 {
		t.Errorf("tick counts %d, %d; want 1, 2", len(sessions[0].Ticks), len(sessions[1].Ticks))
	}
}

func TestReadRecordingErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad json", "{not json}\n"},
		{"tick before session", `{"kind":"tick","tick":{"tick":1}}` + "\n"},
		{"unknown kind", `{"kind":"frame"}` + "\n"},
		{"session without header", `{"kind":"session"}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadRecording(strings.NewReader(tt.input)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }
func (failingWriter) Close() error              { return errors.New("already closed") }

func TestRecorderCloseReportsErrors(t *testing.T) {
	rec := NewStreamRecorder(failingWriter{}, zerolog.Nop())
	rec.SessionStarted(SessionHeader{Seed: 1, Config: config.Default()})

	err := rec.Close()
	if err == nil {
		t.Fatal("Close hid the write failure")
	}
	if !strings.Contains(err.Error(), "disk full") || !strings.Contains(err.Error(), "already closed") {
		t.Errorf("Close error = %v", err)
	}

	// Second close and late lines are no-ops
	if err := rec.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	rec.TickCompleted(TickRecord{Tick: 1})
}

func TestReplayGameMatchesSnapshot(t *testing.T) {
	data, live := recordGame(t, 150)
	sessions, err := ReadRecording(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadRecording: %v", err)
	}

	g, err := NewReplayGame(sessions[0])
	if err != nil {
		t.Fatalf("NewReplayGame: %v", err)
	}
	g.Start()
	for range sessions[0].Ticks {
		if _, ok := g.Tick(); !ok {
			break
		}
	}

	got, want := g.Snapshot(), live.Snapshot()
	if got.Tick != want.Tick || got.Score != want.Score || len(got.Snakes) != len(want.Snakes) {
		t.Fatalf("replayed snapshot differs\ngot:  %s\nwant: %s", litter.Sdump(got), litter.Sdump(want))
	}
	for i := range got.Snakes {
		if len(got.Snakes[i].Body) != len(want.Snakes[i].Body) || got.Snakes[i].Body[0] != want.Snakes[i].Body[0] {
			t.Errorf("snake %d: head %v len %d, live head %v len %d", i,
				got.Snakes[i].Body[0], len(got.Snakes[i].Body), want.Snakes[i].Body[0], len(want.Snakes[i].Body))
		}
	}
}
