package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// RecordedSession is one session read back from a recording
type RecordedSession struct {
	Header SessionHeader
	Ticks  []TickRecord
}

// ReplayResult reports how a recorded session played back
type ReplayResult struct {
	Session    int
	Ticks      int
	Score      int
	Outcome    Outcome
	Diverged   bool
	DivergedAt uint64
	Reason     string
}

// ReadRecording parses a JSONL recording. Tick lines before the first
// session header are rejected.
func ReadRecording(r io.Reader) ([]RecordedSession, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var sessions []RecordedSession
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var line RecordLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		switch line.Kind {
		case lineSession:
			if line.Session == nil {
				return nil, fmt.Errorf("line %d: session line without header", lineNo)
			}
			sessions = append(sessions, RecordedSession{Header: *line.Session})
		case lineTick:
			if line.Tick == nil {
				return nil, fmt.Errorf("line %d: tick line without record", lineNo)
			}
			if len(sessions) == 0 {
				return nil, fmt.Errorf("line %d: tick before any session", lineNo)
			}
			cur := &sessions[len(sessions)-1]
			cur.Ticks = append(cur.Ticks, *line.Tick)
		default:
			return nil, fmt.Errorf("line %d: unknown kind %q", lineNo, line.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return sessions, nil
}

// NewReplayGame builds a game that plays the recorded headings back from
// the session's seed. Call Start and then Tick once per recorded tick.
func NewReplayGame(rs RecordedSession, opts ...Option) (*Game, error) {
	cfg := rs.Header.Config
	cfg.Seed = rs.Header.Seed

	scripts := make(map[int]*ScriptController, cfg.Opponents+1)
	for id := 0; id <= cfg.Opponents; id++ {
		scripts[id] = &ScriptController{Decisions: make(map[uint64]Direction)}
	}
	for _, t := range rs.Ticks {
		for id, d := range t.Decisions {
			if s, ok := scripts[id]; ok {
				s.Decisions[t.Tick] = d
			}
		}
	}
	all := append([]Option(nil), opts...)
	for id, s := range scripts {
		all = append(all, WithController(id, s))
	}

	g, err := New(cfg, all...)
	if err != nil {
		return nil, fmt.Errorf("session %d: %w", rs.Header.Session, err)
	}
	return g, nil
}

// ReplaySession feeds every snake its recorded headings tick by tick. The
// replay diverges when a tick's time, outcome or score differs from the
// recording.
func ReplaySession(rs RecordedSession, opts ...Option) (ReplayResult, error) {
	g, err := NewReplayGame(rs, opts...)
	if err != nil {
		return ReplayResult{}, err
	}
	g.Start()

	res := ReplayResult{Session: rs.Header.Session}
	for _, want := range rs.Ticks {
		got, ok := g.Tick()
		if !ok {
			res.diverge(want.Tick, "game ended before the recording did")
			break
		}
		res.Ticks++
		res.Score = g.Score()
		res.Outcome = got.Outcome

		switch {
		case got.Tick != want.Tick:
			res.diverge(want.Tick, fmt.Sprintf("tick %d, recorded %d", got.Tick, want.Tick))
		case got.Now != want.Now:
			res.diverge(want.Tick, fmt.Sprintf("time %v, recorded %v", got.Now, want.Now))
		case got.Outcome != want.Outcome:
			res.diverge(want.Tick, fmt.Sprintf("outcome %v, recorded %v", got.Outcome, want.Outcome))
		case res.Score != want.Score:
			res.diverge(want.Tick, fmt.Sprintf("score %d, recorded %d", res.Score, want.Score))
		}
		if res.Diverged {
			break
		}
	}
	return res, nil
}

func (r *ReplayResult) diverge(tick uint64, reason string) {
	r.Diverged = true
	r.DivergedAt = tick
	r.Reason = reason
}

// Replay reads a recording and replays every session in it
func Replay(r io.Reader, opts ...Option) ([]ReplayResult, error) {
	sessions, err := ReadRecording(r)
	if err != nil {
		return nil, err
	}
	results := make([]ReplayResult, 0, len(sessions))
	for _, rs := range sessions {
		res, err := ReplaySession(rs, opts...)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
