package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/trytobebee/snakesim/pkg/config"
)

// SessionHeader opens a session in a recording
type SessionHeader struct {
	Session int           `json:"session"`
	Seed    uint64        `json:"seed"`
	Config  config.Config `json:"config"`
}

// TickRecord is one completed tick: the heading every live snake moved with
// and what happened to the player
type TickRecord struct {
	Session   int               `json:"session"`
	Tick      uint64            `json:"tick"`
	Now       time.Duration     `json:"now"`
	Decisions map[int]Direction `json:"decisions"`
	Outcome   Outcome           `json:"outcome"`
	Score     int               `json:"score"`
}

// Observer is told about every session start and every tick
type Observer interface {
	SessionStarted(h SessionHeader)
	TickCompleted(rec TickRecord)
}

// RecordLine is one JSONL line of a recording
type RecordLine struct {
	Kind    string         `json:"kind"` // "session" or "tick"
	Session *SessionHeader `json:"session,omitempty"`
	Tick    *TickRecord    `json:"tick,omitempty"`
}

const (
	lineSession = "session"
	lineTick    = "tick"

	recordBuffer = 1000
)

// GameRecorder handles asynchronous logging of game ticks
type GameRecorder struct {
	closer     io.Closer
	writer     *bufio.Writer
	recordChan chan RecordLine
	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     bool
	dropped    int
	writeErr   error
	log        zerolog.Logger
}

// NewRecorder creates a recorder writing to dir.
// Filename format: game_{sessionID}_{timestamp}.jsonl
func NewRecorder(dir, sessionID string, logger zerolog.Logger) (*GameRecorder, string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create records dir: %w", err)
	}

	filename := fmt.Sprintf("game_%s_%d.jsonl", sessionID, time.Now().Unix())
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create record file: %w", err)
	}
	return NewStreamRecorder(f, logger), path, nil
}

// NewStreamRecorder records to w. If w is an io.Closer it is closed by Close.
func NewStreamRecorder(w io.Writer, logger zerolog.Logger) *GameRecorder {
	r := &GameRecorder{
		writer:     bufio.NewWriter(w),
		recordChan: make(chan RecordLine, recordBuffer),
		log:        logger,
	}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}

	r.wg.Add(1)
	go r.writeLoop()
	return r
}

// SessionStarted queues a session header
func (r *GameRecorder) SessionStarted(h SessionHeader) {
	r.enqueue(RecordLine{Kind: lineSession, Session: &h})
}

// TickCompleted queues a tick. Non-blocking: drops if the buffer is full.
func (r *GameRecorder) TickCompleted(rec TickRecord) {
	r.enqueue(RecordLine{Kind: lineTick, Tick: &rec})
}

func (r *GameRecorder) enqueue(line RecordLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	select {
	case r.recordChan <- line:
	default:
		// Full; the game loop never waits on disk
		r.dropped++
		if r.dropped == 1 || r.dropped%100 == 0 {
			r.log.Warn().Int("dropped", r.dropped).Msg("recorder buffer full, dropping lines")
		}
	}
}

// Dropped returns how many lines were lost to a full buffer
func (r *GameRecorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close drains the queue, flushes the buffer and closes the file
func (r *GameRecorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.recordChan)
	r.mu.Unlock()

	r.wg.Wait()

	var result *multierror.Error
	if r.writeErr != nil {
		result = multierror.Append(result, r.writeErr)
	}
	if err := r.writer.Flush(); err != nil {
		result = multierror.Append(result, fmt.Errorf("flush: %w", err))
	}
	if r.closer != nil {
		if err := r.closer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close: %w", err))
		}
	}
	return result.ErrorOrNil()
}

func (r *GameRecorder) writeLoop() {
	defer r.wg.Done()

	encoder := json.NewEncoder(r.writer)
	for line := range r.recordChan {
		if err := encoder.Encode(line); err != nil {
			r.log.Error().Err(err).Str("kind", line.Kind).Msg("error recording line")
			if r.writeErr == nil {
				r.writeErr = fmt.Errorf("encode %s: %w", line.Kind, err)
			}
		}
	}
}
