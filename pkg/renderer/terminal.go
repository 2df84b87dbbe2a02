package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/trytobebee/snakesim/pkg/game"
)

// Cell glyphs. Every glyph is two columns wide.
const (
	CharEmpty  = "  "
	CharWall   = "⬜"
	CharHead   = "🟢"
	CharBody   = "🟩"
	CharAIHead = "🤖"
	CharAIBody = "🟥"
	CharDead   = "⬛"
	CharCrash  = "💥"
	CharFood   = "🍎"
)

var pickupGlyphs = map[string]string{
	"speed":  "⚡",
	"slow":   "🐌",
	"shield": "🛡️",
	"double": "💎",
	"magnet": "🧲",
	"ghost":  "👻",
}

// TerminalRenderer handles terminal-based rendering
type TerminalRenderer struct {
	out    io.Writer
	board  [][]int
	buffer strings.Builder
}

// Cell types for the board
const (
	cellEmpty = iota
	cellHead
	cellBody
	cellAIHead
	cellAIBody
	cellDead
	cellFood
	cellPickup
	cellCrash
)

// NewTerminalRenderer creates a renderer for a size x size grid writing to out
func NewTerminalRenderer(out io.Writer, size int) *TerminalRenderer {
	// Pre-allocate board to reduce GC pressure
	board := make([][]int, size)
	for i := range board {
		board[i] = make([]int, size)
	}

	return &TerminalRenderer{
		out:   out,
		board: board,
	}
}

// ShowCursor shows the cursor (call on exit)
func (r *TerminalRenderer) ShowCursor() {
	fmt.Fprint(r.out, "\033[?25h")
}

// HideCursor hides the cursor (call on start)
func (r *TerminalRenderer) HideCursor() {
	fmt.Fprint(r.out, "\033[?25l")
}

func (r *TerminalRenderer) resize(size int) {
	if len(r.board) == size {
		return
	}
	r.board = make([][]int, size)
	for i := range r.board {
		r.board[i] = make([]int, size)
	}
}

func (r *TerminalRenderer) set(p game.Point, cell int) {
	if p.Y >= 0 && p.Y < len(r.board) && p.X >= 0 && p.X < len(r.board[p.Y]) {
		r.board[p.Y][p.X] = cell
	}
}

// Render draws one frame with a single write
func (r *TerminalRenderer) Render(snap game.Snapshot) error {
	r.resize(snap.GridSize)
	r.buffer.Reset()

	for y := range r.board {
		for x := range r.board[y] {
			r.board[y][x] = cellEmpty
		}
	}

	if snap.Food != nil {
		r.set(*snap.Food, cellFood)
	}
	pickupGlyph := ""
	if snap.Pickup != nil {
		r.set(snap.Pickup.Pos, cellPickup)
		pickupGlyph = pickupGlyphs[snap.Pickup.Type]
	}

	for _, s := range snap.Snakes {
		head, body := cellHead, cellBody
		switch {
		case !s.Alive:
			head, body = cellDead, cellDead
		case s.AI:
			head, body = cellAIHead, cellAIBody
		}
		// Tail first so the head wins on overlap
		for i := len(s.Body) - 1; i >= 0; i-- {
			if i == 0 {
				r.set(s.Body[i], head)
			} else {
				r.set(s.Body[i], body)
			}
		}
	}

	if snap.CrashPoint != nil {
		r.set(*snap.CrashPoint, cellCrash)
	}

	// Clear screen and home the cursor
	r.buffer.WriteString("\033[H\033[2J\033[3J")
	r.buffer.WriteString("\n  🐍 SNAKE 🐍\n")

	fmt.Fprintf(&r.buffer, "  Score: %d  |  Level: %d  |  Speed: x%.1f", snap.Score, snap.Level, snap.SpeedScale)
	for _, s := range snap.Snakes {
		if s.AI {
			fmt.Fprintf(&r.buffer, "  |  AI %d: %d", s.ID, s.Score)
		}
	}
	if snap.AutoPlay {
		r.buffer.WriteString("  |  AUTO")
	}
	r.buffer.WriteString("\n")

	if len(snap.Effects) > 0 {
		r.buffer.WriteString("  ")
		for _, e := range snap.Effects {
			fmt.Fprintf(&r.buffer, "%s %s %.1fs  ", pickupGlyphs[e.Type], e.Type, e.RemainingSeconds)
		}
	}
	r.buffer.WriteString("\n\n")

	edge := CharWall
	if snap.Edge == "wrap" {
		edge = CharEmpty
	}
	border := strings.Repeat(edge, snap.GridSize+2)
	r.buffer.WriteString("  " + border + "\n")
	for _, row := range r.board {
		r.buffer.WriteString("  ")
		r.buffer.WriteString(edge)
		for _, cell := range row {
			switch cell {
			case cellEmpty:
				r.buffer.WriteString(CharEmpty)
			case cellHead:
				r.buffer.WriteString(CharHead)
			case cellBody:
				r.buffer.WriteString(CharBody)
			case cellAIHead:
				r.buffer.WriteString(CharAIHead)
			case cellAIBody:
				r.buffer.WriteString(CharAIBody)
			case cellDead:
				r.buffer.WriteString(CharDead)
			case cellFood:
				r.buffer.WriteString(CharFood)
			case cellPickup:
				r.buffer.WriteString(pickupGlyph)
			case cellCrash:
				r.buffer.WriteString(CharCrash)
			}
		}
		r.buffer.WriteString(edge)
		r.buffer.WriteString("\n")
	}
	r.buffer.WriteString("  " + border + "\n")

	r.buffer.WriteString("\n  WASD or arrows to move, Enter to start, T for autoplay\n")
	r.buffer.WriteString("  P to pause, R to restart, Q to quit\n")

	switch snap.State {
	case "ready":
		r.buffer.WriteString("\n  Press Enter or a direction to start\n")
	case "paused":
		r.buffer.WriteString("\n  ⏸️  PAUSED - Press P to continue\n")
	case "over":
		r.buffer.WriteString("\n  💀 GAME OVER! Press R to restart or Q to quit\n")
	}

	_, err := io.WriteString(r.out, r.buffer.String())
	return err
}
