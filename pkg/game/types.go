package game

import (
	"fmt"
	"time"
)

// Point represents a cell on the game board
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p moved by d
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Direction is one of the four grid headings
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// AllDirections lists headings in a fixed order
var AllDirections = [...]Direction{DirUp, DirDown, DirLeft, DirRight}

// Delta returns the unit step for the direction. Y grows downwards.
func (d Direction) Delta() Point {
	switch d {
	case DirUp:
		return Point{X: 0, Y: -1}
	case DirDown:
		return Point{X: 0, Y: 1}
	case DirLeft:
		return Point{X: -1, Y: 0}
	default:
		return Point{X: 1, Y: 0}
	}
}

// Opposite returns the reverse heading
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	default:
		return DirLeft
	}
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// MarshalText encodes the direction by name
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name
func (d *Direction) UnmarshalText(b []byte) error {
	parsed, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("unknown direction %q", string(b))
	}
	*d = parsed
	return nil
}

// ParseDirection maps "up", "down", "left", "right" to a Direction
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "up":
		return DirUp, true
	case "down":
		return DirDown, true
	case "left":
		return DirLeft, true
	case "right":
		return DirRight, true
	}
	return DirRight, false
}

// Outcome is the result of one tick for the player snake
type Outcome int

const (
	OutcomeContinued Outcome = iota
	OutcomeFoodEaten
	OutcomePowerUpCollected
	OutcomeGameOver
)

func (o Outcome) String() string {
	switch o {
	case OutcomeContinued:
		return "continued"
	case OutcomeFoodEaten:
		return "food_eaten"
	case OutcomePowerUpCollected:
		return "powerup_collected"
	case OutcomeGameOver:
		return "game_over"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// MarshalText encodes the outcome by name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name
func (o *Outcome) UnmarshalText(b []byte) error {
	for _, c := range []Outcome{OutcomeContinued, OutcomeFoodEaten, OutcomePowerUpCollected, OutcomeGameOver} {
		if c.String() == string(b) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", string(b))
}

// State is the session lifecycle
type State int

const (
	StateReady State = iota
	StatePlaying
	StatePaused
	StateOver
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateOver:
		return "over"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PowerUpType identifies a pickup and the effect it grants
type PowerUpType int

const (
	PowerUpSpeed  PowerUpType = iota // Faster moves
	PowerUpSlow                      // Slower moves
	PowerUpShield                    // Survive wall and body hits
	PowerUpDouble                    // Double food points
	PowerUpMagnet                    // Food drifts toward the head
	PowerUpGhost                     // Pass through walls
)

// AllPowerUps lists every type; spawning picks uniformly from it
var AllPowerUps = [...]PowerUpType{PowerUpSpeed, PowerUpSlow, PowerUpShield, PowerUpDouble, PowerUpMagnet, PowerUpGhost}

func (t PowerUpType) String() string {
	switch t {
	case PowerUpSpeed:
		return "speed"
	case PowerUpSlow:
		return "slow"
	case PowerUpShield:
		return "shield"
	case PowerUpDouble:
		return "double"
	case PowerUpMagnet:
		return "magnet"
	case PowerUpGhost:
		return "ghost"
	}
	return fmt.Sprintf("powerup(%d)", int(t))
}

// MarshalText encodes the type by name
func (t PowerUpType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a power-up name
func (t *PowerUpType) UnmarshalText(b []byte) error {
	for _, c := range AllPowerUps {
		if c.String() == string(b) {
			*t = c
			return nil
		}
	}
	return fmt.Errorf("unknown power-up %q", string(b))
}

// Food represents the single food item on the board
type Food struct {
	Pos    Point
	Value  int
	Active bool // False only when the board had no free cell
}

// Pickup is a spawned power-up waiting to be collected
type Pickup struct {
	Type      PowerUpType
	Pos       Point
	SpawnedAt time.Duration
	Lifetime  time.Duration
}

// Expired reports whether the pickup's lifetime has run out at now
func (p *Pickup) Expired(now time.Duration) bool {
	return now-p.SpawnedAt >= p.Lifetime
}

// RemainingFraction returns 1 at spawn falling to 0 at expiry
func (p *Pickup) RemainingFraction(now time.Duration) float64 {
	if p.Lifetime <= 0 {
		return 0
	}
	f := 1 - float64(now-p.SpawnedAt)/float64(p.Lifetime)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// SnakeInfo is the read-only view of one snake
type SnakeInfo struct {
	ID        int     `json:"id"`
	Body      []Point `json:"body"`
	Direction string  `json:"direction"`
	Alive     bool    `json:"alive"`
	AI        bool    `json:"ai"`
	Score     int     `json:"score"`
}

// PickupInfo is the read-only view of the spawned pickup
type PickupInfo struct {
	Type              string  `json:"type"`
	Pos               Point   `json:"pos"`
	RemainingFraction float64 `json:"remainingFraction"`
}

// EffectInfo is an active effect with its remaining time
type EffectInfo struct {
	Type             string  `json:"type"`
	RemainingSeconds float64 `json:"remainingSeconds"`
}

// Snapshot is a copy of the game state for renderers and transports
type Snapshot struct {
	Tick       uint64       `json:"tick"`
	GridSize   int          `json:"gridSize"`
	Edge       string       `json:"edge"`
	Snakes     []SnakeInfo  `json:"snakes"`
	Food       *Point       `json:"food,omitempty"`
	Pickup     *PickupInfo  `json:"pickup,omitempty"`
	Effects    []EffectInfo `json:"effects"`
	Score      int          `json:"score"`
	Level      int          `json:"level"`
	SpeedScale float64      `json:"speedScale"`
	State      string       `json:"state"`
	Paused     bool         `json:"paused"`
	GameOver   bool         `json:"gameOver"`
	AutoPlay   bool         `json:"autoPlay"`
	CrashPoint *Point       `json:"crashPoint,omitempty"`
}

// SessionRecord is handed to record sinks when a session ends
type SessionRecord struct {
	Score             int            `json:"score"`
	FoodEaten         int            `json:"foodEaten"`
	PowerUpsCollected int            `json:"powerUpsCollected"`
	SnakeLength       int            `json:"snakeLength"`
	DurationSeconds   float64        `json:"durationSeconds"`
	Collected         map[string]int `json:"collected,omitempty"` // Pickups by type name
	LongestStreak     int            `json:"longestStreak"`
	Opponents         int            `json:"opponents"`
	BestOpponentScore int            `json:"bestOpponentScore"`
}

// RecordSink receives the session record at game over. Sinks own their I/O
// and error handling; the simulation never waits on them.
type RecordSink interface {
	RecordSession(rec SessionRecord)
}

// RecordSinkFunc adapts a function to RecordSink
type RecordSinkFunc func(rec SessionRecord)

// RecordSession calls f(rec)
func (f RecordSinkFunc) RecordSession(rec SessionRecord) {
	f(rec)
}
