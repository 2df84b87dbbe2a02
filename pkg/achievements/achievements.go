// Package achievements unlocks badges from finished sessions and keeps
// them, with cumulative progress, in sqlite.
package achievements

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/trytobebee/snakesim/pkg/game"
)

// Achievement describes one badge
type Achievement struct {
	ID          string
	Title       string
	Description string
	Secret      bool
	Target      int // Progress needed to unlock
}

// Progress is the saved state of one achievement
type Progress struct {
	Achievement
	Current    int
	Unlocked   bool
	UnlockedAt time.Time
}

// Percentage is the progress toward Target, capped at 100
func (p Progress) Percentage() int {
	if p.Unlocked {
		return 100
	}
	if p.Target <= 0 {
		return 0
	}
	pct := p.Current * 100 / p.Target
	if pct > 100 {
		pct = 100
	}
	return pct
}

// rule computes the progress value an achievement reaches after rec, given
// the previous saved value. Cumulative rules add to it; the rest keep the
// best single game.
type rule struct {
	Achievement
	value      func(rec game.SessionRecord) int
	cumulative bool
}

var rules = []rule{
	{
		Achievement: Achievement{ID: "first_win", Title: "First Win", Description: "Outscore every opponent", Target: 1},
		value:       func(r game.SessionRecord) int { return boolInt(won(r)) },
	},
	{
		Achievement: Achievement{ID: "snake_master", Title: "Snake Master", Description: "Score more than 100 points", Target: 101},
		value:       func(r game.SessionRecord) int { return r.Score },
	},
	{
		Achievement: Achievement{ID: "speed_demon", Title: "Speed Demon", Description: "Collect 5 speed boosts", Target: 5},
		value:       func(r game.SessionRecord) int { return r.Collected["speed"] },
		cumulative:  true,
	},
	{
		Achievement: Achievement{ID: "sharpshooter", Title: "Sharpshooter", Description: "Eat 10 food in a row", Target: 10},
		value:       func(r game.SessionRecord) int { return r.LongestStreak },
	},
	{
		Achievement: Achievement{ID: "ghost_rider", Title: "Ghost Rider", Description: "Use ghost mode 3 times in a single game", Secret: true, Target: 3},
		value:       func(r game.SessionRecord) int { return r.Collected["ghost"] },
	},
	{
		Achievement: Achievement{ID: "ai_destroyer", Title: "AI Destroyer", Description: "Outscore three opponents", Secret: true, Target: 1},
		value:       func(r game.SessionRecord) int { return boolInt(won(r) && r.Opponents >= 3) },
	},
}

func won(r game.SessionRecord) bool {
	return r.Opponents > 0 && r.Score > r.BestOpponentScore
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// All returns every achievement definition
func All() []Achievement {
	out := make([]Achievement, len(rules))
	for i, r := range rules {
		out[i] = r.Achievement
	}
	return out
}

// Tracker evaluates sessions and persists progress
type Tracker struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewTracker uses db, creating its table if needed. The leaderboard's
// connection can be shared.
func NewTracker(db *sql.DB, logger zerolog.Logger) (*Tracker, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS achievements (
		id TEXT PRIMARY KEY,
		current INTEGER DEFAULT 0,
		unlocked_at INTEGER
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create achievements table: %w", err)
	}
	return &Tracker{db: db, log: logger, now: time.Now}, nil
}

// Check applies rec to every locked achievement and returns the ones it
// unlocked
func (t *Tracker) Check(ctx context.Context, rec game.SessionRecord) ([]Achievement, error) {
	saved, err := t.load(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var unlocked []Achievement
	for _, r := range rules {
		p := saved[r.ID]
		if p.Unlocked {
			continue
		}

		v := r.value(rec)
		current := p.Current
		if r.cumulative {
			current += v
		} else if v > current {
			current = v
		}

		var unlockedAt sql.NullInt64
		if current >= r.Target {
			unlockedAt = sql.NullInt64{Int64: t.now().Unix(), Valid: true}
			unlocked = append(unlocked, r.Achievement)
			t.log.Info().Str("achievement", r.ID).Msg("achievement unlocked")
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO achievements (id, current, unlocked_at) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET current = excluded.current, unlocked_at = excluded.unlocked_at`,
			r.ID, current, unlockedAt,
		); err != nil {
			return nil, fmt.Errorf("save %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return unlocked, nil
}

// List returns every achievement with its saved progress
func (t *Tracker) List(ctx context.Context) ([]Progress, error) {
	saved, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Progress, len(rules))
	for i, r := range rules {
		p := saved[r.ID]
		p.Achievement = r.Achievement
		out[i] = p
	}
	return out, nil
}

// Reset locks every achievement again
func (t *Tracker) Reset(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, `DELETE FROM achievements`); err != nil {
		return fmt.Errorf("reset achievements: %w", err)
	}
	return nil
}

func (t *Tracker) load(ctx context.Context) (map[string]Progress, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT id, current, unlocked_at FROM achievements`)
	if err != nil {
		return nil, fmt.Errorf("query achievements: %w", err)
	}
	defer rows.Close()

	saved := make(map[string]Progress)
	for rows.Next() {
		var id string
		var p Progress
		var at sql.NullInt64
		if err := rows.Scan(&id, &p.Current, &at); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		if at.Valid {
			p.Unlocked = true
			p.UnlockedAt = time.Unix(at.Int64, 0).UTC()
		}
		saved[id] = p
	}
	return saved, rows.Err()
}

// Sink checks every finished session and hands unlocks to notify, which
// may be nil
func (t *Tracker) Sink(notify func([]Achievement)) game.RecordSink {
	return game.RecordSinkFunc(func(rec game.SessionRecord) {
		unlocked, err := t.Check(context.Background(), rec)
		if err != nil {
			t.log.Error().Err(err).Msg("failed to check achievements")
			return
		}
		if len(unlocked) > 0 && notify != nil {
			notify(unlocked)
		}
	})
}
