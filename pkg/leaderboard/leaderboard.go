// Package leaderboard keeps the top scores and lifetime statistics in sqlite.
package leaderboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/trytobebee/snakesim/pkg/config"
	"github.com/trytobebee/snakesim/pkg/game"
)

// Entry is one leaderboard row
type Entry struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Score       int       `json:"score"`
	FoodEaten   int       `json:"foodEaten"`
	PowerUps    int       `json:"powerUps"`
	SnakeLength int       `json:"snakeLength"`
	Seconds     float64   `json:"seconds"`
	Date        time.Time `json:"date"`
}

// Stats aggregates every finished game, not just the top entries
type Stats struct {
	TotalGames     int       `json:"totalGames"`
	HighestScore   int       `json:"highestScore"`
	TotalScore     int       `json:"totalScore"`
	AverageScore   int       `json:"averageScore"`
	TotalFoodEaten int       `json:"totalFoodEaten"`
	TotalPowerUps  int       `json:"totalPowerUps"`
	LongestSnake   int       `json:"longestSnake"`
	LongestStreak  int       `json:"longestStreak"`
	ShortestGame   float64   `json:"shortestGame"` // Seconds
	LastPlayed     time.Time `json:"lastPlayed"`
}

// Store is the sqlite-backed leaderboard
type Store struct {
	db   *sql.DB
	size int
	log  zerolog.Logger
}

// Open opens (or creates) the database at path and keeps size entries
func Open(path string, size int, logger zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)

	if size < 1 {
		size = config.LeaderboardSize
	}
	s := &Store{db: db, size: size, log: logger}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS leaderboard (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			score INTEGER NOT NULL,
			food_eaten INTEGER DEFAULT 0,
			power_ups INTEGER DEFAULT 0,
			snake_length INTEGER DEFAULT 0,
			seconds REAL DEFAULT 0,
			date INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT,
			score INTEGER,
			food_eaten INTEGER,
			power_ups INTEGER,
			snake_length INTEGER,
			longest_streak INTEGER,
			seconds REAL,
			opponents INTEGER,
			date INTEGER NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// DB exposes the connection so other features can share the file
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records a finished game. It returns the 1-based rank on the
// leaderboard, or 0 when the score did not make the cut.
func (s *Store) Add(ctx context.Context, name string, rec game.SessionRecord) (int, error) {
	return s.add(ctx, name, rec, time.Now())
}

func (s *Store) add(ctx context.Context, name string, rec game.SessionRecord, at time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO games (name, score, food_eaten, power_ups, snake_length, longest_streak, seconds, opponents, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		name, rec.Score, rec.FoodEaten, rec.PowerUpsCollected, rec.SnakeLength, rec.LongestStreak,
		rec.DurationSeconds, rec.Opponents, at.Unix(),
	); err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO leaderboard (name, score, food_eaten, power_ups, snake_length, seconds, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, rec.Score, rec.FoodEaten, rec.PowerUpsCollected, rec.SnakeLength, rec.DurationSeconds, at.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry id: %w", err)
	}

	if err := s.prune(ctx, tx); err != nil {
		return 0, err
	}

	rank, err := rankOf(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	s.log.Info().Str("name", name).Int("score", rec.Score).Int("rank", rank).Msg("score recorded")
	return rank, nil
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Best first; an equal score goes to the earlier date, then the earlier insert
const rankOrder = `score DESC, date ASC, id ASC`

// prune keeps the best size entries
func (s *Store) prune(ctx context.Context, q execQuerier) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM leaderboard WHERE id NOT IN (
			SELECT id FROM leaderboard ORDER BY `+rankOrder+` LIMIT ?
		)`, s.size)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	return nil
}

func rankOf(ctx context.Context, q execQuerier, id int64) (int, error) {
	var score, date int64
	err := q.QueryRowContext(ctx, `SELECT score, date FROM leaderboard WHERE id = ?`, id).Scan(&score, &date)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rank: %w", err)
	}

	var ahead int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leaderboard
		 WHERE score > ? OR (score = ? AND (date < ? OR (date = ? AND id < ?)))`,
		score, score, date, date, id,
	).Scan(&ahead); err != nil {
		return 0, fmt.Errorf("rank: %w", err)
	}
	return ahead + 1, nil
}

// Top returns up to n entries, best first
func (s *Store) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 || n > s.size {
		n = s.size
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, score, food_eaten, power_ups, snake_length, seconds, date
		 FROM leaderboard ORDER BY `+rankOrder+` LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var date int64
		if err := rows.Scan(&e.ID, &e.Name, &e.Score, &e.FoodEaten, &e.PowerUps, &e.SnakeLength, &e.Seconds, &date); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Date = time.Unix(date, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// IsHighScore reports whether score would enter the leaderboard
func (s *Store) IsHighScore(ctx context.Context, score int) (bool, error) {
	var count int
	var lowest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(score) FROM leaderboard`).Scan(&count, &lowest)
	if err != nil {
		return false, fmt.Errorf("high score check: %w", err)
	}
	return count < s.size || int64(score) > lowest.Int64, nil
}

// Stats aggregates every recorded game
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var shortest sql.NullFloat64
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(MAX(score), 0), COALESCE(SUM(score), 0),
			COALESCE(SUM(food_eaten), 0), COALESCE(SUM(power_ups), 0),
			COALESCE(MAX(snake_length), 0), COALESCE(MAX(longest_streak), 0),
			MIN(seconds), MAX(date)
		 FROM games`,
	).Scan(&st.TotalGames, &st.HighestScore, &st.TotalScore, &st.TotalFoodEaten, &st.TotalPowerUps,
		&st.LongestSnake, &st.LongestStreak, &shortest, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	if st.TotalGames > 0 {
		st.AverageScore = (st.TotalScore + st.TotalGames/2) / st.TotalGames
	}
	st.ShortestGame = shortest.Float64
	if last.Valid {
		st.LastPlayed = time.Unix(last.Int64, 0).UTC()
	}
	return st, nil
}

// Dump is the export format
type Dump struct {
	Leaderboard []Entry   `json:"leaderboard"`
	Stats       Stats     `json:"stats"`
	ExportedAt  time.Time `json:"exportedAt"`
}

// Export writes the leaderboard and stats as JSON
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	entries, err := s.Top(ctx, s.size)
	if err != nil {
		return err
	}
	st, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Dump{Leaderboard: entries, Stats: st, ExportedAt: time.Now().UTC()}); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Import merges exported entries into the leaderboard. Invalid entries are
// skipped and reported together; valid ones are kept. It returns how many
// entries were imported.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	var d Dump
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return 0, fmt.Errorf("decode import: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var result *multierror.Error
	count := 0
	for i, e := range d.Leaderboard {
		if e.Name == "" || e.Score < 0 {
			result = multierror.Append(result, fmt.Errorf("entry %d: invalid name %q or score %d", i, e.Name, e.Score))
			continue
		}
		date := e.Date
		if date.IsZero() {
			date = time.Now()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO leaderboard (name, score, food_eaten, power_ups, snake_length, seconds, date)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.Name, e.Score, e.FoodEaten, e.PowerUps, e.SnakeLength, e.Seconds, date.Unix(),
		); err != nil {
			result = multierror.Append(result, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		count++
	}

	if err := s.prune(ctx, tx); err != nil {
		return 0, multierror.Append(result, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, multierror.Append(result, fmt.Errorf("commit: %w", err))
	}
	return count, result.ErrorOrNil()
}

// ResetLeaderboard clears the top entries
func (s *Store) ResetLeaderboard(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM leaderboard`); err != nil {
		return fmt.Errorf("reset leaderboard: %w", err)
	}
	return nil
}

// ResetStats clears the game history
func (s *Store) ResetStats(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM games`); err != nil {
		return fmt.Errorf("reset stats: %w", err)
	}
	return nil
}

// Sink records every finished session under name. Errors are logged; the
// game never sees them.
func (s *Store) Sink(name string) game.RecordSink {
	return game.RecordSinkFunc(func(rec game.SessionRecord) {
		if _, err := s.Add(context.Background(), name, rec); err != nil {
			s.log.Error().Err(err).Str("name", name).Msg("failed to record score")
		}
	})
}
