package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/trytobebee/snakesim/pkg/achievements"
	"github.com/trytobebee/snakesim/pkg/config"
	"github.com/trytobebee/snakesim/pkg/game"
	"github.com/trytobebee/snakesim/pkg/input"
	"github.com/trytobebee/snakesim/pkg/leaderboard"
	"github.com/trytobebee/snakesim/pkg/renderer"
)

// usageError exits with status 2 instead of 1
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Println("Error:", err)
		var ue usageError
		if errors.As(err, &ue) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.Default()
	fs := flag.NewFlagSet("snake", flag.ContinueOnError)
	var (
		wrap     = fs.Bool("wrap", false, "wrap around the board edges instead of walls")
		noPowers = fs.Bool("no-powerups", false, "disable power-ups")
		name     = fs.String("name", "player", "name for the leaderboard")
		dbPath   = fs.String("db", config.DefaultDBPath, "sqlite database path (empty to skip saving)")
		logPath  = fs.String("log", "", "write logs to this file")
		recDir   = fs.String("record", "", "write a replay log to this directory")
	)
	fs.IntVar(&cfg.GridSize, "size", cfg.GridSize, "board width and height")
	fs.IntVar(&cfg.Opponents, "opponents", 0, "number of AI snakes (0-3)")
	fs.Float64Var(&cfg.MovesPerSecond, "speed", cfg.MovesPerSecond, "moves per second")
	fs.IntVar(&cfg.LevelUpScore, "level-score", cfg.LevelUpScore, "points per level (0 disables levels)")
	fs.Uint64Var(&cfg.Seed, "seed", 0, "random seed (0 picks one)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return usageError{err}
	}

	if *wrap {
		cfg.Edge = config.EdgeWrap
	}
	if *noPowers {
		cfg.PowerUps.Enabled = false
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	logger := zerolog.Nop()
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger = zerolog.New(zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}

	// Messages shown under the board after game over
	var notices []string
	opts := []game.Option{game.WithLogger(logger)}

	if *dbPath != "" {
		store, err := leaderboard.Open(*dbPath, config.LeaderboardSize, logger)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		tracker, err := achievements.NewTracker(store.DB(), logger)
		if err != nil {
			return fmt.Errorf("opening achievements: %w", err)
		}
		opts = append(opts,
			game.WithRecordSink(game.RecordSinkFunc(func(rec game.SessionRecord) {
				rank, err := store.Add(context.Background(), *name, rec)
				if err != nil {
					logger.Error().Err(err).Msg("failed to save score")
					return
				}
				if rank > 0 {
					notices = append(notices, fmt.Sprintf("🏆 Leaderboard rank #%d", rank))
				}
			})),
			game.WithRecordSink(tracker.Sink(func(unlocked []achievements.Achievement) {
				for _, a := range unlocked {
					notices = append(notices, fmt.Sprintf("🎖️  Achievement unlocked: %s", a.Title))
				}
			})),
		)
	}

	if *recDir != "" {
		rec, path, err := game.NewRecorder(*recDir, fmt.Sprintf("term_%d", cfg.Seed), logger)
		if err != nil {
			return fmt.Errorf("opening replay log: %w", err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				fmt.Println("Error closing replay log:", err)
			}
			fmt.Println("  Replay saved to", filepath.Clean(path))
		}()
		opts = append(opts, game.WithObserver(rec))
	}

	manual := &game.ManualController{}
	opts = append(opts, game.WithController(0, manual))

	g, err := game.New(cfg, opts...)
	if err != nil {
		return usageError{fmt.Errorf("invalid configuration: %w", err)}
	}

	// Initialize input handler
	inputHandler := input.NewKeyboardHandler()
	if err := inputHandler.Start(); err != nil {
		return fmt.Errorf("opening keyboard: %w", err)
	}
	defer inputHandler.Stop()

	render := renderer.NewTerminalRenderer(os.Stdout, cfg.GridSize)
	render.HideCursor()
	defer render.ShowCursor()

	inputChan := inputHandler.GetInputChan()

	// Frame loop; the game runs its own fixed steps inside Advance
	ticker := time.NewTicker(config.FrameInterval)
	defer ticker.Stop()
	last := time.Now()

	draw := func() {
		render.Render(g.Snapshot())
		if g.State() == game.StateOver && len(notices) > 0 {
			fmt.Println("  " + strings.Join(notices, "\n  "))
		}
	}
	draw()

	for {
		select {
		case ev := <-inputChan:
			if dir, ok := input.ParseDirection(ev); ok {
				if g.State() != game.StateOver {
					manual.SetDirection(dir)
					g.Start()
				}
				continue
			}

			switch input.ParseCommand(ev) {
			case input.CmdQuit:
				fmt.Println("\n  Thanks for playing! 👋")
				return nil
			case input.CmdRestart:
				notices = nil
				manual.Clear()
				g.Reset()
			case input.CmdPause:
				g.TogglePause()
			case input.CmdAutoPlay:
				manual.Clear()
				g.ToggleAutoPlay()
			case input.CmdStart:
				g.Start()
			}
			draw()

		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			if len(g.Advance(delta)) > 0 || g.State() == game.StatePlaying {
				draw()
			}
		}
	}
}
