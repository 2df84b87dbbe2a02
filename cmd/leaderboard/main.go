package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/trytobebee/snakesim/pkg/achievements"
	"github.com/trytobebee/snakesim/pkg/config"
	"github.com/trytobebee/snakesim/pkg/leaderboard"
)

const usage = `Usage: leaderboard [-db PATH] COMMAND

Commands:
  list [N]           show the top N scores (default: whole board)
  stats              show lifetime statistics
  achievements       show achievement progress
  export [FILE]      write the board and stats as JSON (stdout by default)
  import FILE        merge entries from an export
  reset board|stats|achievements
`

func main() {
	dbPath := flag.String("db", config.DefaultDBPath, "sqlite database path")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	store, err := leaderboard.Open(*dbPath, config.LeaderboardSize, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer store.Close()

	if err := run(context.Background(), store, flag.Args(), os.Stdout, logger); err != nil {
		logger.Error().Err(err).Msg(flag.Arg(0) + " failed")
		store.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, store *leaderboard.Store, args []string, out io.Writer, logger zerolog.Logger) error {
	switch args[0] {
	case "list":
		n := 0
		if len(args) > 1 {
			fmt.Sscan(args[1], &n)
		}
		top, err := store.Top(ctx, n)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tNAME\tSCORE\tFOOD\tLENGTH\tTIME\tDATE")
		for i, e := range top {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%.0fs\t%s\n",
				i+1, e.Name, e.Score, e.FoodEaten, e.SnakeLength, e.Seconds, e.Date.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()

	case "stats":
		st, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Games played\t%d\n", st.TotalGames)
		fmt.Fprintf(w, "Highest score\t%d\n", st.HighestScore)
		fmt.Fprintf(w, "Average score\t%d\n", st.AverageScore)
		fmt.Fprintf(w, "Food eaten\t%d\n", st.TotalFoodEaten)
		fmt.Fprintf(w, "Power-ups\t%d\n", st.TotalPowerUps)
		fmt.Fprintf(w, "Longest snake\t%d\n", st.LongestSnake)
		fmt.Fprintf(w, "Longest streak\t%d\n", st.LongestStreak)
		fmt.Fprintf(w, "Shortest game\t%.1fs\n", st.ShortestGame)
		if !st.LastPlayed.IsZero() {
			fmt.Fprintf(w, "Last played\t%s\n", st.LastPlayed.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()

	case "achievements":
		tracker, err := achievements.NewTracker(store.DB(), logger)
		if err != nil {
			return err
		}
		list, err := tracker.List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, p := range list {
			mark := "  "
			if p.Unlocked {
				mark = "✅"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\n", mark, p.Title, p.Description, p.Percentage())
		}
		return w.Flush()

	case "export":
		dst := out
		if len(args) > 1 {
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			dst = f
		}
		return store.Export(ctx, dst)

	case "import":
		if len(args) < 2 {
			return fmt.Errorf("import needs a file")
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := store.Import(ctx, f)
		fmt.Fprintf(out, "✅ Imported %d entries\n", n)
		return err

	case "reset":
		if len(args) < 2 {
			return fmt.Errorf("reset needs board, stats or achievements")
		}
		switch args[1] {
		case "board":
			return store.ResetLeaderboard(ctx)
		case "stats":
			return store.ResetStats(ctx)
		case "achievements":
			tracker, err := achievements.NewTracker(store.DB(), logger)
			if err != nil {
				return err
			}
			return tracker.Reset(ctx)
		}
		return fmt.Errorf("unknown reset target %q", args[1])
	}
	return fmt.Errorf("unknown command %q", args[0])
}
