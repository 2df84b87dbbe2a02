package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/trytobebee/snakesim/pkg/config"
	"github.com/trytobebee/snakesim/pkg/game"
	"github.com/trytobebee/snakesim/pkg/renderer"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  replay verify FILE...        replay recordings and report divergence
  replay watch [-fps N] FILE   play a recording back in the terminal
  replay serve [-addr A]       browse and verify recordings over HTTP
`)
	os.Exit(2)
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "verify":
		if len(os.Args) < 3 {
			usage()
		}
		failed := false
		for _, path := range os.Args[2:] {
			if !verifyFile(path, logger) {
				failed = true
			}
		}
		if failed {
			os.Exit(1)
		}
	case "watch":
		fs := flag.NewFlagSet("watch", flag.ExitOnError)
		fps := fs.Float64("fps", 10, "ticks shown per second")
		fs.Parse(os.Args[2:])
		if fs.NArg() != 1 {
			usage()
		}
		if err := watch(fs.Arg(0), *fps); err != nil {
			logger.Fatal().Err(err).Msg("watch failed")
		}
	case "serve":
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		addr := fs.String("addr", ":8081", "listen address")
		dir := fs.String("dir", config.RecordDir, "recording directory")
		fs.Parse(os.Args[2:])
		server := &ReplayServer{addr: *addr, recordDir: *dir, log: logger}
		if err := server.ListenAndServe(); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	default:
		usage()
	}
}

func replayFile(path string) ([]game.ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return game.Replay(f)
}

func verifyFile(path string, logger zerolog.Logger) bool {
	results, err := replayFile(path)
	if err != nil {
		logger.Error().Err(err).Str("file", path).Msg("replay failed")
		return false
	}
	ok := true
	for _, r := range results {
		var ev *zerolog.Event
		if r.Diverged {
			ok = false
			ev = logger.Warn().Uint64("at", r.DivergedAt).Str("reason", r.Reason)
		} else {
			ev = logger.Info()
		}
		ev.Str("file", filepath.Base(path)).
			Int("session", r.Session).
			Int("ticks", r.Ticks).
			Int("score", r.Score).
			Stringer("outcome", r.Outcome).
			Bool("diverged", r.Diverged).
			Msg("session replayed")
	}
	return ok
}

func watch(path string, fps float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	sessions, err := game.ReadRecording(f)
	f.Close()
	if err != nil {
		return err
	}
	if fps <= 0 {
		fps = 10
	}
	delay := time.Duration(float64(time.Second) / fps)

	for _, rs := range sessions {
		g, err := game.NewReplayGame(rs)
		if err != nil {
			return err
		}
		render := renderer.NewTerminalRenderer(os.Stdout, rs.Header.Config.GridSize)
		g.Start()
		render.Render(g.Snapshot())
		for range rs.Ticks {
			if _, ok := g.Tick(); !ok {
				break
			}
			time.Sleep(delay)
			render.Render(g.Snapshot())
		}
		fmt.Printf("\n  Session %d finished: score %d after %d ticks\n", rs.Header.Session, g.Score(), len(rs.Ticks))
		time.Sleep(time.Second)
	}
	return nil
}

// ReplayServer lists recordings and verifies them on request
type ReplayServer struct {
	addr      string
	recordDir string
	log       zerolog.Logger
}

// ListenAndServe blocks serving the replay pages
func (s *ReplayServer) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/verify", s.handleVerify)

	s.log.Info().Str("addr", s.addr).Str("dir", s.recordDir).Msg("replay server starting")
	return http.ListenAndServe(s.addr, mux)
}

type RecordFile struct {
	Name      string
	Size      int64
	Time      time.Time
	SessionID string
}

func (s *ReplayServer) listRecords() []RecordFile {
	files, err := os.ReadDir(s.recordDir)
	if err != nil {
		return nil
	}

	var records []RecordFile
	for _, f := range files {
		if filepath.Ext(f.Name()) != ".jsonl" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		// game_{sessionID}_{timestamp}.jsonl
		parts := strings.Split(strings.TrimSuffix(f.Name(), ".jsonl"), "_")
		sessID := ""
		if len(parts) >= 3 {
			sessID = strings.Join(parts[1:len(parts)-1], "_")
		}
		records = append(records, RecordFile{
			Name:      f.Name(),
			Size:      info.Size(),
			Time:      info.ModTime(),
			SessionID: sessID,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Time.After(records[j].Time)
	})
	return records
}

var indexTmpl = template.Must(template.New("index").Parse(`
<!DOCTYPE html>
<html>
<head>
    <title>Snake Replays</title>
    <style>
        body { font-family: monospace; background: #1a202c; color: #fff; padding: 2rem; }
        h1 { color: #48bb78; }
        .file-list { display: grid; gap: 1rem; }
        .file-item {
            background: #2d3748; padding: 1rem; border-radius: 8px;
            display: flex; justify-content: space-between; align-items: center;
        }
        .file-item:hover { background: #4a5568; }
        a { color: #63b3ed; text-decoration: none; font-weight: bold; }
        .meta { color: #a0aec0; font-size: 0.9em; }
    </style>
</head>
<body>
    <h1>📼 Replay Library</h1>
    <div class="file-list">
        {{range .}}
        <div class="file-item">
            <div>
                <div class="name">{{.Name}}</div>
                <div class="meta">Session: {{.SessionID}} | Size: {{.Size}} bytes | {{.Time.Format "2006-01-02 15:04:05"}}</div>
            </div>
            <a href="/verify?file={{.Name}}">VERIFY ▶</a>
        </div>
        {{else}}
        <p>No recordings found.</p>
        {{end}}
    </div>
</body>
</html>`))

func (s *ReplayServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := indexTmpl.Execute(w, s.listRecords()); err != nil {
		s.log.Error().Err(err).Msg("failed to render index")
	}
}

func (s *ReplayServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.URL.Query().Get("file"))
	if name == "." || filepath.Ext(name) != ".jsonl" {
		http.Error(w, "missing or invalid file", http.StatusBadRequest)
		return
	}
	results, err := replayFile(filepath.Join(s.recordDir, name))
	if err != nil {
		s.log.Warn().Err(err).Str("file", name).Msg("replay failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		File     string              `json:"file"`
		Sessions []game.ReplayResult `json:"sessions"`
	}{name, results})
}
