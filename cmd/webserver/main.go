package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/trytobebee/snakesim/pkg/achievements"
	"github.com/trytobebee/snakesim/pkg/config"
	"github.com/trytobebee/snakesim/pkg/leaderboard"
	"github.com/trytobebee/snakesim/pkg/wire"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Server hosts one game per websocket connection
type Server struct {
	log       zerolog.Logger
	store     *leaderboard.Store    // nil disables score saving
	tracker   *achievements.Tracker // nil disables achievements
	recordDir string                // empty disables recordings
	staticDir string
	onePerIP  bool

	// Remote IPs with a live connection
	activeIPs sync.Map
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/achievements", s.handleAchievements)
	return mux
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("upgrade error")
		return
	}
	defer conn.Close()

	if s.onePerIP {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if _, loaded := s.activeIPs.LoadOrStore(ip, true); loaded {
			s.log.Info().Str("ip", ip).Msg("connection rejected: already connected")
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Already connected"))
			return
		}
		defer s.activeIPs.Delete(ip)
	}

	gs, err := newGameSession(s, conn, r)
	if err != nil {
		s.log.Warn().Err(err).Msg("rejected session")
		data, _ := wire.JSON.Encode(wire.ServerMessage{Type: wire.TypeError, Error: err.Error()})
		conn.WriteMessage(websocket.TextMessage, data)
		return
	}
	gs.log.Info().Str("remote", r.RemoteAddr).Str("codec", gs.codec.Name()).Msg("new session")
	gs.run()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "leaderboard disabled", http.StatusNotFound)
		return
	}
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	top, err := s.store.Top(r.Context(), n)
	if err != nil {
		s.log.Error().Err(err).Msg("leaderboard query failed")
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, top)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "stats disabled", http.StatusNotFound)
		return
	}
	st, err := s.store.Stats(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("stats query failed")
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, st)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		http.Error(w, "achievements disabled", http.StatusNotFound)
		return
	}
	list, err := s.tracker.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("achievements query failed")
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	type item struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Desc     string `json:"description"`
		Unlocked bool   `json:"unlocked"`
		Progress int    `json:"progress"`
	}
	out := make([]item, 0, len(list))
	for _, p := range list {
		it := item{ID: p.ID, Title: p.Title, Desc: p.Description, Unlocked: p.Unlocked, Progress: p.Percentage()}
		if p.Secret && !p.Unlocked {
			it.Title, it.Desc = "???", "Secret achievement"
		}
		out = append(out, it)
	}
	writeJSON(w, out)
}

func main() {
	var (
		addr      = flag.String("addr", ":8080", "listen address")
		staticDir = flag.String("static", "web/static", "static files directory")
		dbPath    = flag.String("db", config.DefaultDBPath, "sqlite database path (empty disables saving)")
		recordDir = flag.String("records", config.RecordDir, "recording directory (empty disables recording)")
		onePerIP  = flag.Bool("one-per-ip", true, "allow one connection per remote IP")
		debug     = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	s := &Server{
		log:       logger,
		recordDir: *recordDir,
		staticDir: *staticDir,
		onePerIP:  *onePerIP,
	}

	if *dbPath != "" {
		store, err := leaderboard.Open(*dbPath, config.LeaderboardSize, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open database")
		}
		defer store.Close()
		tracker, err := achievements.NewTracker(store.DB(), logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open achievements")
		}
		s.store, s.tracker = store, tracker
	}

	fmt.Printf("🚀 Snake Game Web Server starting on http://localhost%s\n", *addr)
	if err := http.ListenAndServe(*addr, s.routes()); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
