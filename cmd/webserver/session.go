package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/trytobebee/snakesim/pkg/achievements"
	"github.com/trytobebee/snakesim/pkg/config"
	"github.com/trytobebee/snakesim/pkg/game"
	"github.com/trytobebee/snakesim/pkg/wire"
)

// GameSession is one websocket client and the game it drives. Only the
// run goroutine touches the game and writes to the connection.
type GameSession struct {
	id     string
	conn   *websocket.Conn
	codec  wire.Codec
	server *Server
	log    zerolog.Logger

	game     *game.Game
	manual   *game.ManualController
	recorder *game.GameRecorder
	name     string

	// Filled by record sinks during the tick that ends the game
	pending *wire.ServerMessage
}

func sessionConfig(r *http.Request) config.Config {
	cfg := config.Default()
	q := r.URL.Query()
	if n, err := strconv.Atoi(q.Get("opponents")); err == nil {
		cfg.Opponents = n
	}
	if n, err := strconv.Atoi(q.Get("size")); err == nil {
		cfg.GridSize = n
	}
	if q.Get("edge") == string(config.EdgeWrap) {
		cfg.Edge = config.EdgeWrap
	}
	if q.Get("powerups") == "off" {
		cfg.PowerUps.Enabled = false
	}
	if n, err := strconv.Atoi(q.Get("levels")); err == nil {
		cfg.LevelUpScore = n
	}
	cfg.Seed = uint64(time.Now().UnixNano())
	return cfg
}

func newGameSession(s *Server, conn *websocket.Conn, r *http.Request) (*GameSession, error) {
	codec, err := wire.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		return nil, err
	}

	gs := &GameSession{
		id:     uuid.New().String(),
		conn:   conn,
		codec:  codec,
		server: s,
		name:   r.URL.Query().Get("name"),
		manual: &game.ManualController{},
	}
	if gs.name == "" {
		gs.name = "player"
	}
	gs.log = s.log.With().Str("session", gs.id).Logger()

	opts := []game.Option{
		game.WithLogger(gs.log),
		game.WithRecordSink(game.RecordSinkFunc(gs.gameOver)),
		game.WithController(0, gs.manual),
	}
	if s.recordDir != "" {
		rec, path, err := game.NewRecorder(s.recordDir, gs.id, gs.log)
		if err != nil {
			return nil, err
		}
		gs.recorder = rec
		opts = append(opts, game.WithObserver(rec))
		gs.log.Info().Str("file", path).Msg("recording session")
	}

	g, err := game.New(sessionConfig(r), opts...)
	if err != nil {
		if gs.recorder != nil {
			gs.recorder.Close()
		}
		return nil, err
	}
	gs.game = g
	return gs, nil
}

// gameOver saves the record and prepares the message sent after the tick
func (gs *GameSession) gameOver(rec game.SessionRecord) {
	msg := &wire.ServerMessage{Type: wire.TypeGameOver, Session: gs.id, Record: &rec}
	ctx := context.Background()

	if gs.server.store != nil {
		rank, err := gs.server.store.Add(ctx, gs.name, rec)
		if err != nil {
			gs.log.Error().Err(err).Msg("failed to save score")
		}
		msg.HighScore = rank > 0
	}
	if gs.server.tracker != nil {
		unlocked, err := gs.server.tracker.Check(ctx, rec)
		if err != nil {
			gs.log.Error().Err(err).Msg("failed to check achievements")
		}
		msg.Unlocked = achievementIDs(unlocked)
	}
	gs.pending = msg
}

func achievementIDs(as []achievements.Achievement) []string {
	if len(as) == 0 {
		return nil
	}
	ids := make([]string, len(as))
	for i, a := range as {
		ids[i] = a.ID
	}
	return ids
}

func (gs *GameSession) send(msg wire.ServerMessage) error {
	data, err := gs.codec.Encode(msg)
	if err != nil {
		return err
	}
	kind := websocket.TextMessage
	if gs.codec.Binary() {
		kind = websocket.BinaryMessage
	}
	gs.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return gs.conn.WriteMessage(kind, data)
}

func (gs *GameSession) sendState() error {
	snap := gs.game.Snapshot()
	return gs.send(wire.ServerMessage{Type: wire.TypeState, Session: gs.id, State: &snap})
}

// readLoop decodes client actions until the connection fails
func (gs *GameSession) readLoop(actions chan<- wire.ClientMessage, done chan<- struct{}, quit <-chan struct{}) {
	defer close(done)
	for {
		_, data, err := gs.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				gs.log.Warn().Err(err).Msg("read error")
			}
			return
		}
		var msg wire.ClientMessage
		if err := gs.codec.Decode(data, &msg); err != nil {
			gs.log.Debug().Err(err).Msg("bad client message")
			continue
		}
		select {
		case actions <- msg:
		case <-quit:
			return
		}
	}
}

func (gs *GameSession) handleAction(msg wire.ClientMessage) {
	if d, ok := msg.Direction(); ok {
		if gs.game.State() != game.StateOver {
			gs.manual.SetDirection(d)
			gs.game.Start()
		}
		return
	}

	switch msg.Action {
	case wire.ActionStart:
		gs.game.Start()
	case wire.ActionPause:
		if !gs.game.Start() {
			gs.game.TogglePause()
		}
	case wire.ActionRestart:
		if gs.game.State() == game.StateOver {
			gs.manual.Clear()
			gs.game.Reset()
		}
	case wire.ActionAuto:
		if gs.game.State() != game.StateOver {
			gs.manual.Clear()
			gs.game.ToggleAutoPlay()
		}
	case wire.ActionName:
		if msg.Name != "" {
			gs.name = msg.Name
		}
	default:
		gs.send(wire.ServerMessage{Type: wire.TypeError, Error: "unknown action " + strconv.Quote(msg.Action)})
	}
}

// run owns the game until the client disconnects
func (gs *GameSession) run() {
	defer func() {
		if gs.recorder == nil {
			return
		}
		if err := gs.recorder.Close(); err != nil {
			gs.log.Error().Err(err).Msg("failed to close recording")
		}
	}()

	cfg := gs.game.Config()
	if err := gs.send(wire.ServerMessage{Type: wire.TypeConfig, Session: gs.id, Config: &cfg}); err != nil {
		return
	}
	if err := gs.sendState(); err != nil {
		return
	}

	actions := make(chan wire.ClientMessage, 16)
	done := make(chan struct{})
	quit := make(chan struct{})
	defer close(quit)
	go gs.readLoop(actions, done, quit)

	ticker := time.NewTicker(config.FrameInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-done:
			gs.log.Info().Msg("client disconnected")
			return

		case msg := <-actions:
			gs.handleAction(msg)
			if err := gs.sendState(); err != nil {
				return
			}

		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			if len(gs.game.Advance(delta)) == 0 {
				continue
			}
			if err := gs.sendState(); err != nil {
				gs.log.Warn().Err(err).Msg("write error")
				return
			}
			if gs.pending != nil {
				msg := *gs.pending
				gs.pending = nil
				if err := gs.send(msg); err != nil {
					return
				}
			}
		}
	}
}
