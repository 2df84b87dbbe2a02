// Package wire defines the messages exchanged with game clients and the
// codecs that put them on the wire.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/trytobebee/snakesim/pkg/config"
	"github.com/trytobebee/snakesim/pkg/game"
)

// Server message types
const (
	TypeConfig   = "config"
	TypeState    = "state"
	TypeGameOver = "gameover"
	TypeError    = "error"
)

// Client actions
const (
	ActionUp      = "up"
	ActionDown    = "down"
	ActionLeft    = "left"
	ActionRight   = "right"
	ActionPause   = "pause"
	ActionStart   = "start"
	ActionRestart = "restart"
	ActionAuto    = "auto"
	ActionName    = "name"
)

// ServerMessage is everything the server pushes to a client
type ServerMessage struct {
	Type      string              `json:"type"`
	Session   string              `json:"session,omitempty"`
	Config    *config.Config      `json:"config,omitempty"`
	State     *game.Snapshot      `json:"state,omitempty"`
	Record    *game.SessionRecord `json:"record,omitempty"`
	HighScore bool                `json:"highScore,omitempty"`
	Unlocked  []string            `json:"unlocked,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// ClientMessage is a single client action
type ClientMessage struct {
	Action string `json:"action"`
	Name   string `json:"name,omitempty"` // Player name, with ActionName
}

// Direction maps a movement action to a heading
func (m ClientMessage) Direction() (game.Direction, bool) {
	return game.ParseDirection(m.Action)
}

// Codec turns messages into frames and back
type Codec interface {
	Name() string
	Binary() bool // Frames go out as websocket binary messages
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSON is the default text codec
var JSON Codec = jsonCodec{}

// Msgpack is the compact binary codec. It reads the json struct tags so
// both codecs agree on field names.
var Msgpack Codec = msgpackCodec{}

// CodecByName returns the codec for "json" (or "") and "msgpack"
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return Msgpack, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }
func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return data, nil
}

func (jsonCodec) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }
func (msgpackCodec) Binary() bool { return true }

func (msgpackCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("msgpack decode: %w", err)
	}
	return nil
}
