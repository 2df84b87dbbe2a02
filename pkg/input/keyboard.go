package input

import (
	"github.com/eiannone/keyboard"

	"github.com/trytobebee/snakesim/pkg/game"
)

// Command is a non-movement key action
type Command int

const (
	CmdNone Command = iota
	CmdQuit
	CmdRestart
	CmdPause
	CmdAutoPlay
	CmdStart
)

// KeyboardHandler handles keyboard input
type KeyboardHandler struct {
	inputChan chan KeyInput
	done      chan struct{}
}

// KeyInput represents a keyboard input event
type KeyInput struct {
	Char rune
	Key  keyboard.Key
}

// NewKeyboardHandler creates a new keyboard input handler
func NewKeyboardHandler() *KeyboardHandler {
	return &KeyboardHandler{
		inputChan: make(chan KeyInput),
		done:      make(chan struct{}),
	}
}

// Start begins listening for keyboard input
func (h *KeyboardHandler) Start() error {
	if err := keyboard.Open(); err != nil {
		return err
	}

	go func() {
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case h.inputChan <- KeyInput{Char: char, Key: key}:
			case <-h.done:
				return
			}
		}
	}()

	return nil
}

// Stop stops the keyboard handler
func (h *KeyboardHandler) Stop() {
	close(h.done)
	keyboard.Close()
}

// GetInputChan returns the input channel
func (h *KeyboardHandler) GetInputChan() <-chan KeyInput {
	return h.inputChan
}

// ParseDirection maps arrow keys and WASD to a heading
func ParseDirection(input KeyInput) (dir game.Direction, isValid bool) {
	switch input.Key {
	case keyboard.KeyArrowUp:
		return game.DirUp, true
	case keyboard.KeyArrowDown:
		return game.DirDown, true
	case keyboard.KeyArrowLeft:
		return game.DirLeft, true
	case keyboard.KeyArrowRight:
		return game.DirRight, true
	}

	switch input.Char {
	case 'w', 'W':
		return game.DirUp, true
	case 's', 'S':
		return game.DirDown, true
	case 'a', 'A':
		return game.DirLeft, true
	case 'd', 'D':
		return game.DirRight, true
	}

	return game.DirRight, false
}

// ParseCommand maps the remaining keys. Ctrl-C and Esc quit.
func ParseCommand(input KeyInput) Command {
	switch input.Key {
	case keyboard.KeyCtrlC, keyboard.KeyEsc:
		return CmdQuit
	case keyboard.KeySpace:
		return CmdPause
	case keyboard.KeyEnter:
		return CmdStart
	}

	switch input.Char {
	case 'q', 'Q':
		return CmdQuit
	case 'r', 'R':
		return CmdRestart
	case 'p', 'P', ' ':
		return CmdPause
	case 't', 'T':
		return CmdAutoPlay
	}
	return CmdNone
}
