package input

import (
	"testing"

	"github.com/eiannone/keyboard"

	"github.com/trytobebee/snakesim/pkg/game"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   KeyInput
		want game.Direction
		ok   bool
	}{
		{KeyInput{Key: keyboard.KeyArrowUp}, game.DirUp, true},
		{KeyInput{Key: keyboard.KeyArrowDown}, game.DirDown, true},
		{KeyInput{Key: keyboard.KeyArrowLeft}, game.DirLeft, true},
		{KeyInput{Key: keyboard.KeyArrowRight}, game.DirRight, true},
		{KeyInput{Char: 'w'}, game.DirUp, true},
		{KeyInput{Char: 'S'}, game.DirDown, true},
		{KeyInput{Char: 'a'}, game.DirLeft, true},
		{KeyInput{Char: 'D'}, game.DirRight, true},
		{KeyInput{Char: 'x'}, game.DirRight, false},
	}
	for _, tt := range tests {
		got, ok := ParseDirection(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseDirection(%+v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   KeyInput
		want Command
	}{
		{KeyInput{Char: 'q'}, CmdQuit},
		{KeyInput{Key: keyboard.KeyCtrlC}, CmdQuit},
		{KeyInput{Key: keyboard.KeyEsc}, CmdQuit},
		{KeyInput{Char: 'R'}, CmdRestart},
		{KeyInput{Char: 'p'}, CmdPause},
		{KeyInput{Key: keyboard.KeySpace}, CmdPause},
		{KeyInput{Char: 't'}, CmdAutoPlay},
		{KeyInput{Key: keyboard.KeyEnter}, CmdStart},
		{KeyInput{Char: 'w'}, CmdNone},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.in); got != tt.want {
			t.Errorf("ParseCommand(%+v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
