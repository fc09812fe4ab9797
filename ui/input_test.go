package ui

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termchess/controller"
	"termchess/engine"
	"termchess/engine/rules"
)

func TestKeyCommands(t *testing.T) {
	b, _ := newTestBoard(t)
	tests := []struct {
		key  tcell.Key
		ch   rune
		want controller.Command
	}{
		{tcell.KeyEscape, 0, controller.Command{Kind: controller.Quit}},
		{tcell.KeyRune, 'q', controller.Command{Kind: controller.Quit}},
		{tcell.KeyRune, 'z', controller.Command{Kind: controller.Undo}},
		{tcell.KeyRune, 'r', controller.Command{Kind: controller.Reset}},
		{tcell.KeyRune, '1', controller.Toggle(engine.White)},
		{tcell.KeyRune, '2', controller.Toggle(engine.Black)},
	}
	for _, tt := range tests {
		got, ok := b.KeyCommand(tcell.NewEventKey(tt.key, tt.ch, tcell.ModNone))
		if !ok || got != tt.want {
			t.Errorf("key %v %q: got %+v ok=%v, want %+v", tt.key, tt.ch, got, ok, tt.want)
		}
	}
	if _, ok := b.KeyCommand(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)); ok {
		t.Fatalf("unbound key produced a command")
	}
}

func TestCursorClick(t *testing.T) {
	b, _ := newTestBoard(t)
	enter := tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)

	// The first press only reveals the cursor.
	if _, ok := b.KeyCommand(enter); ok {
		t.Fatalf("hidden cursor should not click")
	}
	if sq, on := b.Cursor(); !on || sq.String() != "e2" {
		t.Fatalf("expected the cursor shown on e2, got %s on=%v", sq, on)
	}

	b.KeyCommand(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	b.KeyCommand(tcell.NewEventKey(tcell.KeyRune, 'k', tcell.ModNone))
	cmd, ok := b.KeyCommand(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	if !ok || cmd.Kind != controller.ClickSquare || cmd.Square.String() != "e4" {
		t.Fatalf("expected a click on e4, got %+v ok=%v", cmd, ok)
	}
}

func TestCursorStaysOnBoard(t *testing.T) {
	b, _ := newTestBoard(t)
	b.MoveCursor(0, 0)
	for i := 0; i < 10; i++ {
		b.MoveCursor(0, 1)
	}
	if sq, _ := b.Cursor(); sq.String() != "h2" {
		t.Fatalf("expected the cursor clamped at h2, got %s", sq)
	}
}

func TestCursorStartsOnLastMove(t *testing.T) {
	b, _ := newTestBoard(t)
	r := rules.New()
	pos, m := play(t, r, r.InitialState(), "g1f3")
	f := frameFor(pos)
	f.LastMove = &m
	b.Redraw(f)
	b.MoveCursor(1, 0)
	if sq, _ := b.Cursor(); sq.String() != "f3" {
		t.Fatalf("expected the cursor on f3, got %s", sq)
	}
}

func TestMouseCommand(t *testing.T) {
	b, screen := newTestBoard(t)
	r := rules.New()
	b.Redraw(frameFor(r.InitialState()))
	b.Box.Draw(screen)

	e2, _ := engine.ParseSquare("e2")
	x, y := b.geo.origin(e2)
	cmd, ok := b.MouseCommand(tview.MouseLeftDown, tcell.NewEventMouse(x+1, y+1, tcell.Button1, tcell.ModNone))
	if !ok || cmd.Kind != controller.ClickSquare || cmd.Square != e2 {
		t.Fatalf("expected a click on e2, got %+v ok=%v", cmd, ok)
	}

	cmd, ok = b.MouseCommand(tview.MouseLeftDown, tcell.NewEventMouse(0, 0, tcell.Button1, tcell.ModNone))
	if !ok || cmd.Square.OnBoard() {
		t.Fatalf("expected an off-board click, got %+v ok=%v", cmd, ok)
	}

	if _, ok := b.MouseCommand(tview.MouseMove, tcell.NewEventMouse(x, y, tcell.ButtonNone, tcell.ModNone)); ok {
		t.Fatalf("mouse move should not produce a command")
	}
}
