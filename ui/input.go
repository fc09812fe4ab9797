package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termchess/controller"
	"termchess/engine"
)

// KeyCommand translates a key press on the board. Cursor movement is handled here and yields no
// command; ok reports whether a command was produced.
func (b *BoardView) KeyCommand(event *tcell.EventKey) (cmd controller.Command, ok bool) {
	switch event.Key() {
	case tcell.KeyEscape:
		return controller.Command{Kind: controller.Quit}, true
	case tcell.KeyUp:
		b.MoveCursor(-1, 0)
	case tcell.KeyDown:
		b.MoveCursor(1, 0)
	case tcell.KeyLeft:
		b.MoveCursor(0, -1)
	case tcell.KeyRight:
		b.MoveCursor(0, 1)
	case tcell.KeyEnter:
		return b.clickCursor()
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q':
			return controller.Command{Kind: controller.Quit}, true
		case 'z':
			return controller.Command{Kind: controller.Undo}, true
		case 'r':
			return controller.Command{Kind: controller.Reset}, true
		case '1':
			return controller.Toggle(engine.White), true
		case '2':
			return controller.Toggle(engine.Black), true
		case 'h':
			b.MoveCursor(0, -1)
		case 'j':
			b.MoveCursor(1, 0)
		case 'k':
			b.MoveCursor(-1, 0)
		case 'l':
			b.MoveCursor(0, 1)
		case ' ':
			return b.clickCursor()
		}
	}
	return controller.Command{}, false
}

// MouseCommand turns a left press into a click on the square under the pointer. A press inside the
// box but outside the grid is an off-board click.
func (b *BoardView) MouseCommand(action tview.MouseAction, event *tcell.EventMouse) (controller.Command, bool) {
	if action != tview.MouseLeftDown {
		return controller.Command{}, false
	}
	b.cursorOn = false
	sq, _ := b.geo.squareAt(event.Position())
	return controller.Click(sq.Row, sq.Col), true
}

// MoveCursor shows the keyboard cursor, or moves it when already shown.
func (b *BoardView) MoveCursor(dRow, dCol int) {
	if !b.cursorOn {
		b.cursorOn = true
		if b.hasFrame && b.frame.LastMove != nil {
			b.cursor = b.frame.LastMove.To
		}
		return
	}
	next := engine.Square{Row: b.cursor.Row + dRow, Col: b.cursor.Col + dCol}
	if next.OnBoard() {
		b.cursor = next
	}
}

// Cursor returns the keyboard cursor and whether it is shown.
func (b *BoardView) Cursor() (engine.Square, bool) {
	return b.cursor, b.cursorOn
}

func (b *BoardView) clickCursor() (controller.Command, bool) {
	if !b.cursorOn {
		b.MoveCursor(0, 0)
		return controller.Command{}, false
	}
	return controller.Click(b.cursor.Row, b.cursor.Col), true
}
