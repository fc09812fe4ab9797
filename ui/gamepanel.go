package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"termchess/controller"
	"termchess/engine"
)

const maxVisibleMoves = 12

// MovePanel displays the players, the material balance and the move list alongside the board.
type MovePanel struct {
	box *tview.TextView
}

// NewMovePanel creates a new move panel.
func NewMovePanel() *MovePanel {
	panel := &MovePanel{box: tview.NewTextView()}
	panel.box.SetDynamicColors(true)
	panel.box.SetBorder(false)
	panel.box.SetTextAlign(tview.AlignLeft)
	return panel
}

// Box returns the underlying tview component.
func (p *MovePanel) Box() *tview.TextView {
	return p.box
}

// SetFrame refreshes the panel from a controller frame.
func (p *MovePanel) SetFrame(f controller.Frame) {
	p.box.SetText(panelText(f))
}

func panelText(f controller.Frame) string {
	var b strings.Builder

	b.WriteString("[white::b]Game[-:-:-]\n")
	b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
	fmt.Fprintf(&b, "[white]White:[-:-:-] %s\n", f.Players.Label(engine.White))
	fmt.Fprintf(&b, "[white]Black:[-:-:-] %s\n", f.Players.Label(engine.Black))
	board := f.Position.Board()
	fmt.Fprintf(&b, "[white]Material:[-:-:-] %s\n", materialText(&board))

	lines := moveLines(f.Position.StartFEN(), f.Position.SAN())
	if len(lines) == 0 {
		return b.String()
	}
	b.WriteString("\n[white::b]Moves[-:-:-]\n")
	b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
	start := 0
	if len(lines) > maxVisibleMoves {
		start = len(lines) - maxVisibleMoves
		fmt.Fprintf(&b, "[dimgray]  ··· %d earlier[-]\n", start)
	}
	for i := start; i < len(lines); i++ {
		marker := " "
		if i == len(lines)-1 {
			marker = "[white]>[-]"
		}
		b.WriteString(marker + lines[i] + "\n")
	}
	return b.String()
}

// materialText is the balance in pawns from White's point of view.
func materialText(board *engine.Board) string {
	w, bl := board.Material()
	switch {
	case w > bl:
		return fmt.Sprintf("White +%d", w-bl)
	case bl > w:
		return fmt.Sprintf("Black +%d", bl-w)
	}
	return "even"
}

// moveLines pairs SAN moves into numbered rows such as "  1. e4      e5".
func moveLines(startFEN string, san []string) []string {
	number, first := engine.MoveCounter(startFEN)
	var lines []string
	i := 0
	if first == engine.Black && len(san) > 0 {
		lines = append(lines, fmt.Sprintf("[dimgray]%3d.[-] %-7s %s", number, "...", san[0]))
		number++
		i = 1
	}
	for ; i < len(san); i += 2 {
		black := ""
		if i+1 < len(san) {
			black = san[i+1]
		}
		lines = append(lines, strings.TrimRight(fmt.Sprintf("[dimgray]%3d.[-] %-7s %s", number, san[i], black), " "))
		number++
	}
	return lines
}

// CreateGameLayout creates the main game layout with board and side panel.
func CreateGameLayout(board *BoardView, hint *tview.TextView) *tview.Flex {
	gameFrame := tview.NewFlex()
	RebuildNormalLayout(gameFrame, board, hint)
	return gameFrame
}

// RebuildNormalLayout restores the normal game layout with board, move panel, and hint.
func RebuildNormalLayout(gameFrame *tview.Flex, board *BoardView, hint *tview.TextView) {
	gameFrame.Clear()

	panel := NewMovePanel()
	board.panel = panel
	if board.hasFrame {
		panel.SetFrame(board.frame)
	}

	boardRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	boardRow.AddItem(board.Box, 0, 1, true)
	boardRow.AddItem(panel.Box(), 26, 0, false)

	gameFrame.SetDirection(tview.FlexRow)
	gameFrame.AddItem(boardRow, 0, 1, true)
	gameFrame.AddItem(hint, 2, 0, false)
}

// BuildFocusLayout builds the focus mode layout with just the board.
func BuildFocusLayout(gameFrame *tview.Flex, board *BoardView, hint *tview.TextView) {
	gameFrame.Clear()
	gameFrame.SetDirection(tview.FlexRow)
	gameFrame.AddItem(board.Box, 0, 1, true)
	gameFrame.AddItem(hint, 1, 0, false)
}

// CreateCenteredForm creates a centered form container for the setup screen.
func CreateCenteredForm(form *tview.Flex, maxWidth int) *tview.Flex {
	centered := tview.NewFlex().SetDirection(tview.FlexColumn)
	centered.AddItem(nil, 0, 1, false)
	centered.AddItem(form, maxWidth, 0, true)
	centered.AddItem(nil, 0, 1, false)
	return centered
}
