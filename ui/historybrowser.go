package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"termchess/config"
	"termchess/engine"
	"termchess/record"
)

// GameSource lists and deletes saved games.
type GameSource interface {
	List(ctx context.Context) ([]record.GameInfo, error)
	Delete(ctx context.Context, g record.GameInfo) error
}

// HistoryBrowserUI provides a screen for browsing saved games.
type HistoryBrowserUI struct {
	flex     *tview.Flex
	gameList *tview.List
	preview  *tview.Box
	hint     *tview.TextView
	source   GameSource
	rules    engine.Rules
	logger   *zap.Logger
	glyphs   [engine.King + 1]rune
	games    []record.GameInfo
	boards   map[int]*engine.Board // cached final positions
	selected int
	onDone   func()
}

// NewHistoryBrowser creates a new history browser screen.
func NewHistoryBrowser(c *config.Config, source GameSource, rules engine.Rules, logger *zap.Logger, onDone func()) *HistoryBrowserUI {
	if logger == nil {
		logger = zap.NewNop()
	}
	hb := &HistoryBrowserUI{
		source: source,
		rules:  rules,
		logger: logger,
		onDone: onDone,
		boards: make(map[int]*engine.Board),
	}
	sym := c.Theme.Symbols
	for kind, s := range map[engine.Kind]string{
		engine.King: sym.King, engine.Queen: sym.Queen, engine.Rook: sym.Rook,
		engine.Bishop: sym.Bishop, engine.Knight: sym.Knight, engine.Pawn: sym.Pawn,
	} {
		hb.glyphs[kind] = []rune(s)[0]
	}

	// Game list (left panel)
	hb.gameList = tview.NewList()
	hb.gameList.SetBorder(true)
	hb.gameList.SetTitle(" Game History ")
	hb.gameList.ShowSecondaryText(false)
	hb.gameList.SetHighlightFullLine(true)
	hb.gameList.SetMainTextStyle(tcell.StyleDefault.Foreground(MenuColors.Label))
	hb.gameList.SetSelectedStyle(tcell.StyleDefault.
		Foreground(MenuColors.ButtonText).
		Background(MenuColors.ButtonFocus))

	// Preview box (right panel)
	hb.preview = tview.NewBox()
	hb.preview.SetBorder(true)
	hb.preview.SetTitle(" Preview ")
	hb.preview.SetDrawFunc(hb.drawPreview)

	// Hint bar
	hb.hint = tview.NewTextView()
	hb.hint.SetDynamicColors(true)
	hb.hint.SetBorder(false)
	hb.hint.SetText("  [dimgray]d[-] delete  [dimgray]q[-] back")

	// Handle list selection changes
	hb.gameList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		hb.selected = index
	})

	// Input handling
	hb.gameList.SetInputCapture(hb.handleInput)

	// Layout: list left, preview right, hint bottom
	topRow := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(hb.gameList, 44, 0, true).
		AddItem(hb.preview, 0, 1, false)

	hb.flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 1, true).
		AddItem(hb.hint, 1, 0, false)

	hb.loadGames()
	return hb
}

// Flex returns the flex container for this UI.
func (hb *HistoryBrowserUI) Flex() *tview.Flex {
	return hb.flex
}

// Refresh reloads the game list.
func (hb *HistoryBrowserUI) Refresh() {
	hb.boards = make(map[int]*engine.Board)
	hb.loadGames()
}

// Games returns the listed games, newest first.
func (hb *HistoryBrowserUI) Games() []record.GameInfo {
	return hb.games
}

// loadGames fetches the game list from the source.
func (hb *HistoryBrowserUI) loadGames() {
	hb.gameList.Clear()
	hb.games = nil
	hb.selected = 0

	games, err := hb.source.List(context.Background())
	if err != nil {
		hb.logger.Error("list games", zap.Error(err))
	}
	if err != nil || len(games) == 0 {
		hb.gameList.AddItem("[dimgray]No games found[-]", "", 0, nil)
		return
	}

	hb.games = games
	for _, g := range games {
		hb.gameList.AddItem(gameLabel(g), "", 0, nil)
	}
}

func gameLabel(g record.GameInfo) string {
	result := g.Result
	if result == "" || result == "*" {
		result = "..."
	}
	return fmt.Sprintf("%s  %-8.8s %-8.8s %s", g.Date, g.White, g.Black, tview.Escape(result))
}

// handleInput processes keyboard input for the history browser.
func (hb *HistoryBrowserUI) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEscape:
		if hb.onDone != nil {
			hb.onDone()
		}
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q':
			if hb.onDone != nil {
				hb.onDone()
			}
			return nil
		case 'd':
			hb.deleteSelected()
			return nil
		}
	}
	return event
}

// deleteSelected removes the currently selected game from disk and the archive.
func (hb *HistoryBrowserUI) deleteSelected() {
	if hb.selected < 0 || hb.selected >= len(hb.games) {
		return
	}
	game := hb.games[hb.selected]
	if err := hb.source.Delete(context.Background(), game); err != nil {
		hb.logger.Error("delete game", zap.String("game_id", game.ID), zap.Error(err))
	}
	// Clear board cache and reload
	hb.Refresh()
}

// finalBoard returns the last position of game i, replaying the PGN when the listing has no FEN.
func (hb *HistoryBrowserUI) finalBoard(i int) *engine.Board {
	if b, ok := hb.boards[i]; ok {
		return b
	}
	game := hb.games[i]
	var (
		pos engine.Position
		err error
	)
	if game.FinalFEN != "" {
		pos, err = hb.rules.FromFEN(game.FinalFEN)
	} else {
		pos, err = record.ReplayToEnd(&game, hb.rules)
	}
	if pos == nil {
		hb.logger.Warn("preview unavailable", zap.String("file", game.FilePath), zap.Error(err))
		hb.boards[i] = nil
		return nil
	}
	if err != nil {
		hb.logger.Warn("preview replay stopped early", zap.String("file", game.FilePath), zap.Error(err))
	}
	b := pos.Board()
	hb.boards[i] = &b
	return &b
}

// drawPreview renders a mini board and the game metadata.
func (hb *HistoryBrowserUI) drawPreview(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	if hb.selected < 0 || hb.selected >= len(hb.games) {
		return x, y, width, height
	}
	game := hb.games[hb.selected]
	// Lazy-load and cache the board position
	board := hb.finalBoard(hb.selected)
	// Check we have room
	if board == nil || width < 2*8+4 || height < 8+7 {
		return x, y, width, height
	}

	// Draw mini board
	startX := x + 2
	startY := y + 1
	emptyStyle := tcell.StyleDefault.Foreground(MenuColors.Empty)
	whiteStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(255)).Bold(true)
	blackStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(244))
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := board[row][col]
			ch, style := '·', emptyStyle
			if !p.Empty() {
				ch, style = hb.glyphs[p.Kind], whiteStyle
				if p.Side == engine.Black {
					style = blackStyle
				}
			}
			screen.SetContent(startX+2*col, startY+row, ch, nil, style)
		}
	}

	// Metadata below the board
	infoY := startY + 9
	infoStyle := tcell.StyleDefault.Foreground(MenuColors.Label)
	dimStyle := tcell.StyleDefault.Foreground(MenuColors.Hint)
	drawText(screen, startX, infoY, game.Date, infoStyle)
	drawText(screen, startX+11, infoY, fmt.Sprintf("| %d moves", game.MoveCount), dimStyle)
	infoY++
	drawText(screen, startX, infoY, "White: "+game.White, dimStyle)
	infoY++
	drawText(screen, startX, infoY, "Black: "+game.Black, dimStyle)
	infoY++
	result := game.Result
	if result == "" || result == "*" {
		result = "Unfinished"
	}
	drawText(screen, startX, infoY, "Result: "+result, tcell.StyleDefault.Foreground(MenuColors.Accent))
	if game.FileName != "" {
		infoY++
		drawText(screen, startX, infoY, game.FileName, dimStyle)
	}
	return x, y, width, height
}

// drawText writes a string to the screen at the given position.
func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	i := 0
	for _, ch := range text {
		screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}
