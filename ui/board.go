// Package ui specifies the tview controls used to play chess in the terminal.
package ui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termchess/config"
	"termchess/controller"
	"termchess/engine"
)

type boardStyles struct {
	light, dark            tcell.Color
	whitePiece, blackPiece tcell.Color
	selected, target       tcell.Color
	lastMove, check        tcell.Color
	cursor                 tcell.Color
	bannerFG, bannerBG     tcell.Color
	shadow, coords         tcell.Color
}

var _ controller.Presenter = (*BoardView)(nil)

// BoardView draws the board and implements controller.Presenter.
type BoardView struct {
	Box      *tview.Box
	hint     *tview.TextView
	panel    *MovePanel
	cfg      *config.Config
	styles   boardStyles
	glyphs   [engine.King + 1]rune
	frame    controller.Frame
	hasFrame bool
	banner   string
	anim     *slide

	cursor    engine.Square
	cursorOn  bool
	focusMode bool
	geo       geometry

	// forceDraw repaints the screen synchronously; nil disables animation.
	forceDraw func()
	sleep     func(time.Duration)
}

// slide is one frame of a moving piece.
type slide struct {
	base        engine.Board
	piece       engine.Piece
	from, to    engine.Square
	step, steps int
}

func NewBoardView(app *tview.Application, c *config.Config, hint *tview.TextView) *BoardView {
	b := &BoardView{
		Box:    tview.NewBox(),
		hint:   hint,
		cursor: engine.Square{Row: 6, Col: 4},
		sleep:  time.Sleep,
	}
	if app != nil {
		b.forceDraw = func() { app.ForceDraw() }
	}
	b.SetConfig(c)
	b.Box.SetDrawFunc(b.draw)
	return b
}

func (b *BoardView) SetConfig(c *config.Config) {
	col := c.Theme.Colors
	b.styles = boardStyles{
		light:      tcell.PaletteColor(col.LightSquare),
		dark:       tcell.PaletteColor(col.DarkSquare),
		whitePiece: tcell.PaletteColor(col.WhitePiece),
		blackPiece: tcell.PaletteColor(col.BlackPiece),
		selected:   tcell.PaletteColor(col.Selected),
		target:     tcell.PaletteColor(col.LegalTarget),
		lastMove:   tcell.PaletteColor(col.LastMove),
		check:      tcell.PaletteColor(col.Check),
		cursor:     tcell.PaletteColor(col.Cursor),
		bannerFG:   tcell.PaletteColor(col.BannerFG),
		bannerBG:   tcell.PaletteColor(col.BannerBG),
		shadow:     tcell.PaletteColor(col.BannerShadow),
		coords:     tcell.PaletteColor(col.CoordinatesFG),
	}
	sym := c.Theme.Symbols
	for kind, s := range map[engine.Kind]string{
		engine.King: sym.King, engine.Queen: sym.Queen, engine.Rook: sym.Rook,
		engine.Bishop: sym.Bishop, engine.Knight: sym.Knight, engine.Pawn: sym.Pawn,
	} {
		b.glyphs[kind] = []rune(s)[0]
	}
	b.cfg = c
}

// Redraw stores the frame drawn on the next screen refresh and updates the side panels.
func (b *BoardView) Redraw(f controller.Frame) {
	b.frame = f
	b.hasFrame = true
	b.banner = ""
	if b.panel != nil {
		b.panel.SetFrame(f)
	}
	b.refreshHint()
}

// ShowEndOfGame sets the banner drawn over the board until the next Redraw.
func (b *BoardView) ShowEndOfGame(text string) {
	b.banner = text
	b.refreshHint()
}

// Animate slides the moved piece from its origin to its destination, repainting the screen once
// per frame. It returns when the last frame has been shown.
func (b *BoardView) Animate(m engine.Move, after engine.Position) {
	steps := b.cfg.Animation.FramesPerSquare * distance(m.From, m.To)
	if steps <= 0 || b.forceDraw == nil {
		return
	}
	base := after.Board()
	base[m.To.Row][m.To.Col] = engine.Piece{}
	if !m.Captured.Empty() {
		cs := m.CaptureSquare()
		base[cs.Row][cs.Col] = m.Captured
	}
	delay := time.Second / time.Duration(b.cfg.Animation.FPS)
	for i := 1; i <= steps; i++ {
		b.anim = &slide{base: base, piece: m.Piece, from: m.From, to: m.To, step: i, steps: steps}
		b.forceDraw()
		b.sleep(delay)
	}
	b.anim = nil
}

// distance is the Chebyshev distance in squares.
func distance(a, c engine.Square) int {
	dr, dc := abs(a.Row-c.Row), abs(a.Col-c.Col)
	if dr > dc {
		return dr
	}
	return dc
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ToggleFocusMode toggles focus mode and returns the new state.
func (b *BoardView) ToggleFocusMode() bool {
	b.focusMode = !b.focusMode
	b.refreshHint()
	return b.focusMode
}

func (b *BoardView) refreshHint() {
	if b.hint == nil || !b.hasFrame {
		return
	}
	if b.focusMode {
		b.hint.SetText("  f to toggle")
		return
	}
	f := b.frame
	var status string
	switch {
	case f.State == controller.GameOver:
		status = fmt.Sprintf("  Game over: %s", f.Outcome.Text())
	default:
		side := f.Position.Turn()
		status = fmt.Sprintf("  %s to move (%s)", side, f.Players.Label(side))
		if f.Position.InCheck() {
			status += "  [red::b]check[-:-:-]"
		}
		if f.State == controller.SearchRunning {
			status += "  [dimgray]thinking...[-]"
		}
	}
	controls := "\n  [dimgray]hjkl/↑↓←→ move  ⏎ select  1/2 toggle side  z undo  r reset  f focus  q quit[-]"
	b.hint.SetText(status + controls)
}

func (b *BoardView) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	if !b.hasFrame {
		return x, y, width, height
	}
	b.geo = layout(x, y, width, height, b.cfg.Theme.ShowCoordinates)
	g := b.geo

	board := b.frame.Position.Board()
	animating := b.anim != nil
	if animating {
		board = b.anim.base
	}
	marks := b.highlights(animating)

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq := engine.Square{Row: row, Col: col}
			bg := b.squareColor(sq, marks)
			style := tcell.StyleDefault.Background(bg)
			ox, oy := g.origin(sq)
			for dy := 0; dy < g.sh; dy++ {
				for dx := 0; dx < g.sw; dx++ {
					screen.SetContent(ox+dx, oy+dy, ' ', nil, style)
				}
			}
			cx, cy := ox+g.sw/2, oy+g.sh/2
			if p := board.At(sq); !p.Empty() {
				screen.SetContent(cx, cy, b.glyphs[p.Kind], nil, b.pieceStyle(p, bg))
			} else if marks.targets[sq] {
				screen.SetContent(cx, cy, '·', nil, style.Foreground(b.styles.target).Bold(true))
			}
		}
	}
	if animating {
		b.drawSlide(screen)
	}
	if b.cfg.Theme.ShowCoordinates {
		b.drawCoordinates(screen)
	}
	if b.banner != "" {
		b.drawBanner(screen, x, y, width, height)
	}
	return x, y, width, height
}

type marks struct {
	selected engine.Square
	targets  map[engine.Square]bool
	last     *engine.Move
	check    engine.Square
}

func (b *BoardView) highlights(animating bool) marks {
	m := marks{selected: engine.NoSquare, check: engine.NoSquare, targets: map[engine.Square]bool{}}
	if animating {
		return m
	}
	f := b.frame
	if b.cfg.Theme.ShowLastMove {
		m.last = f.LastMove
	}
	if len(f.Selection) == 1 {
		m.selected = f.Selection[0]
		if b.cfg.Theme.ShowLegalMoves {
			for _, lm := range f.Legal {
				if lm.From == m.selected {
					m.targets[lm.To] = true
				}
			}
		}
	}
	if f.Position.InCheck() {
		board := f.Position.Board()
		turn := f.Position.Turn()
		for row := 0; row < 8; row++ {
			for col := 0; col < 8; col++ {
				if p := board[row][col]; p.Kind == engine.King && p.Side == turn {
					m.check = engine.Square{Row: row, Col: col}
				}
			}
		}
	}
	return m
}

func (b *BoardView) squareColor(sq engine.Square, m marks) tcell.Color {
	board := b.frame.Position.Board()
	switch {
	case b.cursorOn && sq == b.cursor:
		return b.styles.cursor
	case sq == m.selected:
		return b.styles.selected
	case sq == m.check:
		return b.styles.check
	case m.targets[sq] && !board.At(sq).Empty():
		return b.styles.target
	case m.last != nil && (sq == m.last.From || sq == m.last.To):
		return b.styles.lastMove
	case (sq.Row+sq.Col)%2 == 0:
		return b.styles.light
	}
	return b.styles.dark
}

func (b *BoardView) pieceStyle(p engine.Piece, bg tcell.Color) tcell.Style {
	fg := b.styles.whitePiece
	if p.Side == engine.Black {
		fg = b.styles.blackPiece
	}
	return tcell.StyleDefault.Background(bg).Foreground(fg).Bold(true)
}

func (b *BoardView) drawSlide(screen tcell.Screen) {
	s := b.anim
	g := b.geo
	fx, fy := g.origin(s.from)
	tx, ty := g.origin(s.to)
	px := fx + (tx-fx)*s.step/s.steps + g.sw/2
	py := fy + (ty-fy)*s.step/s.steps + g.sh/2
	bg := b.styles.dark
	if sq, ok := g.squareAt(px, py); ok && (sq.Row+sq.Col)%2 == 0 {
		bg = b.styles.light
	}
	screen.SetContent(px, py, b.glyphs[s.piece.Kind], nil, b.pieceStyle(s.piece, bg))
}

func (b *BoardView) drawCoordinates(screen tcell.Screen) {
	g := b.geo
	style := tcell.StyleDefault.Foreground(b.styles.coords)
	for col := 0; col < 8; col++ {
		ox, oy := g.origin(engine.Square{Row: 7, Col: col})
		screen.SetContent(ox+g.sw/2, oy+g.sh, rune('a'+col), nil, style)
	}
	for row := 0; row < 8; row++ {
		_, oy := g.origin(engine.Square{Row: row, Col: 0})
		screen.SetContent(g.left-2, oy+g.sh/2, rune('8'-row), nil, style)
	}
}

// drawBanner draws the end-of-game text centered over the board with a drop shadow.
func (b *BoardView) drawBanner(screen tcell.Screen, x, y, width, height int) {
	g := b.geo
	text := []rune(b.banner)
	w := len(text) + 6
	h := 3
	left := g.left + (8*g.sw-w)/2
	top := g.top + (8*g.sh-h)/2
	if left < x {
		left = x
	}
	if top < y {
		top = y
	}
	shadow := tcell.StyleDefault.Background(b.styles.shadow)
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			screen.SetContent(left+dx+1, top+dy+1, ' ', nil, shadow)
		}
	}
	style := tcell.StyleDefault.Background(b.styles.bannerBG).Foreground(b.styles.bannerFG).Bold(true)
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			screen.SetContent(left+dx, top+dy, ' ', nil, style)
		}
	}
	for i, r := range text {
		screen.SetContent(left+3+i, top+1, r, nil, style)
	}
}

// geometry places the 8x8 grid inside the box.
type geometry struct {
	left, top int
	sw, sh    int
}

// squareSizes are tried largest first; each keeps squares roughly square on a 2:1 terminal cell.
var squareSizes = [][2]int{{6, 3}, {3, 1}}

func layout(x, y, width, height int, coords bool) geometry {
	margin := 0
	if coords {
		margin = 2
	}
	sw, sh := squareSizes[len(squareSizes)-1][0], squareSizes[len(squareSizes)-1][1]
	for _, s := range squareSizes {
		if 8*s[0]+margin <= width && 8*s[1]+margin/2 <= height {
			sw, sh = s[0], s[1]
			break
		}
	}
	boardW, boardH := 8*sw+margin, 8*sh+margin/2
	left := x + margin
	if width > boardW {
		left += (width - boardW) / 2
	}
	top := y
	if height > boardH {
		top += (height - boardH) / 2
	}
	return geometry{left: left, top: top, sw: sw, sh: sh}
}

func (g geometry) origin(sq engine.Square) (int, int) {
	return g.left + sq.Col*g.sw, g.top + sq.Row*g.sh
}

// squareAt maps a screen cell to the board square under it.
func (g geometry) squareAt(px, py int) (engine.Square, bool) {
	if g.sw == 0 || px < g.left || py < g.top {
		return engine.NoSquare, false
	}
	sq := engine.Square{Row: (py - g.top) / g.sh, Col: (px - g.left) / g.sw}
	if !sq.OnBoard() {
		return engine.NoSquare, false
	}
	return sq, true
}
