package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"termchess/config"
	"termchess/engine"
)

// ColorConfigUI provides a square color configuration screen with live preview.
type ColorConfigUI struct {
	flex      *tview.Flex
	colorList *tview.List
	preview   *tview.Box
	cfg       *config.Config
	logger    *zap.Logger
	glyphs    [engine.King + 1]rune
	onDone    func()

	selectedLight int
	selectedDark  int
	editingDark   bool // true = editing dark squares, false = editing light squares
}

type namedColor struct {
	code int
	name string
}

// Light square colors (pale wood and stone tones)
var lightColors = []namedColor{
	{230, "Light Cream"},
	{229, "Pale Yellow"},
	{223, "Peach"},
	{222, "Gold"},
	{188, "Light Beige"},
	{187, "Sand"},
	{181, "Dusty Rose"},
	{180, "Tan"},
	{152, "Pale Blue"},
	{151, "Pale Green"},
	{252, "Light Gray"},
	{250, "Gray"},
	{248, "Medium Gray"},
}

// Dark square colors (darker tones that contrast with the light squares)
var darkColors = []namedColor{
	{94, "Saddle Brown"},
	{130, "Dark Orange"},
	{136, "Dark Brown"},
	{137, "Walnut"},
	{88, "Dark Red"},
	{22, "Dark Green"},
	{65, "Olive Green"},
	{23, "Teal"},
	{24, "Dark Cyan"},
	{60, "Slate"},
	{54, "Purple"},
	{240, "Gray"},
	{244, "Medium Gray"},
}

// NewColorConfig creates a new color configuration screen. onDone runs after a choice is saved.
func NewColorConfig(cfg *config.Config, logger *zap.Logger, onDone func()) *ColorConfigUI {
	if logger == nil {
		logger = zap.NewNop()
	}
	cc := &ColorConfigUI{
		cfg:           cfg,
		logger:        logger,
		onDone:        onDone,
		selectedLight: cfg.Theme.Colors.LightSquare,
		selectedDark:  cfg.Theme.Colors.DarkSquare,
	}
	sym := cfg.Theme.Symbols
	for kind, s := range map[engine.Kind]string{
		engine.King: sym.King, engine.Queen: sym.Queen, engine.Rook: sym.Rook,
		engine.Bishop: sym.Bishop, engine.Knight: sym.Knight, engine.Pawn: sym.Pawn,
	} {
		cc.glyphs[kind] = []rune(s)[0]
	}

	cc.colorList = tview.NewList()
	cc.colorList.SetBorder(true)
	cc.colorList.ShowSecondaryText(false)
	cc.populateColorList()

	cc.colorList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		cc.pick(index)
	})
	cc.colorList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		cc.apply(index)
	})

	cc.preview = tview.NewBox()
	cc.preview.SetBorder(true)
	cc.preview.SetTitle(" Board Preview ")
	cc.preview.SetDrawFunc(cc.drawPreview)

	cc.flex = tview.NewFlex().
		AddItem(cc.colorList, 34, 0, true).
		AddItem(cc.preview, 0, 1, false)

	return cc
}

func (cc *ColorConfigUI) palette() []namedColor {
	if cc.editingDark {
		return darkColors
	}
	return lightColors
}

// pick shows the color under the list cursor without saving it.
func (cc *ColorConfigUI) pick(index int) {
	colors := cc.palette()
	if index < 0 || index >= len(colors) {
		return
	}
	if cc.editingDark {
		cc.selectedDark = colors[index].code
	} else {
		cc.selectedLight = colors[index].code
	}
}

// apply saves the chosen color. Picking a light color moves on to the dark squares; picking a dark
// color finishes.
func (cc *ColorConfigUI) apply(index int) {
	colors := cc.palette()
	if index < 0 || index >= len(colors) {
		return
	}
	cc.pick(index)
	cc.cfg.Theme.Colors.LightSquare = cc.selectedLight
	cc.cfg.Theme.Colors.DarkSquare = cc.selectedDark
	if err := cc.cfg.Save(); err != nil {
		cc.logger.Error("save config", zap.Error(err))
	}
	if !cc.editingDark {
		cc.editingDark = true
		cc.populateColorList()
		return
	}
	cc.editingDark = false
	cc.populateColorList()
	if cc.onDone != nil {
		cc.onDone()
	}
}

func (cc *ColorConfigUI) populateColorList() {
	cc.colorList.Clear()

	current := cc.selectedLight
	if cc.editingDark {
		cc.colorList.SetTitle(" Dark Squares (Tab: light) ")
		current = cc.selectedDark
	} else {
		cc.colorList.SetTitle(" Light Squares (Tab: dark) ")
	}
	for i, c := range cc.palette() {
		cc.colorList.AddItem(fmt.Sprintf("[#%06x]████[-] %s (%d)",
			tcell.PaletteColor(c.code).Hex(), c.name, c.code),
			"", rune('a'+i), nil)
		if c.code == current {
			cc.colorList.SetCurrentItem(i)
		}
	}
}

// previewPieces is a corner of the start position shown in the preview.
var previewPieces = map[[2]int]engine.Piece{
	{0, 0}: {Kind: engine.Rook, Side: engine.Black},
	{0, 1}: {Kind: engine.Knight, Side: engine.Black},
	{0, 2}: {Kind: engine.Bishop, Side: engine.Black},
	{0, 3}: {Kind: engine.Queen, Side: engine.Black},
	{1, 0}: {Kind: engine.Pawn, Side: engine.Black},
	{1, 1}: {Kind: engine.Pawn, Side: engine.Black},
	{2, 2}: {Kind: engine.Knight, Side: engine.White},
	{3, 3}: {Kind: engine.Pawn, Side: engine.White},
}

func (cc *ColorConfigUI) drawPreview(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	const size, sw, sh = 4, 4, 2
	if width < size*sw+4 || height < size*sh+4 {
		return x, y, width, height
	}
	startX := x + 2
	startY := y + 1
	col := cc.cfg.Theme.Colors

	for row := 0; row < size; row++ {
		for c := 0; c < size; c++ {
			bg := tcell.PaletteColor(cc.selectedDark)
			if (row+c)%2 == 0 {
				bg = tcell.PaletteColor(cc.selectedLight)
			}
			style := tcell.StyleDefault.Background(bg)
			for dy := 0; dy < sh; dy++ {
				for dx := 0; dx < sw; dx++ {
					screen.SetContent(startX+c*sw+dx, startY+row*sh+dy, ' ', nil, style)
				}
			}
			if p, ok := previewPieces[[2]int{row, c}]; ok {
				fg := tcell.PaletteColor(col.WhitePiece)
				if p.Side == engine.Black {
					fg = tcell.PaletteColor(col.BlackPiece)
				}
				screen.SetContent(startX+c*sw+sw/2, startY+row*sh+sh/2, cc.glyphs[p.Kind], nil, style.Foreground(fg).Bold(true))
			}
		}
	}

	info := fmt.Sprintf("Light: %d  Dark: %d", cc.selectedLight, cc.selectedDark)
	drawText(screen, startX, startY+size*sh+1, info, tcell.StyleDefault.Foreground(MenuColors.Label))
	return x, y, width, height
}

// Flex returns the flex container for this UI.
func (cc *ColorConfigUI) Flex() *tview.Flex {
	return cc.flex
}

// SetInputCapture sets the input capture for the color list.
func (cc *ColorConfigUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	cc.colorList.SetInputCapture(capture)
}

// ToggleMode switches between light and dark square editing.
func (cc *ColorConfigUI) ToggleMode() {
	cc.editingDark = !cc.editingDark
	cc.populateColorList()
}
