package ui

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termchess/engine"
)

var controlOptions = []string{"Human", "Computer"}

// GameSetupUI provides a form for configuring a new game.
type GameSetupUI struct {
	form *tview.Form
	flex *tview.Flex
	cfg  engine.GameConfig
}

// NewGameSetup creates a new game setup form prefilled from defaults.
func NewGameSetup(defaults engine.GameConfig, onStart func(engine.GameConfig), onHistory, onColors, onCancel func()) *GameSetupUI {
	setup := &GameSetupUI{cfg: defaults}

	levels := make([]string, 8)
	for i := range levels {
		levels[i] = strconv.Itoa(i + 1)
	}
	levels[0] += " (weakest)"
	levels[7] += " (strongest)"

	form := tview.NewForm()

	form.AddDropDown("White", controlOptions, controlIndex(defaults.Players.WhiteHuman), func(option string, index int) {
		setup.cfg.Players.WhiteHuman = index == 0
	})
	form.AddDropDown("Black", controlOptions, controlIndex(defaults.Players.BlackHuman), func(option string, index int) {
		setup.cfg.Players.BlackHuman = index == 0
	})

	depth := defaults.Depth
	if depth < 1 || depth > len(levels) {
		depth = 3
	}
	form.AddDropDown("Search Depth", levels, depth-1, func(option string, index int) {
		setup.cfg.Depth = index + 1
	})

	form.AddInputField("Start FEN", defaults.FEN, 40, nil, func(text string) {
		setup.cfg.FEN = strings.TrimSpace(text)
	})

	form.AddButton("Start Game", func() {
		onStart(setup.cfg)
	})
	form.AddButton("History", func() {
		if onHistory != nil {
			onHistory()
		}
	})
	form.AddButton("Colors", func() {
		if onColors != nil {
			onColors()
		}
	})
	form.AddButton("Quit", func() {
		onCancel()
	})

	form.SetBorder(true)
	form.SetTitle(" New Game ")
	form.SetTitleAlign(tview.AlignCenter)
	form.SetButtonBackgroundColor(MenuColors.ButtonBG)
	form.SetButtonTextColor(MenuColors.ButtonText)
	form.SetFieldBackgroundColor(MenuColors.CardBG)
	form.SetLabelColor(MenuColors.Label)

	helpText := tview.NewTextView().
		SetText("Tab/Shift+Tab: navigate fields  |  Arrow keys: change dropdown  |  Enter: confirm").
		SetTextAlign(tview.AlignCenter)
	helpText.SetTextColor(MenuColors.Hint)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(helpText, 1, 0, false)

	setup.form = form
	setup.flex = flex
	return setup
}

func controlIndex(human bool) int {
	if human {
		return 0
	}
	return 1
}

// Form returns the flex container with form and help text.
func (s *GameSetupUI) Form() *tview.Flex {
	return s.flex
}

// Config returns the settings currently chosen in the form.
func (s *GameSetupUI) Config() engine.GameConfig {
	return s.cfg
}

// SetInputCapture sets the input capture function for the form.
func (s *GameSetupUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	s.form.SetInputCapture(capture)
}
