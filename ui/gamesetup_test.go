package ui

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termchess/engine"
)

func TestGameSetupStartsWithChosenSettings(t *testing.T) {
	defaults := engine.GameConfig{Players: engine.Players{WhiteHuman: true}, Depth: 4}
	var started *engine.GameConfig
	setup := NewGameSetup(defaults, func(c engine.GameConfig) { started = &c }, nil, nil, func() {})

	if got := setup.Config(); got.Depth != 4 || !got.Players.WhiteHuman || got.Players.BlackHuman {
		t.Fatalf("expected the defaults, got %+v", got)
	}

	setup.form.GetFormItemByLabel("Black").(*tview.DropDown).SetCurrentOption(0)
	setup.form.GetFormItemByLabel("Search Depth").(*tview.DropDown).SetCurrentOption(5)
	setup.form.GetFormItemByLabel("Start FEN").(*tview.InputField).SetText("  4k3/8/8/8/8/8/4P3/4K3 w - - 0 1 ")

	start := setup.form.GetButton(setup.form.GetButtonIndex("Start Game"))
	start.InputHandler()(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), func(tview.Primitive) {})
	if started == nil {
		t.Fatalf("start callback not called")
	}
	if !started.Players.BlackHuman || started.Depth != 6 || started.FEN != "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1" {
		t.Fatalf("unexpected config %+v", *started)
	}
}
