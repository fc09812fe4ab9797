package ui

import "github.com/gdamore/tcell/v2"

// MenuColors defines the Nord-inspired color palette for the menu screens.
var MenuColors = struct {
	CardBG      tcell.Color // Dark gray background
	Label       tcell.Color // Light gray for labels
	Hint        tcell.Color // Dim gray for hints
	Accent      tcell.Color // Blue for results and highlights
	Empty       tcell.Color // Empty squares in previews
	ButtonBG    tcell.Color // Button background
	ButtonFocus tcell.Color // Focused button
	ButtonText  tcell.Color // Button text
}{
	CardBG:      tcell.PaletteColor(236),
	Label:       tcell.PaletteColor(250),
	Hint:        tcell.PaletteColor(245),
	Accent:      tcell.PaletteColor(109),
	Empty:       tcell.PaletteColor(240),
	ButtonBG:    tcell.PaletteColor(60),
	ButtonFocus: tcell.PaletteColor(109),
	ButtonText:  tcell.PaletteColor(255),
}
