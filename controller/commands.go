package controller

import "termchess/engine"

// CommandKind enumerates the decoded user commands.
type CommandKind int

const (
	ClickSquare CommandKind = iota
	ToggleHumanControl
	Undo
	Reset
	Quit
)

func (k CommandKind) String() string {
	switch k {
	case ClickSquare:
		return "click"
	case ToggleHumanControl:
		return "toggle"
	case Undo:
		return "undo"
	case Reset:
		return "reset"
	case Quit:
		return "quit"
	}
	return "unknown"
}

// Command is one decoded input event.
type Command struct {
	Kind   CommandKind
	Square engine.Square // ClickSquare
	Side   engine.Side   // ToggleHumanControl
}

// Click returns a ClickSquare command. Coordinates outside 0..7 are allowed and deselect.
func Click(row, col int) Command {
	return Command{Kind: ClickSquare, Square: engine.Square{Row: row, Col: col}}
}

// Toggle returns a ToggleHumanControl command for side.
func Toggle(side engine.Side) Command {
	return Command{Kind: ToggleHumanControl, Side: side}
}
