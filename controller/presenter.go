package controller

import "termchess/engine"

// Frame is everything a view needs to draw the game.
type Frame struct {
	Position  engine.Position
	Selection []engine.Square
	Legal     []engine.Move
	LastMove  *engine.Move
	State     State
	Players   engine.Players
	Outcome   engine.Outcome
}

// Presenter is the drawing surface the controller drives.
type Presenter interface {
	Redraw(f Frame)
	// Animate plays m on the board; after is the position once m has been applied. It returns when
	// the animation has finished.
	Animate(m engine.Move, after engine.Position)
	ShowEndOfGame(text string)
}

// Recorder persists the game as it progresses.
type Recorder interface {
	NewGame(start engine.Position, players engine.Players) error
	Record(pos engine.Position, players engine.Players, outcome engine.Outcome) error
}
