package controller

import "termchess/engine"

// SelectionEvent is what a click did to the pending selection.
type SelectionEvent int

const (
	// AwaitingSecond means one square is pending.
	AwaitingSecond SelectionEvent = iota
	// Cleared means the selection was emptied by a repeat or off-board click.
	Cleared
	// CandidateReady means two squares are pending and form a candidate move.
	CandidateReady
)

func (e SelectionEvent) String() string {
	switch e {
	case AwaitingSecond:
		return "awaiting-second"
	case Cleared:
		return "cleared"
	case CandidateReady:
		return "candidate-ready"
	}
	return "unknown"
}

// Selection accumulates clicked squares into a candidate move. It never holds more than two squares.
type Selection struct {
	squares []engine.Square
}

// Select records a click on sq.
func (s *Selection) Select(sq engine.Square) SelectionEvent {
	if len(s.squares) == 2 {
		// An unresolved candidate counts as rejected.
		s.Reject()
	}
	if !sq.OnBoard() {
		s.Clear()
		return Cleared
	}
	if len(s.squares) == 0 {
		s.squares = append(s.squares, sq)
		return AwaitingSecond
	}
	if s.squares[0] == sq {
		s.Clear()
		return Cleared
	}
	s.squares = append(s.squares, sq)
	return CandidateReady
}

// Candidate returns the pending pair, if there is one.
func (s *Selection) Candidate() (from, to engine.Square, ok bool) {
	if len(s.squares) != 2 {
		return engine.NoSquare, engine.NoSquare, false
	}
	return s.squares[0], s.squares[1], true
}

// Reject collapses a candidate to its second square, which becomes the new first click.
func (s *Selection) Reject() {
	if len(s.squares) != 2 {
		return
	}
	s.squares = []engine.Square{s.squares[1]}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.squares = s.squares[:0]
}

// Squares returns a copy of the pending squares.
func (s *Selection) Squares() []engine.Square {
	return append([]engine.Square(nil), s.squares...)
}
