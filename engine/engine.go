// Package engine defines the chess contracts shared by the rules service, the searchers and the
// turn controller.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StandardFEN is the regular chess start position.
const StandardFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// MoveCounter reads the full-move number and the side to move from a FEN. Missing or malformed
// fields fall back to move 1, White.
func MoveCounter(fen string) (int, Side) {
	fields := strings.Fields(fen)
	number := 1
	if len(fields) >= 6 {
		if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
			number = n
		}
	}
	if len(fields) >= 2 && fields[1] == "b" {
		return number, Black
	}
	return number, White
}

var (
	// ErrIllegalMove is returned when a move outside the legal set is applied.
	ErrIllegalMove = errors.New("illegal move")
	// ErrNoMoves is returned by searchers asked to pick from an empty move set.
	ErrNoMoves = errors.New("no legal moves")
)

// Side is one of the two players.
type Side int

const (
	White Side = iota
	Black
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) String() string {
	if s == White {
		return "White"
	}
	return "Black"
}

// Kind is a piece type. NoKind marks an empty square.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = [...]byte{NoKind: ' ', Pawn: 'p', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q', King: 'k'}

// Letter returns the lowercase letter used for the kind in FEN and UCI.
func (k Kind) Letter() byte {
	if int(k) >= len(kindLetters) {
		return ' '
	}
	return kindLetters[k]
}

// Value is the conventional material value in pawns.
func (k Kind) Value() int {
	switch k {
	case Pawn:
		return 1
	case Knight, Bishop:
		return 3
	case Rook:
		return 5
	case Queen:
		return 9
	}
	return 0
}

// KindFromLetter parses a piece letter in either case.
func KindFromLetter(b byte) Kind {
	switch b | 0x20 {
	case 'p':
		return Pawn
	case 'n':
		return Knight
	case 'b':
		return Bishop
	case 'r':
		return Rook
	case 'q':
		return Queen
	case 'k':
		return King
	}
	return NoKind
}

// Piece is a piece on the board. The zero value is an empty square.
type Piece struct {
	Kind Kind
	Side Side
}

// Empty reports whether p holds no piece.
func (p Piece) Empty() bool {
	return p.Kind == NoKind
}

// Material sums the piece values of each side.
func (b Board) Material() (white, black int) {
	for _, row := range b {
		for _, p := range row {
			if p.Side == White {
				white += p.Kind.Value()
			} else {
				black += p.Kind.Value()
			}
		}
	}
	return white, black
}

// Square addresses a board cell. Row 0 is rank 8 and Col 0 is file a, matching screen order.
type Square struct {
	Row int
	Col int
}

// NoSquare is an off-board square.
var NoSquare = Square{Row: -1, Col: -1}

// OnBoard reports whether the square lies within the 8x8 grid.
func (s Square) OnBoard() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

func (s Square) String() string {
	if !s.OnBoard() {
		return "-"
	}
	return string([]byte{byte('a' + s.Col), byte('8' - s.Row)})
}

// ParseSquare parses algebraic coordinates such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	return Square{Row: int('8' - s[1]), Col: int(s[0] - 'a')}, nil
}

// Board is indexed as Board[row][col].
type Board [8][8]Piece

// At returns the piece on sq, or an empty piece when sq is off the board.
func (b Board) At(sq Square) Piece {
	if !sq.OnBoard() {
		return Piece{}
	}
	return b[sq.Row][sq.Col]
}

// Move is a single ply. Piece and Captured are filled in from the board the move was generated on.
type Move struct {
	From      Square
	To        Square
	Promotion Kind
	Piece     Piece
	Captured  Piece
	EnPassant bool
	Castle    bool
}

// Equal compares the squares and the promotion piece, which is all that is needed to tell two legal
// moves apart on the same position.
func (m Move) Equal(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

// UCI returns the move in long algebraic notation, e.g. "e2e4" or "e7e8q".
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoKind {
		s += string(m.Promotion.Letter())
	}
	return s
}

func (m Move) String() string {
	return m.UCI()
}

// CaptureSquare is where the captured piece stood; it differs from To only for en passant.
func (m Move) CaptureSquare() Square {
	if m.EnPassant {
		return Square{Row: m.From.Row, Col: m.To.Col}
	}
	return m.To
}

// Contains reports whether moves holds a move equal to m, returning the stored entry.
func Contains(moves []Move, m Move) (Move, bool) {
	for _, lm := range moves {
		if lm.Equal(m) {
			return lm, true
		}
	}
	return Move{}, false
}

// Position is an immutable game snapshot owned by a Rules implementation.
type Position interface {
	FEN() string
	Board() Board
	Turn() Side
	InCheck() bool
	// History lists the moves played since the start position.
	History() []Move
	// SAN lists the same moves in standard algebraic notation.
	SAN() []string
	// StartFEN is the FEN the game began from.
	StartFEN() string
}

// OutcomeKind classifies a finished or running game.
type OutcomeKind int

const (
	NoOutcome OutcomeKind = iota
	Checkmate
	Stalemate
	Draw
)

// Outcome is the result of a position.
type Outcome struct {
	Kind   OutcomeKind
	Winner Side
	Reason string
}

// Over reports whether the game has ended.
func (o Outcome) Over() bool {
	return o.Kind != NoOutcome
}

// Text is the end-of-game banner.
func (o Outcome) Text() string {
	switch o.Kind {
	case Checkmate:
		return fmt.Sprintf("%s wins by checkmate", o.Winner)
	case Stalemate:
		return "Stalemate"
	case Draw:
		if o.Reason == "" {
			return "Draw"
		}
		return "Draw by " + o.Reason
	}
	return ""
}

// Result is the PGN result token.
func (o Outcome) Result() string {
	switch o.Kind {
	case Checkmate:
		if o.Winner == White {
			return "1-0"
		}
		return "0-1"
	case Stalemate, Draw:
		return "1/2-1/2"
	}
	return "*"
}

// Rules is the authority on legality and game state.
type Rules interface {
	InitialState() Position
	FromFEN(fen string) (Position, error)
	LegalMoves(pos Position) []Move
	// MoveFor builds the candidate for a from/to pair using the position's board. A pawn reaching the
	// last rank is promoted to a queen.
	MoveFor(pos Position, from, to Square) Move
	ApplyMove(pos Position, m Move) (Position, error)
	// Undo reverts one ply. At the start position it returns pos unchanged.
	Undo(pos Position) Position
	Outcome(pos Position) Outcome
	SideToMove(pos Position) Side
}

// Searcher picks moves for a computer-controlled side.
type Searcher interface {
	// FindBestMove returns ok=false when it has no move to suggest. It must return promptly once ctx
	// is cancelled.
	FindBestMove(ctx context.Context, pos Position, legal []Move) (m Move, ok bool, err error)
	// FindRandomMove picks uniformly among legal, which must not be empty.
	FindRandomMove(legal []Move) Move
}

// Players records which sides are human controlled.
type Players struct {
	WhiteHuman bool
	BlackHuman bool
}

// Human reports whether side s is human controlled.
func (p Players) Human(s Side) bool {
	if s == White {
		return p.WhiteHuman
	}
	return p.BlackHuman
}

// Toggle flips control of side s.
func (p *Players) Toggle(s Side) {
	if s == White {
		p.WhiteHuman = !p.WhiteHuman
	} else {
		p.BlackHuman = !p.BlackHuman
	}
}

// Label names the controller of side s for display.
func (p Players) Label(s Side) string {
	if p.Human(s) {
		return "Human"
	}
	return "Computer"
}

// GameConfig holds the settings for starting a new game.
type GameConfig struct {
	Players    Players
	Depth      int    // search depth in plies
	EnginePath string // external UCI engine, empty for the built-in search
	MoveTimeMs int    // per-move budget for the external engine
	FEN        string // start position, empty for the standard one
}

// DefaultGameConfig returns a human-vs-computer game with White to the human.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Players: Players{WhiteHuman: true},
		Depth:   3,
	}
}
