// Package rules implements engine.Rules on top of github.com/corentings/chess/v2.
package rules

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/corentings/chess/v2"
	"github.com/dylhunn/dragontoothmg"

	"termchess/engine"
)

// Rules is stateless; every position carries its own game.
type Rules struct{}

// New returns the chess rules service.
func New() *Rules {
	return &Rules{}
}

type position struct {
	game     *chess.Game
	startFEN string
	history  []engine.Move
	san      []string
	board    engine.Board
	legal    []engine.Move
	inCheck  bool
}

func (p *position) FEN() string            { return p.game.FEN() }
func (p *position) Board() engine.Board    { return p.board }
func (p *position) InCheck() bool          { return p.inCheck }
func (p *position) History() []engine.Move { return append([]engine.Move(nil), p.history...) }
func (p *position) SAN() []string          { return append([]string(nil), p.san...) }
func (p *position) StartFEN() string       { return p.startFEN }

func (p *position) Turn() engine.Side {
	if p.game.Position().Turn() == chess.Black {
		return engine.Black
	}
	return engine.White
}

// InitialState returns the standard start position.
func (r *Rules) InitialState() engine.Position {
	game := chess.NewGame()
	return newPosition(game, game.FEN(), nil, nil)
}

// FromFEN starts a game from an arbitrary position.
func (r *Rules) FromFEN(fen string) (engine.Position, error) {
	fen = strings.TrimSpace(fen)
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	game := chess.NewGame(opt)
	if err := checkKings(boardOf(game.Position().Board())); err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	return newPosition(game, game.FEN(), nil, nil), nil
}

// checkKings rejects boards without exactly one king per side; move generation assumes both exist.
func checkKings(b engine.Board) error {
	var kings [2]int
	for _, row := range b {
		for _, p := range row {
			if p.Kind == engine.King {
				kings[p.Side]++
			}
		}
	}
	if kings[engine.White] != 1 || kings[engine.Black] != 1 {
		return fmt.Errorf("need one king per side, found %d white and %d black", kings[engine.White], kings[engine.Black])
	}
	return nil
}

// LegalMoves returns the moves available to the side to move.
func (r *Rules) LegalMoves(pos engine.Position) []engine.Move {
	p := mustOwn(pos)
	return append([]engine.Move(nil), p.legal...)
}

// MoveFor describes the move from -> to on pos's board. Pawns reaching the last rank promote to a
// queen; the caller still has to check the result against LegalMoves.
func (r *Rules) MoveFor(pos engine.Position, from, to engine.Square) engine.Move {
	b := pos.Board()
	promo := engine.NoKind
	pc := b.At(from)
	if pc.Kind == engine.Pawn && (to.Row == 0 || to.Row == 7) {
		promo = engine.Queen
	}
	return describe(&b, from, to, promo)
}

// ApplyMove plays m, which must equal one of LegalMoves(pos).
func (r *Rules) ApplyMove(pos engine.Position, m engine.Move) (engine.Position, error) {
	p := mustOwn(pos)
	legal, ok := engine.Contains(p.legal, m)
	if !ok {
		return nil, fmt.Errorf("%s: %w", m.UCI(), engine.ErrIllegalMove)
	}

	game := p.game.Clone()
	before := game.Position()
	mv, err := chess.UCINotation{}.Decode(before, legal.UCI())
	if err != nil {
		return nil, fmt.Errorf("decode move %s: %w", legal.UCI(), err)
	}
	san := chess.AlgebraicNotation{}.Encode(before, mv)
	if err := game.Move(mv, nil); err != nil {
		return nil, fmt.Errorf("apply move %s: %w", legal.UCI(), err)
	}

	history := append(append([]engine.Move(nil), p.history...), legal)
	sans := append(append([]string(nil), p.san...), san)
	return newPosition(game, p.startFEN, history, sans), nil
}

// Undo replays every move but the last from the start position.
func (r *Rules) Undo(pos engine.Position) engine.Position {
	p := mustOwn(pos)
	if len(p.history) == 0 {
		return p
	}
	game, err := replay(p.startFEN, p.history[:len(p.history)-1])
	if err != nil {
		// The moves were legal when played, so this only fails on a corrupt position.
		panic(err)
	}
	n := len(p.history) - 1
	return newPosition(game, p.startFEN, append([]engine.Move(nil), p.history[:n]...), append([]string(nil), p.san[:n]...))
}

// Outcome reports checkmate and stalemate from the legal move set. Threefold repetition and the
// fifty move rule end the game as soon as they could be claimed.
func (r *Rules) Outcome(pos engine.Position) engine.Outcome {
	p := mustOwn(pos)
	if len(p.legal) == 0 {
		if p.inCheck {
			return engine.Outcome{Kind: engine.Checkmate, Winner: p.Turn().Other(), Reason: "checkmate"}
		}
		return engine.Outcome{Kind: engine.Stalemate, Reason: "stalemate"}
	}
	if p.game.Outcome() == chess.Draw {
		return engine.Outcome{Kind: engine.Draw, Reason: methodReason(p.game.Method().String())}
	}
	for _, m := range p.game.EligibleDraws() {
		if m == chess.ThreefoldRepetition || m == chess.FiftyMoveRule {
			return engine.Outcome{Kind: engine.Draw, Reason: methodReason(m.String())}
		}
	}
	return engine.Outcome{}
}

// SideToMove returns whose turn it is.
func (r *Rules) SideToMove(pos engine.Position) engine.Side {
	return pos.Turn()
}

func newPosition(game *chess.Game, startFEN string, history []engine.Move, san []string) *position {
	p := &position{
		game:     game,
		startFEN: startFEN,
		history:  history,
		san:      san,
		board:    boardOf(game.Position().Board()),
	}
	p.inCheck = kingInCheck(game.FEN())
	for _, mv := range game.ValidMoves() {
		uci := mv.String()
		m, err := parseUCI(&p.board, uci)
		if err != nil {
			continue
		}
		p.legal = append(p.legal, m)
	}
	return p
}

func replay(startFEN string, moves []engine.Move) (*chess.Game, error) {
	opt, err := chess.FEN(startFEN)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	game := chess.NewGame(opt)
	notation := chess.UCINotation{}
	for _, m := range moves {
		mv, err := notation.Decode(game.Position(), m.UCI())
		if err != nil {
			return nil, fmt.Errorf("decode move %s: %w", m.UCI(), err)
		}
		if err := game.Move(mv, nil); err != nil {
			return nil, fmt.Errorf("apply move %s: %w", m.UCI(), err)
		}
	}
	return game, nil
}

func mustOwn(pos engine.Position) *position {
	p, ok := pos.(*position)
	if !ok {
		panic(fmt.Sprintf("rules: foreign position type %T", pos))
	}
	return p
}

// kingInCheck asks dragontoothmg whether the side to move is in check.
func kingInCheck(fen string) bool {
	b := dragontoothmg.ParseFen(fen)
	return b.OurKingInCheck()
}

var pieceKinds = map[chess.PieceType]engine.Kind{
	chess.Pawn:   engine.Pawn,
	chess.Knight: engine.Knight,
	chess.Bishop: engine.Bishop,
	chess.Rook:   engine.Rook,
	chess.Queen:  engine.Queen,
	chess.King:   engine.King,
}

func boardOf(b *chess.Board) engine.Board {
	var out engine.Board
	for sq, pc := range b.SquareMap() {
		if pc == chess.NoPiece {
			continue
		}
		side := engine.White
		if pc.Color() == chess.Black {
			side = engine.Black
		}
		out[7-int(sq.Rank())][int(sq.File())] = engine.Piece{Kind: pieceKinds[pc.Type()], Side: side}
	}
	return out
}

func parseUCI(b *engine.Board, s string) (engine.Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return engine.Move{}, fmt.Errorf("invalid uci move %q", s)
	}
	from, err := engine.ParseSquare(s[0:2])
	if err != nil {
		return engine.Move{}, err
	}
	to, err := engine.ParseSquare(s[2:4])
	if err != nil {
		return engine.Move{}, err
	}
	promo := engine.NoKind
	if len(s) == 5 {
		promo = engine.KindFromLetter(s[4])
	}
	return describe(b, from, to, promo), nil
}

// describe fills in the board-derived metadata for a from/to pair.
func describe(b *engine.Board, from, to engine.Square, promo engine.Kind) engine.Move {
	m := engine.Move{From: from, To: to, Promotion: promo}
	m.Piece = b.At(from)
	m.Captured = b.At(to)
	dc := to.Col - from.Col
	switch m.Piece.Kind {
	case engine.Pawn:
		if dc != 0 && m.Captured.Empty() {
			m.EnPassant = true
			m.Captured = b.At(m.CaptureSquare())
		}
	case engine.King:
		m.Castle = dc == 2 || dc == -2
	}
	return m
}

// methodReason turns a method name such as "InsufficientMaterial" into "insufficient material".
func methodReason(method string) string {
	var sb strings.Builder
	for i, r := range method {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte(' ')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
