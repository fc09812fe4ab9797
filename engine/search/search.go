// Package search is the built-in computer player: a negamax alpha-beta search over dragontoothmg
// bitboards with a material and placement evaluation.
package search

import (
	"context"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"go.uber.org/zap"

	"termchess/engine"
)

const (
	mateScore = 100000
	infinity  = mateScore + 1

	// ctxCheckMask sets how often the search looks at its context, in nodes.
	ctxCheckMask = 1023
	maxQuiesce   = 8
)

// Searcher implements engine.Searcher.
type Searcher struct {
	depth  int
	logger *zap.Logger
}

// New returns a searcher that looks depth plies ahead.
func New(depth int, logger *zap.Logger) *Searcher {
	if depth < 1 {
		depth = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{depth: depth, logger: logger}
}

type searchState struct {
	ctx   context.Context
	nodes int64
	err   error
}

func (s *searchState) stopped() bool {
	if s.err != nil {
		return true
	}
	s.nodes++
	if s.nodes&ctxCheckMask == 0 {
		s.err = s.ctx.Err()
	}
	return s.err != nil
}

// FindBestMove searches pos and returns the best member of legal. Root moves are shuffled first so
// equal-scored moves vary between games.
func (s *Searcher) FindBestMove(ctx context.Context, pos engine.Position, legal []engine.Move) (engine.Move, bool, error) {
	if len(legal) == 0 {
		return engine.Move{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		return engine.Move{}, false, err
	}

	start := time.Now()
	b := dragontoothmg.ParseFen(pos.FEN())
	roots := b.GenerateLegalMoves()
	rand.Shuffle(len(roots), func(i, j int) { roots[i], roots[j] = roots[j], roots[i] })
	orderMoves(&b, roots)

	st := &searchState{ctx: ctx}
	best := -infinity
	var bestMove dragontoothmg.Move
	found := false
	alpha, beta := -infinity, infinity
	for _, m := range roots {
		undo := b.Apply(m)
		score := -st.negamax(&b, s.depth-1, 1, -beta, -alpha)
		undo()
		if st.err != nil {
			return engine.Move{}, false, st.err
		}
		if !found || score > best {
			best, bestMove, found = score, m, true
		}
		if score > alpha {
			alpha = score
		}
	}
	if !found {
		return engine.Move{}, false, nil
	}

	s.logger.Debug("search finished",
		zap.String("fen", pos.FEN()),
		zap.String("move", bestMove.String()),
		zap.Int("score", best),
		zap.Int64("nodes", st.nodes),
		zap.Duration("elapsed", time.Since(start)),
	)

	for _, m := range legal {
		if m.UCI() == bestMove.String() {
			return m, true, nil
		}
	}
	s.logger.Warn("search move not in legal set", zap.String("move", bestMove.String()))
	return engine.Move{}, false, nil
}

// FindRandomMove picks uniformly among legal.
func (s *Searcher) FindRandomMove(legal []engine.Move) engine.Move {
	return legal[rand.IntN(len(legal))]
}

func (st *searchState) negamax(b *dragontoothmg.Board, depth, ply, alpha, beta int) int {
	if st.stopped() {
		return 0
	}
	moves := b.GenerateLegalMoves()
	if len(moves) == 0 {
		if b.OurKingInCheck() {
			return -mateScore + ply
		}
		return 0
	}
	if depth <= 0 {
		return st.quiesce(b, ply, alpha, beta, maxQuiesce)
	}
	orderMoves(b, moves)
	for _, m := range moves {
		undo := b.Apply(m)
		score := -st.negamax(b, depth-1, ply+1, -beta, -alpha)
		undo()
		if st.err != nil {
			return 0
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

// quiesce extends the search along captures so the evaluation is not taken mid-exchange.
func (st *searchState) quiesce(b *dragontoothmg.Board, ply, alpha, beta, left int) int {
	if st.stopped() {
		return 0
	}
	standPat := evaluate(b)
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}
	if left == 0 {
		return alpha
	}
	for _, m := range b.GenerateLegalMoves() {
		if !dragontoothmg.IsCapture(m, b) {
			continue
		}
		undo := b.Apply(m)
		score := -st.quiesce(b, ply+1, -beta, -alpha, left-1)
		undo()
		if st.err != nil {
			return 0
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

// Most valuable victim, least valuable aggressor.
var mvvLva = [7][7]int{
	{0, 0, 0, 0, 0, 0, 0},
	{0, 14, 13, 12, 11, 10, 0},
	{0, 24, 23, 22, 21, 20, 0},
	{0, 34, 33, 32, 31, 30, 0},
	{0, 44, 43, 42, 41, 40, 0},
	{0, 54, 53, 52, 51, 50, 0},
	{0, 0, 0, 0, 0, 0, 0},
}

// orderMoves puts captures first, best victim first, then promotions.
func orderMoves(b *dragontoothmg.Board, moves []dragontoothmg.Move) {
	own, theirs := ours(b), opponent(b)
	scores := make(map[dragontoothmg.Move]int, len(moves))
	for _, m := range moves {
		score := 0
		if victim, ok := pieceAt(m.To(), theirs); ok {
			attacker, _ := pieceAt(m.From(), own)
			score = 100 + mvvLva[victim][attacker]
		}
		if m.Promote() != 0 {
			score += 50
		}
		scores[m] = score
	}
	sort.SliceStable(moves, func(i, j int) bool { return scores[moves[i]] > scores[moves[j]] })
}

func ours(b *dragontoothmg.Board) *dragontoothmg.Bitboards {
	if b.Wtomove {
		return &b.White
	}
	return &b.Black
}

func opponent(b *dragontoothmg.Board) *dragontoothmg.Bitboards {
	if b.Wtomove {
		return &b.Black
	}
	return &b.White
}

func pieceAt(sq uint8, bb *dragontoothmg.Bitboards) (dragontoothmg.Piece, bool) {
	switch {
	case bb.Pawns&(1<<sq) != 0:
		return dragontoothmg.Pawn, true
	case bb.Knights&(1<<sq) != 0:
		return dragontoothmg.Knight, true
	case bb.Bishops&(1<<sq) != 0:
		return dragontoothmg.Bishop, true
	case bb.Rooks&(1<<sq) != 0:
		return dragontoothmg.Rook, true
	case bb.Queens&(1<<sq) != 0:
		return dragontoothmg.Queen, true
	case bb.Kings&(1<<sq) != 0:
		return dragontoothmg.King, true
	}
	return 0, false
}
