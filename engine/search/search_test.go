package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"go.uber.org/zap/zaptest"

	"termchess/engine"
	"termchess/engine/rules"
)

func TestFindsMateInOne(t *testing.T) {
	r := rules.New()
	pos, err := r.FromFEN("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	s := New(2, zaptest.NewLogger(t))
	m, ok, err := s.FindBestMove(context.Background(), pos, r.LegalMoves(pos))
	if err != nil {
		t.Fatalf("FindBestMove: %v", err)
	}
	if !ok {
		t.Fatalf("expected a move")
	}
	if m.UCI() != "a1a8" {
		t.Fatalf("expected a1a8, got %s", m.UCI())
	}
}

func TestTakesHangingQueen(t *testing.T) {
	r := rules.New()
	pos, err := r.FromFEN("4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	m, ok, err := New(2, nil).FindBestMove(context.Background(), pos, r.LegalMoves(pos))
	if err != nil || !ok {
		t.Fatalf("FindBestMove: ok=%v err=%v", ok, err)
	}
	if m.UCI() != "d2d5" {
		t.Fatalf("expected d2d5, got %s", m.UCI())
	}
}

func TestReturnedMoveIsFromLegalSet(t *testing.T) {
	r := rules.New()
	pos := r.InitialState()
	legal := r.LegalMoves(pos)
	m, ok, err := New(1, nil).FindBestMove(context.Background(), pos, legal)
	if err != nil || !ok {
		t.Fatalf("FindBestMove: ok=%v err=%v", ok, err)
	}
	if _, found := engine.Contains(legal, m); !found {
		t.Fatalf("move %s not in legal set", m.UCI())
	}
	if m.Piece.Empty() {
		t.Fatalf("expected board metadata on the returned move")
	}
}

func TestEmptyLegalSetYieldsNoMove(t *testing.T) {
	r := rules.New()
	_, ok, err := New(2, nil).FindBestMove(context.Background(), r.InitialState(), nil)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if ok {
		t.Fatalf("expected no move")
	}
}

func TestCancelledContext(t *testing.T) {
	r := rules.New()
	pos := r.InitialState()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := New(4, nil).FindBestMove(ctx, pos, r.LegalMoves(pos))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ok {
		t.Fatalf("expected no move after cancel")
	}
}

func TestCancelStopsDeepSearch(t *testing.T) {
	r := rules.New()
	pos := r.InitialState()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := New(12, nil).FindBestMove(ctx, pos, r.LegalMoves(pos))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("search ignored cancellation for %v", elapsed)
	}
}

func TestFindRandomMove(t *testing.T) {
	r := rules.New()
	pos := r.InitialState()
	legal := r.LegalMoves(pos)
	s := New(1, nil)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		m := s.FindRandomMove(legal)
		if _, ok := engine.Contains(legal, m); !ok {
			t.Fatalf("random move %s not legal", m.UCI())
		}
		seen[m.UCI()] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected variety from random selection, got %v", seen)
	}
}

func TestEvaluateIsSymmetric(t *testing.T) {
	b := dragontoothmg.ParseFen("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if got := evaluate(&b); got != 0 {
		t.Fatalf("expected 0 for the start position, got %d", got)
	}
	up := dragontoothmg.ParseFen("4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	if got := evaluate(&up); got < 800 {
		t.Fatalf("expected a queen up to score high, got %d", got)
	}
}
