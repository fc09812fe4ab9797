package record

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"termchess/controller"
	"termchess/engine"
	"termchess/engine/rules"
)

var _ controller.Recorder = (*Recorder)(nil)

func TestRecorderWritesPGNAndArchive(t *testing.T) {
	dir := t.TempDir()
	a := openTestArchive(t, filepath.Join(dir, "archive.db"))
	defer a.Close()
	rec := NewRecorder(filepath.Join(dir, "games"), a, zaptest.NewLogger(t))
	defer rec.Close()

	r := rules.New()
	start := r.InitialState()
	players := engine.Players{WhiteHuman: true}
	if err := rec.NewGame(start, players); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	pos := playUCI(t, r, start, "e2e4", "c7c5")
	if err := rec.Record(pos, players, r.Outcome(pos)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	a.Flush()

	info, err := ParseHeader(rec.Current().FilePath)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if info.MoveCount != 2 || info.White != "Human" || info.Black != "Computer" {
		t.Fatalf("unexpected pgn info %+v", info)
	}

	games, err := a.ListGames(context.Background())
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 archived game, got %d", len(games))
	}
	g := games[0]
	if g.GameID != info.ID || g.MoveCount != 2 || g.FinalFEN != pos.FEN() || g.PGNPath != info.FilePath {
		t.Fatalf("archive row out of sync: %+v", g)
	}
	moves, err := a.Moves(context.Background(), g.GameID)
	if err != nil {
		t.Fatalf("Moves: %v", err)
	}
	if len(moves) != 2 || moves[1].PlayerColor != "b" || moves[1].MoveUCI != "c7c5" {
		t.Fatalf("unexpected moves %+v", moves)
	}
}

func TestRecorderNewGameStartsNewFile(t *testing.T) {
	dir := t.TempDir()
	rec := NewRecorder(dir, nil, nil)
	defer rec.Close()

	r := rules.New()
	if err := rec.NewGame(r.InitialState(), engine.Players{}); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	first := rec.Current().FilePath
	if err := rec.NewGame(r.InitialState(), engine.Players{}); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if rec.Current().FilePath == first {
		t.Fatalf("expected a new file per game")
	}
	games, err := ListGames(dir)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 records, got %d", len(games))
	}
}

func TestRecordWithoutNewGame(t *testing.T) {
	rec := NewRecorder(t.TempDir(), nil, nil)
	defer rec.Close()
	r := rules.New()
	pos := playUCI(t, r, r.InitialState(), "g1f3")
	if err := rec.Record(pos, engine.Players{}, r.Outcome(pos)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	info, err := ParseHeader(rec.Current().FilePath)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if info.MoveCount != 1 {
		t.Fatalf("expected 1 move, got %d", info.MoveCount)
	}
}
