package record

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"termchess/engine"
	"termchess/engine/rules"
)

func TestHistoryFromDirectory(t *testing.T) {
	dir := t.TempDir()
	rec := NewRecorder(dir, nil, nil)
	r := rules.New()
	if err := rec.NewGame(r.InitialState(), engine.Players{WhiteHuman: true}); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	rec.Close()

	h := History{Dir: dir}
	games, err := h.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(games) != 1 || games[0].FinalFEN != "" {
		t.Fatalf("unexpected listing %+v", games)
	}
	if err := h.Delete(context.Background(), games[0]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(games[0].FilePath); !os.IsNotExist(err) {
		t.Fatalf("pgn file not removed: %v", err)
	}
}

func TestHistoryFromArchive(t *testing.T) {
	dir := t.TempDir()
	a := openTestArchive(t, filepath.Join(dir, "archive.db"))
	defer a.Close()
	rec := NewRecorder(filepath.Join(dir, "games"), a, nil)
	defer rec.Close()

	r := rules.New()
	start := r.InitialState()
	if err := rec.NewGame(start, engine.Players{}); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	pos := playUCI(t, r, start, "d2d4", "d7d5")
	if err := rec.Record(pos, engine.Players{}, r.Outcome(pos)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	h := History{Dir: filepath.Join(dir, "games"), Archive: a}
	games, err := h.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(games))
	}
	g := games[0]
	if g.FinalFEN != pos.FEN() || g.MoveCount != 2 || g.FileName == "" {
		t.Fatalf("unexpected info %+v", g)
	}

	if err := h.Delete(context.Background(), g); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	games, _ = h.List(context.Background())
	if len(games) != 0 {
		t.Fatalf("expected the game gone, got %d", len(games))
	}
}
