package record

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"termchess/engine"
	"termchess/engine/rules"
)

// playUCI applies moves given in UCI notation.
func playUCI(t *testing.T, r *rules.Rules, pos engine.Position, moves ...string) engine.Position {
	t.Helper()
	for _, s := range moves {
		var found bool
		for _, m := range r.LegalMoves(pos) {
			if m.UCI() == s {
				next, err := r.ApplyMove(pos, m)
				if err != nil {
					t.Fatalf("ApplyMove(%s): %v", s, err)
				}
				pos, found = next, true
				break
			}
		}
		if !found {
			t.Fatalf("move %s not legal", s)
		}
	}
	return pos
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

func TestNewGameRecord(t *testing.T) {
	r := rules.New()
	rec, err := NewGameRecord(t.TempDir(), r.InitialState(), engine.Players{WhiteHuman: true})
	if err != nil {
		t.Fatalf("NewGameRecord: %v", err)
	}
	defer rec.Close()

	s := readFile(t, rec.FilePath)
	for _, want := range []string{
		`[Event "termchess game"]`,
		`[White "Human"]`,
		`[Black "Computer"]`,
		`[Result "*"]`,
		`[GameId "` + rec.ID + `"]`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %s in\n%s", want, s)
		}
	}
	if strings.Contains(s, "[SetUp") || strings.Contains(s, "[FEN") {
		t.Errorf("standard start should not carry FEN tags")
	}
	if !strings.HasSuffix(strings.TrimSpace(s), "*") {
		t.Errorf("movetext should end with the result token")
	}
}

func TestFilenameFormat(t *testing.T) {
	r := rules.New()
	rec, err := NewGameRecord(t.TempDir(), r.InitialState(), engine.Players{})
	if err != nil {
		t.Fatalf("NewGameRecord: %v", err)
	}
	defer rec.Close()

	base := filepath.Base(rec.FilePath)
	if !strings.HasSuffix(base, "_"+rec.ID[:8]+".pgn") {
		t.Errorf("filename should end with the short game id, got %s", base)
	}
	if !strings.HasPrefix(base, "20") {
		t.Errorf("filename should start with year, got %s", base)
	}
}

func TestUpdateWritesMovesAndResult(t *testing.T) {
	r := rules.New()
	start := r.InitialState()
	rec, err := NewGameRecord(t.TempDir(), start, engine.Players{WhiteHuman: true, BlackHuman: true})
	if err != nil {
		t.Fatalf("NewGameRecord: %v", err)
	}
	defer rec.Close()

	pos := playUCI(t, r, start, "f2f3", "e7e5", "g2g4", "d8h4")
	if err := rec.Update(pos, engine.Players{WhiteHuman: true}, r.Outcome(pos)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	s := readFile(t, rec.FilePath)
	if !strings.Contains(s, "1. f3 e5 2. g4 Qh4") || !strings.HasSuffix(strings.TrimSpace(s), "0-1") {
		t.Errorf("unexpected movetext:\n%s", s)
	}
	if !strings.Contains(s, `[Result "0-1"]`) || !strings.Contains(s, `[Black "Computer"]`) {
		t.Errorf("tags not updated:\n%s", s)
	}
	if rec.Moves() != 4 {
		t.Errorf("expected 4 plies, got %d", rec.Moves())
	}
}

func TestUndoShrinksRecord(t *testing.T) {
	r := rules.New()
	start := r.InitialState()
	rec, err := NewGameRecord(t.TempDir(), start, engine.Players{})
	if err != nil {
		t.Fatalf("NewGameRecord: %v", err)
	}
	defer rec.Close()

	pos := playUCI(t, r, start, "e2e4", "e7e5")
	rec.Update(pos, engine.Players{}, r.Outcome(pos))
	pos = r.Undo(pos)
	rec.Update(pos, engine.Players{}, r.Outcome(pos))

	s := readFile(t, rec.FilePath)
	if got := fileMovetext(s); got != "1. e4 *" {
		t.Errorf("expected movetext %q, got %q", "1. e4 *", got)
	}
}

// fileMovetext returns the non-tag lines of a PGN file joined by spaces.
func fileMovetext(pgn string) string {
	var lines []string
	for _, line := range strings.Split(pgn, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, " ")
}

func TestCustomStartPosition(t *testing.T) {
	r := rules.New()
	fen := "4k3/8/8/8/8/8/4P3/4K3 b - - 0 12"
	start, err := r.FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	rec, err := NewGameRecord(t.TempDir(), start, engine.Players{})
	if err != nil {
		t.Fatalf("NewGameRecord: %v", err)
	}
	defer rec.Close()

	pos := playUCI(t, r, start, "e8d7", "e2e4")
	rec.Update(pos, engine.Players{}, r.Outcome(pos))
	s := readFile(t, rec.FilePath)
	if !strings.Contains(s, `[SetUp "1"]`) || !strings.Contains(s, `[FEN "`+start.FEN()+`"]`) {
		t.Errorf("missing setup tags:\n%s", s)
	}
	if !strings.Contains(s, "12... Kd7 13. e4 *") {
		t.Errorf("unexpected movetext:\n%s", s)
	}
}

func TestMovetextWraps(t *testing.T) {
	san := make([]string, 60)
	for i := range san {
		san[i] = "Nf3"
	}
	text := movetext(engine.StandardFEN, san, "*")
	for _, line := range strings.Split(text, "\n") {
		if len(line) > lineWidth {
			t.Fatalf("line longer than %d: %q", lineWidth, line)
		}
	}
	if !strings.HasPrefix(text, "1. Nf3 Nf3 2. Nf3") {
		t.Fatalf("unexpected numbering: %q", text[:20])
	}
}

func TestCloseIdempotent(t *testing.T) {
	r := rules.New()
	rec, err := NewGameRecord(t.TempDir(), r.InitialState(), engine.Players{})
	if err != nil {
		t.Fatalf("NewGameRecord: %v", err)
	}
	rec.Close()
	rec.Close()
	if err := rec.flush(); err == nil {
		t.Fatalf("expected an error writing a closed record")
	}
}

func TestCrashSafety(t *testing.T) {
	r := rules.New()
	start := r.InitialState()
	rec, err := NewGameRecord(t.TempDir(), start, engine.Players{})
	if err != nil {
		t.Fatalf("NewGameRecord: %v", err)
	}
	defer rec.Close()

	pos := playUCI(t, r, start, "d2d4")
	rec.Update(pos, engine.Players{}, r.Outcome(pos))

	// The file is complete after every update, without Close.
	info, err := ParseHeader(rec.FilePath)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if info.MoveCount != 1 || info.SAN[0] != "d4" {
		t.Fatalf("expected d4 recorded, got %v", info.SAN)
	}
}
