package record

import (
	"os"
	"path/filepath"
	"testing"

	"termchess/engine"
	"termchess/engine/rules"
)

func writeTempPGN(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const samplePGN = `[Event "termchess game"]
[Site "termchess"]
[Date "2026.03.14"]
[White "Human"]
[Black "Computer \"deep\""]
[Result "1-0"]
[GameId "abc-123"]

1. e4 {best by test} e5 2. Nf3 (2. f4 exf4) Nc6 3. Bb5 $1 a6 1-0
`

func TestParseHeader(t *testing.T) {
	path := writeTempPGN(t, t.TempDir(), "game.pgn", samplePGN)
	info, err := ParseHeader(path)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if info.ID != "abc-123" || info.White != "Human" || info.Result != "1-0" {
		t.Errorf("unexpected tags: %+v", info)
	}
	if info.Black != `Computer "deep"` {
		t.Errorf("escaped tag value not decoded: %q", info.Black)
	}
	if info.Started.Year() != 2026 || info.Started.Month() != 3 {
		t.Errorf("date not parsed: %v", info.Started)
	}
	want := []string{"e4", "e5", "Nf3", "Nc6", "Bb5", "a6"}
	if len(info.SAN) != len(want) {
		t.Fatalf("expected %v, got %v", want, info.SAN)
	}
	for i := range want {
		if info.SAN[i] != want[i] {
			t.Errorf("move %d = %q, want %q", i, info.SAN[i], want[i])
		}
	}
	if info.StartFEN != engine.StandardFEN {
		t.Errorf("expected standard start, got %q", info.StartFEN)
	}
}

func TestParseHeaderMissingFile(t *testing.T) {
	if _, err := ParseHeader(filepath.Join(t.TempDir(), "missing.pgn")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestReplayToEnd(t *testing.T) {
	r := rules.New()
	path := writeTempPGN(t, t.TempDir(), "game.pgn", samplePGN)
	info, err := ParseHeader(path)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	pos, err := ReplayToEnd(info, r)
	if err != nil {
		t.Fatalf("ReplayToEnd: %v", err)
	}
	if got := len(pos.History()); got != 6 {
		t.Fatalf("expected 6 plies, got %d", got)
	}
	b := pos.Board()
	if p := b.At(engine.Square{Row: 3, Col: 1}); p.Kind != engine.Bishop || p.Side != engine.White {
		t.Fatalf("expected white bishop on b5, got %+v", p)
	}
}

func TestReplayRejectsIllegalMove(t *testing.T) {
	r := rules.New()
	info := &GameInfo{StartFEN: engine.StandardFEN, SAN: []string{"e4", "Ke3"}}
	pos, err := ReplayToEnd(info, r)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got := len(pos.History()); got != 1 {
		t.Fatalf("expected replay to stop after e4, got %d plies", got)
	}
}

func TestWriterThenReader(t *testing.T) {
	r := rules.New()
	start := r.InitialState()
	rec, err := NewGameRecord(t.TempDir(), start, engine.Players{WhiteHuman: true})
	if err != nil {
		t.Fatalf("NewGameRecord: %v", err)
	}
	defer rec.Close()

	pos := playUCI(t, r, start, "e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6", "e1g1")
	if err := rec.Update(pos, engine.Players{WhiteHuman: true}, r.Outcome(pos)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	info, err := ParseHeader(rec.FilePath)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if info.ID != rec.ID || info.MoveCount != 7 {
		t.Fatalf("unexpected info %+v", info)
	}
	replayed, err := ReplayToEnd(info, r)
	if err != nil {
		t.Fatalf("ReplayToEnd: %v", err)
	}
	if replayed.FEN() != pos.FEN() {
		t.Fatalf("replay mismatch:\n got %s\nwant %s", replayed.FEN(), pos.FEN())
	}
}

func TestListGames(t *testing.T) {
	dir := t.TempDir()
	writeTempPGN(t, dir, "2026-01-01_100000_aaaa.pgn", "[Result \"*\"]\n\n*\n")
	writeTempPGN(t, dir, "2026-01-02_100000_bbbb.pgn", "[Result \"1-0\"]\n\n1. e4 1-0\n")
	writeTempPGN(t, dir, "notes.txt", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "sub.pgn"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	games, err := ListGames(dir)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	if games[0].FileName != "2026-01-02_100000_bbbb.pgn" {
		t.Errorf("expected newest first, got %s", games[0].FileName)
	}
	if games[0].MoveCount != 1 {
		t.Errorf("expected 1 move, got %d", games[0].MoveCount)
	}
}

func TestListGamesNonexistentDir(t *testing.T) {
	games, err := ListGames(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if games != nil {
		t.Fatalf("expected no games")
	}
}

func TestParseMovetext(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1. e4 e5 *", 2},
		{"1.e4 e5 2.Nf3", 3},
		{"12... Kd7 13. e4 1/2-1/2", 2},
		{"1. e4 { a long comment } e5", 2},
		{"1. e4 ((1. d4 d5) 1. c4) e5 0-1", 2},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseMovetext(tt.in); len(got) != tt.want {
			t.Errorf("parseMovetext(%q) = %v, want %d moves", tt.in, got, tt.want)
		}
	}
}
