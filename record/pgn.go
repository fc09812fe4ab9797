// Package record keeps finished and running games: a PGN file per game, rewritten after every
// change, and an optional SQLite archive used by the history page.
package record

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"termchess/engine"
)

const lineWidth = 80

// GameRecord tracks a game in progress and writes it as PGN.
type GameRecord struct {
	ID       string
	FilePath string
	Started  time.Time
	White    string
	Black    string
	Result   string
	StartFEN string
	san      []string
	file     *os.File
}

// NewGameRecord creates a new PGN file in dir and writes the initial tags.
func NewGameRecord(dir string, start engine.Position, players engine.Players) (*GameRecord, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	now := time.Now()
	id := uuid.NewString()
	filename := fmt.Sprintf("%s_%s.pgn", now.Format("2006-01-02_150405"), id[:8])
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create pgn file: %w", err)
	}

	rec := &GameRecord{
		ID:       id,
		FilePath: path,
		Started:  now,
		White:    players.Label(engine.White),
		Black:    players.Label(engine.Black),
		Result:   "*",
		StartFEN: start.StartFEN(),
		san:      start.SAN(),
		file:     f,
	}
	if err := rec.flush(); err != nil {
		f.Close()
		return nil, err
	}
	return rec, nil
}

// Update replaces the move list, players and result with the current state of the game.
func (r *GameRecord) Update(pos engine.Position, players engine.Players, outcome engine.Outcome) error {
	r.san = pos.SAN()
	r.White = players.Label(engine.White)
	r.Black = players.Label(engine.Black)
	r.Result = outcome.Result()
	return r.flush()
}

// Moves is the number of plies recorded.
func (r *GameRecord) Moves() int {
	return len(r.san)
}

// Close performs a final flush and closes the file handle.
func (r *GameRecord) Close() {
	if r.file == nil {
		return
	}
	r.flush()
	r.file.Close()
	r.file = nil
}

// flush rewrites the complete PGN file from scratch.
func (r *GameRecord) flush() error {
	if r.file == nil {
		return fmt.Errorf("file already closed")
	}

	var b strings.Builder
	writeTag(&b, "Event", "termchess game")
	writeTag(&b, "Site", "termchess")
	writeTag(&b, "Date", r.Started.Format("2006.01.02"))
	writeTag(&b, "Round", "-")
	writeTag(&b, "White", r.White)
	writeTag(&b, "Black", r.Black)
	writeTag(&b, "Result", r.Result)
	writeTag(&b, "GameId", r.ID)
	if r.StartFEN != engine.StandardFEN {
		writeTag(&b, "SetUp", "1")
		writeTag(&b, "FEN", r.StartFEN)
	}
	b.WriteString("\n")
	b.WriteString(movetext(r.StartFEN, r.san, r.Result))
	b.WriteString("\n")

	if _, err := r.file.Seek(0, 0); err != nil {
		return err
	}
	if err := r.file.Truncate(0); err != nil {
		return err
	}
	if _, err := r.file.WriteString(b.String()); err != nil {
		return err
	}
	return r.file.Sync()
}

func writeTag(b *strings.Builder, key, value string) {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	fmt.Fprintf(b, "[%s \"%s\"]\n", key, value)
}

// movetext numbers the SAN moves from the start position's move counter and wraps lines.
func movetext(startFEN string, san []string, result string) string {
	number, first := engine.MoveCounter(startFEN)
	blackFirst := first == engine.Black
	var tokens []string
	for i, m := range san {
		whiteMove := (i%2 == 0) != blackFirst
		switch {
		case whiteMove:
			tokens = append(tokens, strconv.Itoa(number)+".", m)
		case i == 0:
			tokens = append(tokens, strconv.Itoa(number)+"...", m)
			number++
		default:
			tokens = append(tokens, m)
			number++
		}
	}
	tokens = append(tokens, result)

	var b strings.Builder
	col := 0
	for i, tok := range tokens {
		if i > 0 {
			if col+1+len(tok) > lineWidth {
				b.WriteString("\n")
				col = 0
			} else {
				b.WriteString(" ")
				col++
			}
		}
		b.WriteString(tok)
		col += len(tok)
	}
	return b.String()
}
