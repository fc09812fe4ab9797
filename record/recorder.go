package record

import (
	"time"

	"go.uber.org/zap"

	"termchess/engine"
)

// Recorder keeps the PGN file and the archive row of the current game up to date. Archive may be
// nil; the PGN file is always written.
type Recorder struct {
	dir     string
	archive *Archive
	logger  *zap.Logger
	current *GameRecord
}

func NewRecorder(dir string, archive *Archive, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{dir: dir, archive: archive, logger: logger}
}

// NewGame closes the previous record and starts a new file for a game beginning at start.
func (r *Recorder) NewGame(start engine.Position, players engine.Players) error {
	if r.current != nil {
		r.current.Close()
		r.current = nil
	}
	rec, err := NewGameRecord(r.dir, start, players)
	if err != nil {
		return err
	}
	r.current = rec
	r.logger.Info("game record started", zap.String("game_id", rec.ID), zap.String("path", rec.FilePath))
	r.archiveGame(start)
	return nil
}

// Record rewrites the current game's file and archive row.
func (r *Recorder) Record(pos engine.Position, players engine.Players, outcome engine.Outcome) error {
	if r.current == nil {
		if err := r.NewGame(pos, players); err != nil {
			return err
		}
	}
	if err := r.current.Update(pos, players, outcome); err != nil {
		return err
	}
	r.archiveGame(pos)
	return nil
}

// Current is the record being written, or nil before the first game.
func (r *Recorder) Current() *GameRecord {
	return r.current
}

// Close finishes the current record.
func (r *Recorder) Close() {
	if r.current != nil {
		r.current.Close()
		r.current = nil
	}
}

func (r *Recorder) archiveGame(pos engine.Position) {
	if r.archive == nil {
		return
	}
	rec := r.current
	history := pos.History()
	san := pos.SAN()
	moves := make([]MoveRow, 0, len(history))
	for i, m := range history {
		row := MoveRow{
			GameID:      rec.ID,
			MoveNumber:  i + 1,
			MoveUCI:     m.UCI(),
			PlayerColor: "w",
		}
		if m.Piece.Side == engine.Black {
			row.PlayerColor = "b"
		}
		if i < len(san) {
			row.SAN = san[i]
		}
		moves = append(moves, row)
	}
	r.archive.SaveGame(GameRow{
		GameID:     rec.ID,
		StartTime:  rec.Started,
		UpdateTime: time.Now(),
		White:      rec.White,
		Black:      rec.Black,
		Result:     rec.Result,
		InitialFEN: rec.StartFEN,
		FinalFEN:   pos.FEN(),
		MoveCount:  len(history),
		PGNPath:    rec.FilePath,
	}, moves)
}
