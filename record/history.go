package record

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// History lists saved games for browsing. It prefers the archive and falls back to scanning the
// PGN directory when no archive is open.
type History struct {
	Dir     string
	Archive *Archive
}

// List returns the saved games, newest first.
func (h History) List(ctx context.Context) ([]GameInfo, error) {
	if h.Archive == nil {
		return ListGames(h.Dir)
	}
	h.Archive.Flush()
	rows, err := h.Archive.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	games := make([]GameInfo, 0, len(rows))
	for _, r := range rows {
		games = append(games, r.Info())
	}
	return games, nil
}

// Delete removes a game's PGN file and archive row.
func (h History) Delete(ctx context.Context, g GameInfo) error {
	if g.FilePath != "" {
		if err := os.Remove(g.FilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove pgn: %w", err)
		}
	}
	if h.Archive != nil && g.ID != "" {
		return h.Archive.DeleteGame(ctx, g.ID)
	}
	return nil
}

// Info converts an archive row into the listing form used by the history page.
func (g GameRow) Info() GameInfo {
	info := GameInfo{
		ID:        g.GameID,
		FilePath:  g.PGNPath,
		Started:   g.StartTime.Local(),
		Date:      g.StartTime.Local().Format("2006.01.02"),
		White:     g.White,
		Black:     g.Black,
		Result:    g.Result,
		StartFEN:  g.InitialFEN,
		FinalFEN:  g.FinalFEN,
		MoveCount: g.MoveCount,
	}
	if g.PGNPath != "" {
		info.FileName = filepath.Base(g.PGNPath)
	}
	return info
}
