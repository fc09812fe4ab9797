package record

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"termchess/engine"
)

// GameInfo holds what the history page shows about one saved game.
type GameInfo struct {
	ID        string
	FilePath  string
	FileName  string
	Date      string
	Started   time.Time
	White     string
	Black     string
	Result    string
	StartFEN  string
	FinalFEN  string // set for archived games only
	MoveCount int
	SAN       []string
}

// ParseHeader reads a PGN file and extracts its tag pairs and SAN move list.
func ParseHeader(filePath string) (*GameInfo, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	tags, body := splitPGN(string(data))
	san := parseMovetext(body)

	info := &GameInfo{
		ID:        tags["GameId"],
		FilePath:  filePath,
		FileName:  filepath.Base(filePath),
		Date:      tags["Date"],
		White:     tags["White"],
		Black:     tags["Black"],
		Result:    tags["Result"],
		StartFEN:  tags["FEN"],
		MoveCount: len(san),
		SAN:       san,
	}
	if info.StartFEN == "" {
		info.StartFEN = engine.StandardFEN
	}
	if t, err := time.ParseInLocation("2006.01.02", info.Date, time.Local); err == nil {
		info.Started = t
	}
	return info, nil
}

// ReplayToEnd plays the recorded SAN moves from the start position and returns the final position.
func ReplayToEnd(info *GameInfo, rules engine.Rules) (engine.Position, error) {
	pos, err := rules.FromFEN(info.StartFEN)
	if err != nil {
		return nil, err
	}
	for i, want := range info.SAN {
		next, ok := applySAN(rules, pos, want)
		if !ok {
			return pos, fmt.Errorf("move %d %q: %w", i+1, want, engine.ErrIllegalMove)
		}
		pos = next
	}
	return pos, nil
}

func applySAN(rules engine.Rules, pos engine.Position, want string) (engine.Position, bool) {
	want = strings.TrimRight(want, "+#!?")
	for _, m := range rules.LegalMoves(pos) {
		next, err := rules.ApplyMove(pos, m)
		if err != nil {
			continue
		}
		san := next.SAN()
		if strings.TrimRight(san[len(san)-1], "+#!?") == want {
			return next, true
		}
	}
	return nil, false
}

// ListGames scans a directory for .pgn files and returns their parsed headers, newest first (by
// filename, which starts with a timestamp).
func ListGames(dir string) ([]GameInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history dir: %w", err)
	}

	var games []GameInfo
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pgn") {
			continue
		}
		info, err := ParseHeader(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		games = append(games, *info)
	}
	return games, nil
}

// splitPGN separates the tag section from the movetext.
func splitPGN(content string) (map[string]string, string) {
	tags := make(map[string]string)
	var body strings.Builder
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if k, v, ok := parseTag(line[1 : len(line)-1]); ok {
				tags[k] = v
			}
			continue
		}
		body.WriteString(line)
		body.WriteString(" ")
	}
	return tags, body.String()
}

// parseTag reads `Key "Value"` with backslash escapes.
func parseTag(s string) (string, string, bool) {
	sp := strings.IndexByte(s, ' ')
	if sp <= 0 {
		return "", "", false
	}
	key := s[:sp]
	rest := strings.TrimSpace(s[sp+1:])
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return "", "", false
	}
	v, err := strconv.Unquote(rest)
	if err != nil {
		v = rest[1 : len(rest)-1]
	}
	return key, v, true
}

// parseMovetext returns the SAN tokens, skipping move numbers, comments, variations and the result.
func parseMovetext(body string) []string {
	var san []string
	depth := 0
	inComment := false
	for _, tok := range strings.Fields(body) {
		if inComment {
			if strings.Contains(tok, "}") {
				inComment = false
			}
			continue
		}
		if strings.HasPrefix(tok, "{") {
			inComment = !strings.Contains(tok, "}")
			continue
		}
		depth += strings.Count(tok, "(")
		if depth > 0 {
			depth -= strings.Count(tok, ")")
			continue
		}
		switch tok {
		case "1-0", "0-1", "1/2-1/2", "*":
			continue
		}
		if strings.HasPrefix(tok, "$") {
			continue
		}
		if i := strings.LastIndex(tok, "."); i >= 0 {
			tok = tok[i+1:]
		}
		if tok == "" {
			continue
		}
		san = append(san, tok)
	}
	return san
}
