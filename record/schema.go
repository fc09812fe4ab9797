package record

import "time"

// GameRow is a row in the games table.
type GameRow struct {
	GameID     string    `db:"game_id"`
	StartTime  time.Time `db:"start_time_utc"`
	UpdateTime time.Time `db:"update_time_utc"`
	White      string    `db:"white"`
	Black      string    `db:"black"`
	Result     string    `db:"result"`
	InitialFEN string    `db:"initial_fen"`
	FinalFEN   string    `db:"final_fen"`
	MoveCount  int       `db:"move_count"`
	PGNPath    string    `db:"pgn_path"`
}

// MoveRow is a row in the moves table.
type MoveRow struct {
	GameID      string `db:"game_id"`
	MoveNumber  int    `db:"move_number"`
	MoveUCI     string `db:"move_uci"`
	SAN         string `db:"san"`
	PlayerColor string `db:"player_color"` // "w" or "b"
}

// Schema defines the SQLite archive.
const Schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	start_time_utc DATETIME NOT NULL,
	update_time_utc DATETIME NOT NULL,
	white TEXT NOT NULL,
	black TEXT NOT NULL,
	result TEXT NOT NULL DEFAULT '*',
	initial_fen TEXT NOT NULL,
	final_fen TEXT NOT NULL,
	move_count INTEGER NOT NULL DEFAULT 0,
	pgn_path TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS moves (
	game_id TEXT NOT NULL,
	move_number INTEGER NOT NULL,
	move_uci TEXT NOT NULL,
	san TEXT NOT NULL,
	player_color TEXT NOT NULL CHECK(player_color IN ('w', 'b')),
	FOREIGN KEY (game_id) REFERENCES games(game_id) ON DELETE CASCADE,
	UNIQUE(game_id, move_number)
);

CREATE INDEX IF NOT EXISTS idx_moves_game_id ON moves(game_id);
CREATE INDEX IF NOT EXISTS idx_games_start_time ON games(start_time_utc);
`
