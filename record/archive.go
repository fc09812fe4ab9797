package record

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type writeOp struct {
	fn   func(*sql.Tx) error
	done chan struct{}
}

// Archive stores game summaries in SQLite. Writes are queued to a single writer goroutine so the
// control loop never waits on the disk; a failed write marks the archive degraded and later writes
// are dropped.
type Archive struct {
	db           *sql.DB
	path         string
	logger       *zap.Logger
	writeChan    chan writeOp
	healthStatus atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// OpenArchive opens (creating if needed) the archive at path and starts its writer.
func OpenArchive(path string, logger *zap.Logger) (*Archive, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithCancel(context.Background())
	a := &Archive{
		db:        db,
		path:      path,
		logger:    logger.With(zap.String("archive", path)),
		writeChan: make(chan writeOp, 256),
		ctx:       ctx,
		cancel:    cancel,
	}
	if err := a.initDB(); err != nil {
		cancel()
		db.Close()
		return nil, err
	}
	a.healthStatus.Store(true)

	a.wg.Add(1)
	go a.writerLoop()
	return a, nil
}

func (a *Archive) initDB() error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return tx.Commit()
}

func (a *Archive) writerLoop() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			for {
				select {
				case op := <-a.writeChan:
					a.run(op)
				default:
					return
				}
			}
		case op := <-a.writeChan:
			a.run(op)
		}
	}
}

func (a *Archive) run(op writeOp) {
	if op.fn != nil && a.healthStatus.Load() {
		a.executeWrite(op.fn)
	}
	if op.done != nil {
		close(op.done)
	}
}

func (a *Archive) executeWrite(fn func(*sql.Tx) error) {
	tx, err := a.db.Begin()
	if err != nil {
		a.logger.Error("archive degraded: failed to begin transaction", zap.Error(err))
		a.healthStatus.Store(false)
		return
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		a.logger.Error("archive degraded: write failed", zap.Error(err))
		a.healthStatus.Store(false)
		return
	}
	if err := tx.Commit(); err != nil {
		a.logger.Error("archive degraded: failed to commit", zap.Error(err))
		a.healthStatus.Store(false)
	}
}

func (a *Archive) enqueue(op writeOp, what string) {
	select {
	case a.writeChan <- op:
	default:
		a.logger.Warn("archive write queue full, dropping write", zap.String("op", what))
		if op.done != nil {
			close(op.done)
		}
	}
}

// SaveGame queues an upsert of the game row and a replacement of its move list.
func (a *Archive) SaveGame(game GameRow, moves []MoveRow) {
	if !a.healthStatus.Load() {
		return
	}
	moves = append([]MoveRow(nil), moves...)
	a.enqueue(writeOp{fn: func(tx *sql.Tx) error {
		query := `INSERT INTO games (
			game_id, start_time_utc, update_time_utc, white, black, result,
			initial_fen, final_fen, move_count, pgn_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			update_time_utc = excluded.update_time_utc,
			white = excluded.white,
			black = excluded.black,
			result = excluded.result,
			final_fen = excluded.final_fen,
			move_count = excluded.move_count,
			pgn_path = excluded.pgn_path`

		_, err := tx.Exec(query,
			game.GameID, game.StartTime.UTC(), game.UpdateTime.UTC(), game.White, game.Black, game.Result,
			game.InitialFEN, game.FinalFEN, game.MoveCount, game.PGNPath,
		)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM moves WHERE game_id = ?`, game.GameID); err != nil {
			return err
		}
		for _, m := range moves {
			_, err := tx.Exec(`INSERT INTO moves (
				game_id, move_number, move_uci, san, player_color
			) VALUES (?, ?, ?, ?, ?)`, m.GameID, m.MoveNumber, m.MoveUCI, m.SAN, m.PlayerColor)
			if err != nil {
				return err
			}
		}
		return nil
	}}, "save game")
}

// Flush blocks until every write queued before it has been applied.
func (a *Archive) Flush() {
	done := make(chan struct{})
	a.enqueue(writeOp{done: done}, "flush")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		a.logger.Warn("archive flush timed out")
	}
}

// IsHealthy reports whether writes are still being applied.
func (a *Archive) IsHealthy() bool {
	return a.healthStatus.Load()
}

// ListGames returns every archived game, newest first.
func (a *Archive) ListGames(ctx context.Context) ([]GameRow, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT
		game_id, start_time_utc, update_time_utc, white, black, result,
		initial_fen, final_fen, move_count, pgn_path
	FROM games ORDER BY start_time_utc DESC`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRow
	for rows.Next() {
		var g GameRow
		err := rows.Scan(
			&g.GameID, &g.StartTime, &g.UpdateTime, &g.White, &g.Black, &g.Result,
			&g.InitialFEN, &g.FinalFEN, &g.MoveCount, &g.PGNPath,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return games, nil
}

// Moves returns the recorded moves of one game in play order.
func (a *Archive) Moves(ctx context.Context, gameID string) ([]MoveRow, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT game_id, move_number, move_uci, san, player_color
	FROM moves WHERE game_id = ? ORDER BY move_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRow
	for rows.Next() {
		var m MoveRow
		if err := rows.Scan(&m.GameID, &m.MoveNumber, &m.MoveUCI, &m.SAN, &m.PlayerColor); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return moves, nil
}

// DeleteGame removes a game and its moves. Pending writes are applied first.
func (a *Archive) DeleteGame(ctx context.Context, gameID string) error {
	a.Flush()
	if _, err := a.db.ExecContext(ctx, `DELETE FROM games WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}

// Close drains the write queue and closes the database.
func (a *Archive) Close() error {
	a.cancel()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		a.logger.Warn("archive writer shutdown timeout, some writes may be lost")
	}

	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
