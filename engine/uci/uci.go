// Package uci drives an external chess engine over the UCI protocol and exposes it as an
// engine.Searcher.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"termchess/engine"
)

const handshakeTimeout = 5 * time.Second

// Options configures the external engine.
type Options struct {
	Path       string
	Args       []string
	Depth      int
	MoveTimeMs int
}

// Engine implements engine.Searcher with a UCI subprocess. The process is started lazily and
// killed when a search is cancelled; the next search starts a fresh one.
type Engine struct {
	opt    Options
	logger *zap.Logger

	mu   sync.Mutex
	proc *process
}

type process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	done  chan struct{}
}

// New returns an engine that has not been started yet.
func New(opt Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opt: opt, logger: logger.With(zap.String("engine", opt.Path))}
}

// Check starts the engine and completes the handshake, reporting a missing or broken binary early.
func (e *Engine) Check(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.ensure(ctx)
	return err
}

// FindBestMove asks the engine for a move on pos. Cancelling ctx kills the engine process.
func (e *Engine) FindBestMove(ctx context.Context, pos engine.Position, legal []engine.Move) (engine.Move, bool, error) {
	if len(legal) == 0 {
		return engine.Move{}, false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.ensure(ctx)
	if err != nil {
		return engine.Move{}, false, err
	}
	if err := p.send(buildPositionCommand(pos.FEN())); err != nil {
		e.kill()
		return engine.Move{}, false, fmt.Errorf("send position: %w", err)
	}
	if err := p.send(buildGoCommand(e.opt.Depth, e.opt.MoveTimeMs)); err != nil {
		e.kill()
		return engine.Move{}, false, fmt.Errorf("send go: %w", err)
	}
	e.logger.Debug("uci search started", zap.String("fen", pos.FEN()))

	for {
		select {
		case <-ctx.Done():
			e.logger.Debug("uci search cancelled, killing engine")
			e.kill()
			return engine.Move{}, false, ctx.Err()
		case line, ok := <-p.lines:
			if !ok {
				e.kill()
				return engine.Move{}, false, fmt.Errorf("engine exited during search")
			}
			best, found := parseBestMove(line)
			if !found {
				continue
			}
			if best == "" {
				return engine.Move{}, false, nil
			}
			for _, m := range legal {
				if m.UCI() == best {
					return m, true, nil
				}
			}
			e.logger.Warn("engine returned a move outside the legal set", zap.String("move", best))
			return engine.Move{}, false, nil
		}
	}
}

// FindRandomMove picks uniformly among legal.
func (e *Engine) FindRandomMove(legal []engine.Move) engine.Move {
	return legal[rand.IntN(len(legal))]
}

// Close asks the engine to quit and reaps it.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.proc == nil {
		return
	}
	e.proc.send("quit")
	done := make(chan struct{})
	go func(cmd *exec.Cmd) {
		cmd.Wait()
		close(done)
	}(e.proc.cmd)
	select {
	case <-done:
	case <-time.After(time.Second):
		e.proc.cmd.Process.Kill()
	}
	close(e.proc.done)
	e.proc = nil
}

func (e *Engine) ensure(ctx context.Context) (*process, error) {
	if e.proc != nil {
		return e.proc, nil
	}
	cmd := exec.Command(e.opt.Path, e.opt.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}

	p := &process{cmd: cmd, stdin: stdin, lines: make(chan string, 64), done: make(chan struct{})}
	go func() {
		defer close(p.lines)
		sc := bufio.NewScanner(stdout)
		for sc.Scan() {
			select {
			case p.lines <- strings.TrimRight(sc.Text(), "\r"):
			case <-p.done:
				return
			}
		}
	}()
	e.proc = p

	hctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	if err := e.handshake(hctx, p); err != nil {
		e.kill()
		return nil, err
	}
	e.logger.Info("uci engine started", zap.Int("pid", cmd.Process.Pid))
	return p, nil
}

func (e *Engine) handshake(ctx context.Context, p *process) error {
	if err := p.send("uci"); err != nil {
		return fmt.Errorf("send uci: %w", err)
	}
	if err := p.waitFor(ctx, "uciok"); err != nil {
		return fmt.Errorf("uci handshake: %w", err)
	}
	if err := p.send("isready"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := p.waitFor(ctx, "readyok"); err != nil {
		return fmt.Errorf("isready: %w", err)
	}
	return nil
}

// kill terminates the process without waiting for bestmove. Callers hold e.mu.
func (e *Engine) kill() {
	if e.proc == nil {
		return
	}
	p := e.proc
	e.proc = nil
	close(p.done)
	p.stdin.Close()
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	go p.cmd.Wait()
}

func (p *process) send(cmd string) error {
	_, err := fmt.Fprintf(p.stdin, "%s\n", cmd)
	return err
}

func (p *process) waitFor(ctx context.Context, token string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-p.lines:
			if !ok {
				return fmt.Errorf("engine exited before %s", token)
			}
			if strings.TrimSpace(line) == token {
				return nil
			}
		}
	}
}

func buildPositionCommand(fen string) string {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "startpos" {
		return "position startpos"
	}
	return "position fen " + fen
}

func buildGoCommand(depth, moveTimeMs int) string {
	args := []string{"go"}
	if depth > 0 {
		args = append(args, "depth", strconv.Itoa(depth))
	}
	if moveTimeMs > 0 {
		args = append(args, "movetime", strconv.Itoa(moveTimeMs))
	}
	if len(args) == 1 {
		args = append(args, "movetime", "1000")
	}
	return strings.Join(args, " ")
}

// parseBestMove extracts the move from a "bestmove" line. found is false for other lines; an empty
// move with found=true means the engine had nothing to play.
func parseBestMove(line string) (move string, found bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "bestmove" {
		return "", false
	}
	if len(fields) < 2 || fields[1] == "(none)" || fields[1] == "0000" {
		return "", true
	}
	return strings.ToLower(fields[1]), true
}
