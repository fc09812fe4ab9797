// Package controller owns the turn state of a game: it turns clicks into moves, runs the computer
// player's search in the background and sequences what the view shows after every change.
package controller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"termchess/engine"
)

// State is the controller's position in its turn cycle.
type State int

const (
	AwaitingInput State = iota
	SearchRunning
	GameOver
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting-input"
	case SearchRunning:
		return "search-running"
	case GameOver:
		return "game-over"
	}
	return "unknown"
}

// Options wires a Controller to its collaborators. Logger and Recorder may be nil.
type Options struct {
	Rules     engine.Rules
	Searcher  engine.Searcher
	Presenter Presenter
	Recorder  Recorder
	Logger    *zap.Logger
	Players   engine.Players
	// Start is the position Reset returns to; nil means the standard start position.
	Start engine.Position
}

// Controller is not safe for concurrent use; all methods must be called from the control loop.
type Controller struct {
	ctx      context.Context
	rules    engine.Rules
	searcher engine.Searcher
	view     Presenter
	recorder Recorder
	logger   *zap.Logger

	players engine.Players
	start   engine.Position
	pos     engine.Position
	legal   []engine.Move
	sel     Selection
	task    *SearchTask
	outcome engine.Outcome
	state   State

	// holdSearch skips the turn check for one Tick after an undo or reset.
	holdSearch bool
}

// New returns a controller at the start position. ctx bounds every search it launches.
func New(ctx context.Context, opt Options) *Controller {
	c := &Controller{
		ctx:      ctx,
		rules:    opt.Rules,
		searcher: opt.Searcher,
		view:     opt.Presenter,
		recorder: opt.Recorder,
		logger:   opt.Logger,
		players:  opt.Players,
		start:    opt.Start,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.start == nil {
		c.start = c.rules.InitialState()
	}
	c.startGame()
	return c
}

// Handle applies one command and reports whether the program should quit.
func (c *Controller) Handle(cmd Command) bool {
	switch cmd.Kind {
	case ClickSquare:
		c.click(cmd.Square)
	case ToggleHumanControl:
		c.players.Toggle(cmd.Side)
		c.logger.Info("control toggled",
			zap.Stringer("side", cmd.Side),
			zap.String("controller", c.players.Label(cmd.Side)),
		)
	case Undo:
		c.undo()
	case Reset:
		c.reset()
	case Quit:
		c.cancelSearch("quit")
		return true
	}
	return false
}

// Tick runs one iteration of the turn check: it starts a search when the computer is to move and
// harvests a finished one. It never blocks on the search.
func (c *Controller) Tick() {
	switch c.state {
	case GameOver:
		return
	case SearchRunning:
		c.pollSearch()
	case AwaitingInput:
		if c.holdSearch {
			c.holdSearch = false
			return
		}
		if c.players.Human(c.rules.SideToMove(c.pos)) {
			return
		}
		c.startSearch()
	}
}

// Draw pushes the current frame to the presenter, followed by the banner once the game is over.
func (c *Controller) Draw() {
	c.view.Redraw(c.Frame())
	if c.state == GameOver {
		c.view.ShowEndOfGame(c.outcome.Text())
	}
}

// Frame snapshots the state for drawing.
func (c *Controller) Frame() Frame {
	f := Frame{
		Position:  c.pos,
		Selection: c.sel.Squares(),
		Legal:     append([]engine.Move(nil), c.legal...),
		State:     c.state,
		Players:   c.players,
		Outcome:   c.outcome,
	}
	if h := c.pos.History(); len(h) > 0 {
		last := h[len(h)-1]
		f.LastMove = &last
	}
	return f
}

// closeWait bounds how long Close waits for a cancelled search to return.
const closeWait = 2 * time.Second

// Close cancels any running search and waits for its goroutine to exit, so the searcher can be
// shut down safely afterwards.
func (c *Controller) Close() {
	task := c.task
	c.cancelSearch("close")
	if task == nil {
		return
	}
	select {
	case <-task.Done():
	case <-time.After(closeWait):
		c.logger.Warn("search did not stop after cancel", zap.Duration("waited", closeWait))
	}
}

func (c *Controller) State() State              { return c.state }
func (c *Controller) Position() engine.Position { return c.pos }
func (c *Controller) Outcome() engine.Outcome   { return c.outcome }
func (c *Controller) Players() engine.Players   { return c.players }

// Legal returns a copy of the current legal move set.
func (c *Controller) Legal() []engine.Move {
	return append([]engine.Move(nil), c.legal...)
}

// Selection returns the pending squares.
func (c *Controller) Selection() []engine.Square {
	return c.sel.Squares()
}

func (c *Controller) click(sq engine.Square) {
	if c.state == GameOver {
		return
	}
	ev := c.sel.Select(sq)
	c.logger.Debug("click", zap.Stringer("square", sq), zap.Stringer("event", ev))
	if ev != CandidateReady {
		return
	}
	from, to, _ := c.sel.Candidate()
	if c.state != AwaitingInput || !c.players.Human(c.rules.SideToMove(c.pos)) {
		c.sel.Reject()
		return
	}
	m, ok := engine.Contains(c.legal, c.rules.MoveFor(c.pos, from, to))
	if !ok {
		c.sel.Reject()
		return
	}
	c.commit(m)
}

func (c *Controller) startSearch() {
	c.task = StartSearch(c.ctx, c.searcher, c.pos, c.legal)
	c.state = SearchRunning
	c.logger.Debug("search started",
		zap.Stringer("side", c.rules.SideToMove(c.pos)),
		zap.Int("legal", len(c.legal)),
	)
}

func (c *Controller) pollSearch() {
	r := c.task.Poll()
	var m engine.Move
	switch r.Status {
	case TaskRunning:
		return
	case TaskCancelled:
		c.task = nil
		c.state = AwaitingInput
		return
	case TaskFailed:
		c.logger.Error("search failed, playing a random move", zap.Error(r.Err))
		m = c.fallback()
	case TaskCompleted:
		lm, ok := engine.Contains(c.legal, r.Move)
		if r.HasMove && ok {
			m = lm
		} else {
			c.logger.Warn("search gave no usable move, playing a random move",
				zap.Bool("has_move", r.HasMove),
				zap.Stringer("move", r.Move),
			)
			m = c.fallback()
		}
	}
	c.task = nil
	c.state = AwaitingInput
	if len(c.legal) == 0 {
		return
	}
	c.commit(m)
}

func (c *Controller) fallback() engine.Move {
	if len(c.legal) == 0 {
		return engine.Move{}
	}
	return c.searcher.FindRandomMove(c.legal)
}

// commit applies a legal move and runs the follow-up: animation, fresh legal set, outcome.
func (c *Controller) commit(m engine.Move) {
	next, err := c.rules.ApplyMove(c.pos, m)
	if err != nil {
		c.logger.Error("apply move", zap.Stringer("move", m), zap.Error(err))
		c.sel.Clear()
		return
	}
	side := c.rules.SideToMove(c.pos)
	c.pos = next
	c.view.Animate(m, next)
	c.legal = c.rules.LegalMoves(c.pos)
	c.sel.Clear()
	c.setOutcome(c.rules.Outcome(c.pos))
	c.logger.Info("move applied",
		zap.Stringer("side", side),
		zap.Stringer("move", m),
		zap.Int("ply", len(next.History())),
	)
	c.record()
}

func (c *Controller) undo() {
	c.cancelSearch("undo")
	c.pos = c.rules.Undo(c.pos)
	c.legal = c.rules.LegalMoves(c.pos)
	c.sel.Clear()
	c.setOutcome(c.rules.Outcome(c.pos))
	c.holdSearch = true
	c.logger.Info("move undone", zap.Int("ply", len(c.pos.History())))
	c.record()
}

func (c *Controller) reset() {
	c.cancelSearch("reset")
	c.startGame()
	c.holdSearch = true
	c.logger.Info("game reset")
}

func (c *Controller) startGame() {
	c.pos = c.start
	c.legal = c.rules.LegalMoves(c.pos)
	c.sel.Clear()
	c.setOutcome(c.rules.Outcome(c.pos))
	if c.recorder != nil {
		if err := c.recorder.NewGame(c.start, c.players); err != nil {
			c.logger.Error("start game record", zap.Error(err))
		}
	}
}

// cancelSearch must run before the position changes so a late result can never be applied.
func (c *Controller) cancelSearch(reason string) {
	if c.task == nil {
		return
	}
	c.task.Cancel()
	c.task = nil
	if c.state == SearchRunning {
		c.state = AwaitingInput
	}
	c.logger.Debug("search cancelled", zap.String("reason", reason))
}

func (c *Controller) setOutcome(o engine.Outcome) {
	c.outcome = o
	if o.Over() {
		c.state = GameOver
		c.logger.Info("game over", zap.String("result", o.Text()))
		return
	}
	c.state = AwaitingInput
}

func (c *Controller) record() {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(c.pos, c.players, c.outcome); err != nil {
		c.logger.Error("record game", zap.Error(err))
	}
}
