package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"termchess/engine"
	"termchess/engine/rules"
)

// fakeSearcher blocks each search on release (when set) and then answers with reply.
type fakeSearcher struct {
	mu           sync.Mutex
	calls        int
	randomCalls  int
	cancelSeen   int
	release      chan struct{}
	ignoreCancel bool
	reply        func(legal []engine.Move) (engine.Move, bool, error)
	started      chan struct{}
	returned     chan struct{}
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		reply: func(legal []engine.Move) (engine.Move, bool, error) {
			return legal[0], true, nil
		},
		started:  make(chan struct{}, 64),
		returned: make(chan struct{}, 64),
	}
}

func (s *fakeSearcher) FindBestMove(ctx context.Context, pos engine.Position, legal []engine.Move) (engine.Move, bool, error) {
	s.mu.Lock()
	s.calls++
	release := s.release
	s.mu.Unlock()
	s.started <- struct{}{}
	defer func() { s.returned <- struct{}{} }()

	if release != nil {
		if s.ignoreCancel {
			<-release
		} else {
			select {
			case <-release:
			case <-ctx.Done():
				s.mu.Lock()
				s.cancelSeen++
				s.mu.Unlock()
				return engine.Move{}, false, ctx.Err()
			}
		}
	}
	return s.reply(legal)
}

func (s *fakeSearcher) FindRandomMove(legal []engine.Move) engine.Move {
	s.mu.Lock()
	s.randomCalls++
	s.mu.Unlock()
	return legal[len(legal)-1]
}

func (s *fakeSearcher) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeSearcher) RandomCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.randomCalls
}

// waitStarted blocks until one more FindBestMove call has begun.
func (s *fakeSearcher) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-s.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("search never started")
	}
}

// waitReturned blocks until one FindBestMove call has returned.
func (s *fakeSearcher) waitReturned(t *testing.T) {
	t.Helper()
	select {
	case <-s.returned:
	case <-time.After(2 * time.Second):
		t.Fatalf("search never returned")
	}
}

type fakePresenter struct {
	redraws  int
	animated []engine.Move
	banners  []string
	last     Frame
}

func (p *fakePresenter) Redraw(f Frame) {
	p.redraws++
	p.last = f
}

func (p *fakePresenter) Animate(m engine.Move, after engine.Position) {
	p.animated = append(p.animated, m)
}

func (p *fakePresenter) ShowEndOfGame(text string) {
	p.banners = append(p.banners, text)
}

type fakeRecorder struct {
	games   int
	records int
	last    engine.Outcome
	fail    bool
}

func (r *fakeRecorder) NewGame(start engine.Position, players engine.Players) error {
	r.games++
	return nil
}

func (r *fakeRecorder) Record(pos engine.Position, players engine.Players, outcome engine.Outcome) error {
	r.records++
	r.last = outcome
	if r.fail {
		return errors.New("disk full")
	}
	return nil
}

type harness struct {
	c        *Controller
	searcher *fakeSearcher
	view     *fakePresenter
	recorder *fakeRecorder
}

func newHarness(t *testing.T, players engine.Players) *harness {
	t.Helper()
	h := &harness{
		searcher: newFakeSearcher(),
		view:     &fakePresenter{},
		recorder: &fakeRecorder{},
	}
	h.c = New(context.Background(), Options{
		Rules:     rules.New(),
		Searcher:  h.searcher,
		Presenter: h.view,
		Recorder:  h.recorder,
		Logger:    zaptest.NewLogger(t),
		Players:   players,
	})
	t.Cleanup(h.c.Close)
	return h
}

// click issues a click on an algebraic square such as "e2".
func (h *harness) click(t *testing.T, s string) {
	t.Helper()
	sq, err := engine.ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	h.c.Handle(Click(sq.Row, sq.Col))
}

func (h *harness) play(t *testing.T, moves ...string) {
	t.Helper()
	for _, m := range moves {
		h.click(t, m[0:2])
		h.click(t, m[2:4])
	}
}

// tickUntil ticks the controller until it reaches want.
func (h *harness) tickUntil(t *testing.T, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.c.Tick()
		if h.c.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("controller stuck in %v, want %v", h.c.State(), want)
}

func plies(c *Controller) int {
	return len(c.Position().History())
}
