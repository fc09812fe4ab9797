package controller

import (
	"context"
	"fmt"

	"termchess/engine"
)

// TaskStatus is the state reported by SearchTask.Poll.
type TaskStatus int

const (
	TaskRunning TaskStatus = iota
	// TaskCompleted means the searcher returned; PollResult.HasMove tells whether it found a move.
	TaskCompleted
	// TaskFailed means the searcher returned an error or panicked.
	TaskFailed
	// TaskCancelled means Cancel was called. A cancelled task never reports its result.
	TaskCancelled
)

func (s TaskStatus) String() string {
	switch s {
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskCancelled:
		return "cancelled"
	}
	return "unknown"
}

// PollResult is a snapshot of a task.
type PollResult struct {
	Status  TaskStatus
	Move    engine.Move
	HasMove bool
	Err     error
}

type taskResult struct {
	move engine.Move
	ok   bool
	err  error
}

// SearchTask runs one Searcher.FindBestMove call in its own goroutine. Poll and Cancel are meant to
// be called from a single control goroutine.
type SearchTask struct {
	cancel    context.CancelFunc
	result    chan taskResult
	done      chan struct{}
	final     *PollResult
	cancelled bool
}

// StartSearch launches a search on a snapshot of legal and returns immediately.
func StartSearch(ctx context.Context, s engine.Searcher, pos engine.Position, legal []engine.Move) *SearchTask {
	ctx, cancel := context.WithCancel(ctx)
	t := &SearchTask{
		cancel: cancel,
		result: make(chan taskResult, 1),
		done:   make(chan struct{}),
	}
	snapshot := append([]engine.Move(nil), legal...)
	go func() {
		var res taskResult
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				res = taskResult{err: fmt.Errorf("search panicked: %v", r)}
			}
			t.result <- res
		}()
		m, ok, err := s.FindBestMove(ctx, pos, snapshot)
		res = taskResult{move: m, ok: ok, err: err}
	}()
	return t
}

// Poll reports the task state without blocking. The result channel is drained at most once; later
// polls return the cached outcome.
func (t *SearchTask) Poll() PollResult {
	if t.cancelled {
		return PollResult{Status: TaskCancelled}
	}
	if t.final != nil {
		return *t.final
	}
	select {
	case r := <-t.result:
		var pr PollResult
		if r.err != nil {
			pr = PollResult{Status: TaskFailed, Err: r.err}
		} else {
			pr = PollResult{Status: TaskCompleted, Move: r.move, HasMove: r.ok}
		}
		t.final = &pr
		t.cancel()
		return pr
	default:
		return PollResult{Status: TaskRunning}
	}
}

// Cancel stops the search. It is safe to call more than once and on a finished task.
func (t *SearchTask) Cancel() {
	if t.cancelled {
		return
	}
	t.cancelled = true
	t.cancel()
}

// Done is closed once the search goroutine has exited.
func (t *SearchTask) Done() <-chan struct{} {
	return t.done
}
