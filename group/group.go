// Package group runs several independent resumable tasks concurrently,
// each under its own policy, handle, and attempt history.
//
// This is the supported form of parallelism: distinct tasks side by side.
// A single task is never executed concurrently with itself — its resumable
// checkpoint has exactly one writer.
package group

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aponysus/reprise/observe"
	"github.com/aponysus/reprise/policy"
	"github.com/aponysus/reprise/retry"
	"github.com/aponysus/reprise/runner"
)

// Task pairs a runner and handle with the key that selects its policy.
type Task struct {
	Key    policy.TaskKey
	Runner runner.Runner
	Handle runner.Handle
}

// TaskResult is the terminal verdict of one task in the group.
type TaskResult struct {
	Key     policy.TaskKey
	OK      bool
	Payload any
	Stats   observe.ExecutionStats
	Err     error
}

// Group orchestrates a set of independent tasks concurrently.
type Group struct {
	orch *retry.Orchestrator

	eg    *errgroup.Group
	egCtx context.Context

	mu      sync.Mutex
	results []TaskResult
}

// GroupOption configures a Group.
type GroupOption func(*Group)

// WithLimit bounds the number of tasks running concurrently.
func WithLimit(n int) GroupOption {
	return func(g *Group) {
		g.eg.SetLimit(n)
	}
}

// New creates a Group executing on o (the default orchestrator when nil).
// Tasks inherit cancellation from ctx: cancelling it aborts every task's
// backoff sleeps and pending attempts.
func New(ctx context.Context, o *retry.Orchestrator, opts ...GroupOption) *Group {
	if ctx == nil {
		ctx = context.Background()
	}
	if o == nil {
		o = retry.Default()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	g := &Group{
		orch:  o,
		eg:    eg,
		egCtx: egCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Go schedules t. Results are collected in completion order; a failed task
// does not cancel its siblings (task failure is a verdict, not an error).
func (g *Group) Go(t Task) {
	g.eg.Go(func() error {
		ok, payload, stats, err := g.orch.Execute(g.egCtx, t.Key, t.Runner, t.Handle)

		g.mu.Lock()
		g.results = append(g.results, TaskResult{
			Key:     t.Key,
			OK:      ok,
			Payload: payload,
			Stats:   stats,
			Err:     err,
		})
		g.mu.Unlock()
		return nil
	})
}

// Wait blocks until every scheduled task reaches a terminal state and
// returns their results.
func (g *Group) Wait() []TaskResult {
	_ = g.eg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]TaskResult, len(g.results))
	copy(out, g.results)
	return out
}
