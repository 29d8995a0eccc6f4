// Package runner defines the contract between the retry orchestrator and
// the external, resumable unit of work it drives.
//
// The orchestrator never executes tasks and never persists progress. Both
// belong to the Runner: it owns execution, and whatever checkpoint
// mechanism lets a later attempt continue where a prior one left off. The
// orchestrator only holds an opaque Handle long enough to pass it back on
// each attempt.
package runner

import (
	"context"

	"github.com/google/uuid"
)

// Handle is an opaque reference to one resumable task.
//
// The caller creates and owns the Handle; the orchestrator borrows it for
// the duration of one execution and never mutates it. ThreadID is the
// stable identity the runner's checkpoint mechanism keys progress on.
type Handle struct {
	// ThreadID identifies the checkpoint thread for this task.
	ThreadID string

	// Input is the initial input for the first attempt. Resume attempts
	// ignore it; the runner continues from its last checkpoint instead.
	Input any

	// Meta carries caller metadata the orchestrator passes through untouched.
	Meta map[string]string
}

// NewHandle returns a Handle with a fresh thread ID and the given input.
func NewHandle(input any) Handle {
	return Handle{
		ThreadID: uuid.NewString(),
		Input:    input,
	}
}

// Result describes what one runner invocation did. It exposes exactly the
// signals outcome classification needs: a completion flag, a pending-work
// flag, an awaiting-input flag, and an error.
type Result struct {
	// Done reports that the task fully completed with no pending work.
	Done bool

	// Pending reports that the runner stopped with unfinished work still
	// recorded in its resumable state (more steps remain).
	Pending bool

	// AwaitingInput reports that the task is blocked on external
	// human/caller input and must not be blindly re-invoked.
	AwaitingInput bool

	// Payload is the task's output, meaningful when Done.
	Payload any

	// Err is the task-level error, if the run failed.
	Err error
}

// TaskDone implements classify.TaskState.
func (r Result) TaskDone() bool { return r.Done }

// TaskPending implements classify.TaskState.
func (r Result) TaskPending() bool { return r.Pending }

// TaskAwaitingInput implements classify.TaskState.
func (r Result) TaskAwaitingInput() bool { return r.AwaitingInput }

// TaskErr implements classify.TaskState.
func (r Result) TaskErr() error { return r.Err }

// Runner is the external unit of work the orchestrator repeatedly invokes.
//
// When resume is true the runner must continue from wherever its checkpoint
// mechanism left off rather than starting over. Invoke may block for
// arbitrarily long; it must honor ctx for cancellation.
type Runner interface {
	Invoke(ctx context.Context, h Handle, resume bool) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, h Handle, resume bool) (Result, error)

func (f RunnerFunc) Invoke(ctx context.Context, h Handle, resume bool) (Result, error) {
	return f(ctx, h, resume)
}
