package classify

import (
	"context"
	"errors"
	"fmt"
)

// TaskState is a classify-owned interface that lets state classifiers
// recognize resumable-runner results without importing the runner package.
//
// runner.Result implements it.
type TaskState interface {
	TaskDone() bool
	TaskPending() bool
	TaskAwaitingInput() bool
	TaskErr() error
}

// StateClassifier classifies outcomes from a runner's reported state.
//
// The detection predicate mirrors how a checkpointed graph execution is
// read back: a task blocked on external input is interrupted; a task with
// pending work in its resumable state is incomplete; a task-level error is
// classified by Errors (PatternClassifier when nil); otherwise the run
// completed.
type StateClassifier struct {
	// Errors classifies task-level and invocation errors. Nil means
	// PatternClassifier with the default pattern tables.
	Errors Classifier
}

func (c StateClassifier) Classify(val any, err error) Outcome {
	if err != nil {
		return c.errors().Classify(val, err)
	}

	st, ok := val.(TaskState)
	if !ok {
		return Outcome{
			Kind:   OutcomeNonRetryable,
			Reason: "classifier_type_mismatch",
			Attributes: map[string]string{
				"expected_type": "classify.TaskState",
				"got_type":      typeString(val),
			},
		}
	}

	if st.TaskAwaitingInput() {
		return Outcome{Kind: OutcomeInterrupted, Reason: "awaiting_external_input"}
	}
	if herr := st.TaskErr(); herr != nil {
		return c.errors().Classify(val, herr)
	}
	if st.TaskPending() && !st.TaskDone() {
		return Outcome{Kind: OutcomeIncomplete, Reason: "pending_operations"}
	}
	return Outcome{Kind: OutcomeSuccess, Reason: "success"}
}

func (c StateClassifier) errors() Classifier {
	if c.Errors != nil {
		return c.Errors
	}
	return PatternClassifier{}
}

// AlwaysRetryOnError classifies nil errors as success and all other errors
// as retryable, except for context cancellation which aborts immediately.
type AlwaysRetryOnError struct{}

func (AlwaysRetryOnError) Classify(_ any, err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSuccess, Reason: "success"}
	}
	if errors.Is(err, context.Canceled) {
		return Outcome{Kind: OutcomeAbort, Reason: "context_canceled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// Per-attempt timeouts are often transient; the orchestrator still
		// honors overall cancellation/deadlines separately.
		return Outcome{Kind: OutcomeRetryable, Reason: "context_deadline_exceeded"}
	}
	return Outcome{Kind: OutcomeRetryable, Reason: "retryable_error"}
}

func typeString(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", v)
}
