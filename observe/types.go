package observe

import (
	"context"
	"time"

	"github.com/aponysus/reprise/classify"
	"github.com/aponysus/reprise/policy"
)

// AttemptRecord describes a single attempt: one runner invocation plus its
// classified outcome. Records are immutable once created and appended in
// strict attempt order.
type AttemptRecord struct {
	// Attempt is the 1-based attempt number.
	Attempt int

	// Resume is false on the first attempt and true on every later one.
	Resume bool

	StartTime time.Time
	EndTime   time.Time

	Outcome classify.Outcome

	Err error

	// Backoff is the delay slept before this attempt (zero for attempt 1).
	Backoff time.Duration
}

// Duration returns how long the attempt's runner invocation took.
func (r AttemptRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// ExecutionStats is the structured record of a single execution and all of
// its attempts. It is the externally visible diagnostic report: consumers
// read it for observability, the orchestrator never formats or emits logs
// itself.
type ExecutionStats struct {
	Key      policy.TaskKey
	PolicyID string
	Start    time.Time
	End      time.Time

	// Attributes holds execution-level metadata (policy source, classifier
	// fallbacks, normalization notes).
	Attributes map[string]string

	Attempts []AttemptRecord
	FinalErr error
}

// TotalAttempts returns the number of attempts performed.
func (s ExecutionStats) TotalAttempts() int { return len(s.Attempts) }

// Retries returns the number of attempts beyond the first.
func (s ExecutionStats) Retries() int {
	if len(s.Attempts) == 0 {
		return 0
	}
	return len(s.Attempts) - 1
}

// TotalTime returns the elapsed wall time of the execution, sleeps included.
func (s ExecutionStats) TotalTime() time.Duration { return s.End.Sub(s.Start) }

// LastOutcome returns the outcome of the final attempt. The final attempt
// decides the verdict: success if and only if its kind is OutcomeSuccess.
func (s ExecutionStats) LastOutcome() classify.Outcome {
	if len(s.Attempts) == 0 {
		return classify.Outcome{}
	}
	return s.Attempts[len(s.Attempts)-1].Outcome
}

// Succeeded reports whether the execution ended in success.
func (s ExecutionStats) Succeeded() bool {
	return s.LastOutcome().Kind == classify.OutcomeSuccess
}

// Observer receives lifecycle callbacks for a single execution.
type Observer interface {
	OnStart(ctx context.Context, key policy.TaskKey, pol policy.EffectivePolicy)
	OnAttempt(ctx context.Context, key policy.TaskKey, rec AttemptRecord)

	// OnInterrupt fires when an execution stops because the task is
	// awaiting external input. OnFailure still follows with the full stats.
	OnInterrupt(ctx context.Context, key policy.TaskKey, rec AttemptRecord)

	OnSuccess(ctx context.Context, key policy.TaskKey, stats ExecutionStats)
	OnFailure(ctx context.Context, key policy.TaskKey, stats ExecutionStats)
}
