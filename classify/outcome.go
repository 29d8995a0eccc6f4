package classify

import "time"

// OutcomeKind describes the orchestrator's decision about an attempt result.
type OutcomeKind int

const (
	OutcomeUnknown OutcomeKind = iota

	// OutcomeSuccess: the task fully completed. Terminal.
	OutcomeSuccess

	// OutcomeIncomplete: the runner stopped with pending work still in its
	// resumable state. The orchestrator resumes it on the next attempt.
	OutcomeIncomplete

	// OutcomeInterrupted: the task is blocked awaiting external human or
	// caller input. Terminal; auto-retrying would violate that contract.
	OutcomeInterrupted

	// OutcomeRetryable: a transient failure worth another attempt.
	OutcomeRetryable

	// OutcomeNonRetryable: a permanent failure. Terminal.
	OutcomeNonRetryable

	// OutcomeAbort: the execution itself must stop (cancellation, panic in
	// a classifier). Terminal, surfaced as an error rather than a verdict.
	OutcomeAbort
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeIncomplete:
		return "incomplete"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeNonRetryable:
		return "non_retryable"
	case OutcomeAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Terminal reports whether the kind ends the attempt sequence.
func (k OutcomeKind) Terminal() bool {
	switch k {
	case OutcomeSuccess, OutcomeInterrupted, OutcomeNonRetryable, OutcomeAbort:
		return true
	default:
		return false
	}
}

// Outcome describes the classification of one attempt.
type Outcome struct {
	Kind   OutcomeKind
	Reason string

	// Attributes holds classifier-specific metadata (status codes, matched
	// patterns, fallback notes).
	Attributes map[string]string

	// BackoffOverride, when set, overrides the policy backoff before the
	// next attempt (e.g. a server-provided Retry-After).
	BackoffOverride time.Duration
}
