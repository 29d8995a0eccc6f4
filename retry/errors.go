package retry

import (
	"errors"
	"fmt"

	"github.com/aponysus/reprise/policy"
)

var (
	// ErrNoPolicy is returned when no policy is found and the missing
	// policy mode is FailureDeny.
	ErrNoPolicy = errors.New("reprise: no policy found")

	// ErrBudgetDenied is returned when an attempt budget refuses the next
	// attempt.
	ErrBudgetDenied = errors.New("reprise: attempt budget denied")

	// ErrCircuitOpen is returned when a circuit breaker refuses the next
	// attempt.
	ErrCircuitOpen = errors.New("reprise: circuit open")
)

// FailureMode controls behavior when a dependency is missing.
type FailureMode int

const (
	FailureModeUnknown FailureMode = iota
	FailureDeny
	FailureAllow
	FailureFallback
)

func failureModeString(mode FailureMode) string {
	switch mode {
	case FailureDeny:
		return "deny"
	case FailureAllow:
		return "allow"
	case FailureFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// PanicError reports a panic recovered inside a component invoked by the
// orchestrator (runner, classifier, provider, budget).
type PanicError struct {
	Component string
	Key       policy.TaskKey
	Value     any
	Stack     []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("reprise: panic in %s for %s: %v", e.Component, e.Key, e.Value)
}

// NoPolicyError wraps a provider failure for a specific key.
type NoPolicyError struct {
	Key policy.TaskKey
	Err error
}

func (e *NoPolicyError) Error() string {
	return fmt.Sprintf("reprise: policy not found for %s: %v", e.Key, e.Err)
}

func (e *NoPolicyError) Unwrap() error {
	return e.Err
}

func (e *NoPolicyError) Is(target error) bool {
	return target == ErrNoPolicy
}

// NoClassifierError reports that a policy named a classifier that is not
// registered.
type NoClassifierError struct {
	Name string
}

func (e *NoClassifierError) Error() string {
	return fmt.Sprintf("reprise: classifier not found: %s", e.Name)
}
