package classify

import (
	"context"
	"errors"
	"strings"
)

// Default pattern tables for PatternClassifier.
//
// Non-retryable patterns are checked first: an error mentioning both
// "connection" and "unauthorized" is permanent, not transient.
var (
	DefaultRetryablePatterns = []string{
		"timeout",
		"connection",
		"network",
		"rate limit",
		"429",
		"502",
		"503",
		"504",
	}

	DefaultNonRetryablePatterns = []string{
		"authentication",
		"unauthorized",
		"401",
		"403",
		"invalid",
		"not found",
		"404",
	}
)

// PatternClassifier classifies errors by case-insensitive substring match
// against known transient and permanent patterns.
//
// Errors matching neither table default to retryable. That optimism favors
// availability over fast-fail; callers needing stricter behavior register
// their own classifier.
type PatternClassifier struct {
	// Retryable overrides DefaultRetryablePatterns when non-nil.
	Retryable []string
	// NonRetryable overrides DefaultNonRetryablePatterns when non-nil.
	NonRetryable []string
}

func (c PatternClassifier) Classify(_ any, err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSuccess, Reason: "success"}
	}
	if errors.Is(err, context.Canceled) {
		return Outcome{Kind: OutcomeAbort, Reason: "context_canceled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Kind: OutcomeRetryable, Reason: "context_deadline_exceeded"}
	}

	msg := strings.ToLower(err.Error())

	for _, p := range c.nonRetryable() {
		if strings.Contains(msg, p) {
			return Outcome{
				Kind:       OutcomeNonRetryable,
				Reason:     "permanent_error",
				Attributes: map[string]string{"matched_pattern": p},
			}
		}
	}
	for _, p := range c.retryable() {
		if strings.Contains(msg, p) {
			return Outcome{
				Kind:       OutcomeRetryable,
				Reason:     "transient_error",
				Attributes: map[string]string{"matched_pattern": p},
			}
		}
	}

	return Outcome{Kind: OutcomeRetryable, Reason: "unrecognized_error"}
}

func (c PatternClassifier) retryable() []string {
	if c.Retryable != nil {
		return c.Retryable
	}
	return DefaultRetryablePatterns
}

func (c PatternClassifier) nonRetryable() []string {
	if c.NonRetryable != nil {
		return c.NonRetryable
	}
	return DefaultNonRetryablePatterns
}
