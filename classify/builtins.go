package classify

import "errors"

// Built-in classifier registry names.
const (
	ClassifierState              = "state"
	ClassifierPatterns           = "patterns"
	ClassifierHTTP               = "http"
	ClassifierAuto               = "auto"
	ClassifierAlwaysRetryOnError = "always"
)

// RegisterBuiltins registers core classifiers into reg.
func RegisterBuiltins(reg *Registry) {
	if reg == nil {
		return
	}
	reg.Register(ClassifierState, StateClassifier{})
	reg.Register(ClassifierPatterns, PatternClassifier{})
	reg.Register(ClassifierHTTP, HTTPClassifier{})
	reg.Register(ClassifierAuto, AutoClassifier{})
	reg.Register(ClassifierAlwaysRetryOnError, AlwaysRetryOnError{})
}

// AutoClassifier delegates to a specific classifier based on the value and
// error shape, falling back to pattern matching.
//
// Behavior:
// - If the value implements TaskState: uses StateClassifier.
// - If the error wraps an HTTPError: uses HTTPClassifier.
// - Otherwise: uses PatternClassifier.
type AutoClassifier struct{}

func (AutoClassifier) Classify(val any, err error) Outcome {
	if _, ok := val.(TaskState); ok {
		return StateClassifier{}.Classify(val, err)
	}
	var he HTTPError
	if errors.As(err, &he) {
		return HTTPClassifier{}.Classify(val, err)
	}
	return PatternClassifier{}.Classify(val, err)
}
