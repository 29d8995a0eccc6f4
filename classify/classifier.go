package classify

// Classifier maps a raw runner result (or the error from invoking the
// runner) to an Outcome. Classification is data, not control flow: every
// expected failure mode becomes an Outcome at this boundary, and the
// orchestrator decides from the Outcome alone.
type Classifier interface {
	Classify(val any, err error) Outcome
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(val any, err error) Outcome

func (f ClassifierFunc) Classify(val any, err error) Outcome {
	return f(val, err)
}
