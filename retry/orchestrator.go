// Package retry implements the retry/resume orchestrator: it repeatedly
// invokes an external resumable task runner, classifies each result,
// decides whether to retry, waits out the backoff, and produces a final
// verdict with the full attempt history.
//
// The orchestrator owns none of the task's execution or persistence. The
// runner owns both; the orchestrator only tells it whether an invocation
// is a fresh start or a resume from checkpoint.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aponysus/reprise/classify"
	"github.com/aponysus/reprise/controlplane"
	"github.com/aponysus/reprise/observe"
	"github.com/aponysus/reprise/policy"
	"github.com/aponysus/reprise/runner"
)

// Orchestrator drives executions of resumable tasks under retry policies.
//
// An Orchestrator holds no per-execution state; concurrent Execute calls
// are independent as long as each uses its own task handle.
type Orchestrator struct {
	provider          controlplane.PolicyProvider
	observer          observe.Observer
	clock             func() time.Time
	sleep             func(context.Context, time.Duration) error
	classifiers       *classify.Registry
	defaultClassifier classify.Classifier
	guards            guards

	missingPolicyMode     FailureMode
	missingClassifierMode FailureMode
	recoverPanics         bool
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.opts.Provider == nil && len(cfg.staticPolicies) > 0 {
		cfg.opts.Provider = &controlplane.StaticProvider{
			Policies: cfg.staticPolicies,
		}
	}

	return NewFromOptions(cfg.opts)
}

// NewFromOptions creates an Orchestrator from a config struct.
func NewFromOptions(opts Options) *Orchestrator {
	o := &Orchestrator{
		provider:          opts.Provider,
		observer:          opts.Observer,
		clock:             opts.Clock,
		sleep:             opts.Sleep,
		classifiers:       opts.Classifiers,
		defaultClassifier: opts.DefaultClassifier,
		guards: guards{
			budgets:           opts.Budgets,
			breakers:          opts.Breakers,
			missingBudgetMode: normalizeFailureMode(opts.MissingBudgetMode, FailureDeny),
		},
		missingPolicyMode:     normalizeFailureMode(opts.MissingPolicyMode, FailureFallback),
		missingClassifierMode: normalizeFailureMode(opts.MissingClassifierMode, FailureFallback),
		recoverPanics:         opts.RecoverPanics,
	}

	if o.provider == nil {
		o.provider = &controlplane.StaticProvider{}
	}
	if o.observer == nil {
		o.observer = observe.NoopObserver{}
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.sleep == nil {
		o.sleep = sleepWithContext
	}
	if o.classifiers == nil {
		o.classifiers = classify.NewRegistry()
		classify.RegisterBuiltins(o.classifiers)
	}
	if o.defaultClassifier == nil {
		o.defaultClassifier = classify.AutoClassifier{}
	}

	return o
}

// Execute drives task r, identified by h and governed by the policy for
// key, to a terminal state.
//
// The return values follow the orchestration contract: ok is true only if
// the final attempt succeeded; payload is the runner's final payload when
// ok, nil otherwise; stats carries the full attempt history. err is non-nil
// only for cancellation and infrastructure faults (missing policy under
// FailureDeny, denied budgets, panics) — an ordinary task failure is
// ok=false with err=nil, never an error, so callers can always inspect why
// it failed.
func (o *Orchestrator) Execute(ctx context.Context, key policy.TaskKey, r runner.Runner, h runner.Handle) (bool, any, observe.ExecutionStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := o.clock()

	pol, attrs, err := o.resolvePolicy(ctx, key)
	if err != nil {
		stats := observe.ExecutionStats{
			Key:        key,
			Start:      start,
			End:        o.clock(),
			Attributes: attrs,
			FinalErr:   err,
		}
		o.observer.OnStart(ctx, key, pol)
		o.observer.OnFailure(ctx, key, stats)
		o.publishCapture(ctx, &stats)
		return false, nil, stats, err
	}

	classifier, cmeta, err := o.resolveClassifier(pol)
	if err != nil {
		stats := observe.ExecutionStats{
			Key:        key,
			PolicyID:   pol.ID,
			Start:      start,
			End:        o.clock(),
			Attributes: attrs,
			FinalErr:   err,
		}
		if cmeta.requested != "" {
			stats.Attributes["classifier_name"] = cmeta.requested
		}
		stats.Attributes["classifier_error"] = "classifier_not_found"
		o.observer.OnStart(ctx, key, pol)
		o.observer.OnFailure(ctx, key, stats)
		o.publishCapture(ctx, &stats)
		return false, nil, stats, err
	}

	if pol.Retry.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pol.Retry.OverallTimeout)
		defer cancel()
	}

	maxAttempts := pol.Retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	stats := observe.ExecutionStats{
		Key:        key,
		PolicyID:   pol.ID,
		Start:      start,
		Attributes: attrs,
		Attempts:   make([]observe.AttemptRecord, 0, maxAttempts),
	}
	o.observer.OnStart(ctx, key, pol)

	finish := func(ctx context.Context, finalErr error) {
		stats.End = o.clock()
		stats.FinalErr = finalErr
		if stats.Succeeded() && finalErr == nil {
			o.observer.OnSuccess(ctx, key, stats)
		} else {
			o.observer.OnFailure(ctx, key, stats)
		}
		o.publishCapture(ctx, &stats)
	}

	var lastBackoff time.Duration

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// The deadline gate: no new attempt starts once the caller's
		// context is done.
		if err := ctx.Err(); err != nil {
			finish(ctx, err)
			return false, nil, stats, err
		}

		if decision, allowed := o.guards.allowBreaker(ctx, pol); !allowed {
			err := fmt.Errorf("%w: %s", ErrCircuitOpen, decision.Reason)
			finish(ctx, err)
			return false, nil, stats, err
		}

		decision, allowed := o.guards.allowBudget(ctx, key, pol.Retry.Budget, attempt, o.recoverPanics)
		if !allowed {
			err := fmt.Errorf("%w: %s", ErrBudgetDenied, decision.Reason)
			finish(ctx, err)
			return false, nil, stats, err
		}

		resume := attempt > 1

		attemptCtx := ctx
		cancelAttempt := func() {}
		if pol.Retry.TimeoutPerAttempt > 0 {
			attemptCtx, cancelAttempt = context.WithTimeout(ctx, pol.Retry.TimeoutPerAttempt)
		}
		attemptCtx = observe.WithAttemptInfo(attemptCtx, observe.AttemptInfo{
			Attempt:  attempt,
			Resume:   resume,
			PolicyID: pol.ID,
		})
		attemptCtx = observe.WithoutStatsCapture(attemptCtx)

		attemptStart := o.clock()
		res, invokeErr := o.invoke(attemptCtx, r, h, resume, key)
		attemptEnd := o.clock()

		cancelAttempt()
		if decision.Release != nil {
			decision.Release()
		}

		outcome, panicErr := o.classifyOutcome(classifier, res, invokeErr, key)
		annotateClassifierFallback(&outcome, cmeta)

		recErr := invokeErr
		if recErr == nil {
			recErr = res.Err
		}
		rec := observe.AttemptRecord{
			Attempt:   attempt,
			Resume:    resume,
			StartTime: attemptStart,
			EndTime:   attemptEnd,
			Outcome:   outcome,
			Err:       recErr,
			Backoff:   lastBackoff,
		}
		stats.Attempts = append(stats.Attempts, rec)
		o.observer.OnAttempt(ctx, key, rec)
		o.guards.record(ctx, pol, outcome)

		if panicErr != nil {
			finish(ctx, panicErr)
			return false, nil, stats, panicErr
		}

		switch outcome.Kind {
		case classify.OutcomeSuccess:
			finish(ctx, nil)
			return true, res.Payload, stats, nil

		case classify.OutcomeInterrupted:
			// Awaiting external input: terminal, not an error. Retrying
			// would violate the human-in-the-loop contract.
			o.observer.OnInterrupt(ctx, key, rec)
			finish(ctx, nil)
			return false, nil, stats, nil

		case classify.OutcomeNonRetryable:
			finish(ctx, nil)
			return false, nil, stats, nil

		case classify.OutcomeAbort:
			err := abortError(ctx, recErr, outcome)
			finish(ctx, err)
			return false, nil, stats, err
		}

		// Incomplete or Retryable: retry, unless the budget is exhausted.
		if attempt == maxAttempts {
			finish(ctx, nil)
			return false, nil, stats, nil
		}

		delay := computeSleep(pol.Retry, attempt, outcome)
		if delay > 0 {
			if err := o.sleep(ctx, delay); err != nil {
				finish(ctx, err)
				return false, nil, stats, err
			}
		}
		lastBackoff = delay
	}

	// Unreachable: every loop path returns.
	finish(ctx, nil)
	return false, nil, stats, nil
}

// invoke calls the runner, optionally converting a panic into a PanicError.
func (o *Orchestrator) invoke(ctx context.Context, r runner.Runner, h runner.Handle, resume bool, key policy.TaskKey) (res runner.Result, err error) {
	if o.recoverPanics {
		defer func() {
			if rec := recover(); rec != nil {
				res = runner.Result{}
				err = &PanicError{
					Component: "runner",
					Key:       key,
					Value:     rec,
					Stack:     debug.Stack(),
				}
			}
		}()
	}
	return r.Invoke(ctx, h, resume)
}

// classifyOutcome applies the classifier, coercing unknown outcomes to
// abort and filling in default reasons.
func (o *Orchestrator) classifyOutcome(classifier classify.Classifier, res runner.Result, err error, key policy.TaskKey) (out classify.Outcome, panicErr error) {
	if o.recoverPanics {
		defer func() {
			if rec := recover(); rec != nil {
				out = classify.Outcome{Kind: classify.OutcomeAbort, Reason: "panic_in_classifier"}
				panicErr = &PanicError{
					Component: "classifier",
					Key:       key,
					Value:     rec,
					Stack:     debug.Stack(),
				}
			}
		}()
	}

	if _, isPanic := err.(*PanicError); isPanic {
		return classify.Outcome{Kind: classify.OutcomeAbort, Reason: "panic_in_runner"}, err
	}

	out = classifier.Classify(res, err)
	if out.Kind == classify.OutcomeUnknown {
		if out.Reason == "" {
			out.Reason = "unknown_outcome"
		}
		out.Kind = classify.OutcomeAbort
	}
	if out.Reason == "" {
		out.Reason = out.Kind.String()
	}
	return out, nil
}

func (o *Orchestrator) resolvePolicy(ctx context.Context, key policy.TaskKey) (policy.EffectivePolicy, map[string]string, error) {
	attrs := make(map[string]string)

	var pol policy.EffectivePolicy
	var err error

	func() {
		if o.recoverPanics {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{
						Component: "policy_provider",
						Key:       key,
						Value:     r,
						Stack:     debug.Stack(),
					}
				}
			}()
		}
		pol, err = o.provider.GetEffectivePolicy(ctx, key)
	}()

	if err != nil {
		switch o.missingPolicyMode {
		case FailureDeny:
			return policy.EffectivePolicy{}, attrs, &NoPolicyError{Key: key, Err: err}
		case FailureAllow:
			pol = policy.EffectivePolicy{Key: key, Retry: policy.Policy{MaxAttempts: 1}}
		default:
			if isZeroPolicy(pol) {
				pol = policy.DefaultPolicyFor(key)
			}
			attrs["policy_fallback"] = policyErrorKind(err)
		}
	}
	if isZeroPolicy(pol) {
		pol = policy.DefaultPolicyFor(key)
	}
	pol.Key = key

	pol, normErr := pol.Normalize()
	if normErr != nil {
		switch o.missingPolicyMode {
		case FailureDeny:
			return policy.EffectivePolicy{}, attrs, &NoPolicyError{Key: key, Err: normErr}
		case FailureAllow:
			pol = policy.EffectivePolicy{Key: key, Retry: policy.Policy{MaxAttempts: 1}}
			pol, _ = pol.Normalize()
		default:
			pol = policy.DefaultPolicyFor(key)
			pol, _ = pol.Normalize()
		}
		attrs["policy_error"] = fmt.Sprintf("normalization_failed: %v", normErr)
	}

	if pol.Meta.Source != "" {
		attrs["policy_source"] = string(pol.Meta.Source)
	}

	return pol, attrs, nil
}

type classifierMeta struct {
	requested string
	notFound  bool
}

func (o *Orchestrator) resolveClassifier(pol policy.EffectivePolicy) (classify.Classifier, classifierMeta, error) {
	meta := classifierMeta{requested: strings.TrimSpace(pol.Retry.ClassifierName)}

	classifier := o.defaultClassifier
	if meta.requested == "" {
		return classifier, meta, nil
	}

	if c, ok := o.classifiers.Get(meta.requested); ok {
		return c, meta, nil
	}

	meta.notFound = true
	switch o.missingClassifierMode {
	case FailureDeny:
		return nil, meta, &NoClassifierError{Name: meta.requested}
	default:
		return classifier, meta, nil
	}
}

func annotateClassifierFallback(out *classify.Outcome, meta classifierMeta) {
	if out == nil || !meta.notFound || meta.requested == "" {
		return
	}
	if out.Attributes == nil {
		out.Attributes = make(map[string]string, 3)
	}
	out.Attributes["classifier_not_found"] = "true"
	out.Attributes["classifier_name"] = meta.requested
	out.Attributes["classifier_fallback"] = "default"
}

func (o *Orchestrator) publishCapture(ctx context.Context, stats *observe.ExecutionStats) {
	if capture, ok := observe.StatsCaptureFromContext(ctx); ok {
		observe.StoreStatsCapture(capture, stats)
	}
}

func policyErrorKind(err error) string {
	switch {
	case errors.Is(err, controlplane.ErrPolicyNotFound):
		return "policy_not_found"
	case errors.Is(err, controlplane.ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, controlplane.ErrPolicyFetchFailed):
		return "policy_fetch_failed"
	default:
		return "unknown_error"
	}
}

func isZeroPolicy(pol policy.EffectivePolicy) bool {
	return pol.Key == (policy.TaskKey{}) &&
		pol.ID == "" &&
		pol.Retry == (policy.Policy{})
}

func normalizeFailureMode(mode FailureMode, defaultMode FailureMode) FailureMode {
	switch mode {
	case FailureFallback, FailureAllow, FailureDeny:
		return mode
	default:
		return defaultMode
	}
}

// abortError picks the most precise error for an aborted execution.
func abortError(ctx context.Context, opErr error, out classify.Outcome) error {
	if ctx != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	if opErr != nil {
		return opErr
	}
	return fmt.Errorf("reprise: %s", out.Reason)
}

// computeSleep returns the delay to impose after the given attempt:
// the classifier's override when present, otherwise the policy schedule
// with jitter applied, both capped at MaxDelay.
func computeSleep(pol policy.Policy, attempt int, out classify.Outcome) time.Duration {
	if out.BackoffOverride > 0 {
		return capDelay(out.BackoffOverride, pol.MaxDelay)
	}
	return capDelay(applyJitter(pol.DelayFor(attempt), pol.Jitter), pol.MaxDelay)
}

func capDelay(d, max time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if max > 0 && d > max {
		return max
	}
	return d
}

func applyJitter(delay time.Duration, kind policy.JitterKind) time.Duration {
	switch kind {
	case policy.JitterNone, "":
		return delay
	case policy.JitterFull:
		return time.Duration(rand.Float64() * float64(delay))
	case policy.JitterEqual:
		half := float64(delay) / 2
		return time.Duration(half + rand.Float64()*half)
	default:
		return delay
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)

	defer func() {
		if !timer.Stop() {
			select {
			case <-timer.C: // drain any pending tick so the channel doesn't retain value
			default:
			}
		}
	}()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
