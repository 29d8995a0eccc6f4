package retry

import (
	"context"
	"time"

	"github.com/aponysus/reprise/budget"
	"github.com/aponysus/reprise/circuit"
	"github.com/aponysus/reprise/classify"
	"github.com/aponysus/reprise/controlplane"
	"github.com/aponysus/reprise/observe"
	"github.com/aponysus/reprise/policy"
)

// Options configures an Orchestrator.
type Options struct {
	Provider          controlplane.PolicyProvider
	Observer          observe.Observer
	Clock             func() time.Time
	Sleep             func(context.Context, time.Duration) error
	Classifiers       *classify.Registry
	DefaultClassifier classify.Classifier
	Budgets           *budget.Registry
	Breakers          *circuit.Registry

	MissingPolicyMode     FailureMode
	MissingClassifierMode FailureMode
	MissingBudgetMode     FailureMode

	RecoverPanics bool
}

type config struct {
	opts           Options
	staticPolicies map[policy.TaskKey]policy.EffectivePolicy
}

// Option configures an Orchestrator.
type Option func(*config)

// WithProvider sets the policy provider.
func WithProvider(p controlplane.PolicyProvider) Option {
	return func(c *config) {
		c.opts.Provider = p
	}
}

// WithObserver sets the observer.
func WithObserver(o observe.Observer) Option {
	return func(c *config) {
		c.opts.Observer = o
	}
}

// WithClock sets the clock function.
func WithClock(f func() time.Time) Option {
	return func(c *config) {
		c.opts.Clock = f
	}
}

// WithSleep sets the sleep function. Tests use this to make backoff
// deterministic.
func WithSleep(f func(context.Context, time.Duration) error) Option {
	return func(c *config) {
		c.opts.Sleep = f
	}
}

// WithClassifiers sets the classifier registry.
func WithClassifiers(r *classify.Registry) Option {
	return func(c *config) {
		c.opts.Classifiers = r
	}
}

// WithDefaultClassifier sets the classifier used when a policy names none.
func WithDefaultClassifier(cls classify.Classifier) Option {
	return func(c *config) {
		c.opts.DefaultClassifier = cls
	}
}

// WithBudgets sets the attempt budget registry.
func WithBudgets(r *budget.Registry) Option {
	return func(c *config) {
		c.opts.Budgets = r
	}
}

// WithBreakers sets the circuit breaker registry.
func WithBreakers(r *circuit.Registry) Option {
	return func(c *config) {
		c.opts.Breakers = r
	}
}

// WithMissingPolicyMode sets the mode for handling missing policies.
func WithMissingPolicyMode(mode FailureMode) Option {
	return func(c *config) {
		c.opts.MissingPolicyMode = mode
	}
}

// WithMissingClassifierMode sets the mode for handling missing classifiers.
func WithMissingClassifierMode(mode FailureMode) Option {
	return func(c *config) {
		c.opts.MissingClassifierMode = mode
	}
}

// WithMissingBudgetMode sets the mode for handling missing budgets.
func WithMissingBudgetMode(mode FailureMode) Option {
	return func(c *config) {
		c.opts.MissingBudgetMode = mode
	}
}

// WithRecoverPanics sets whether to capture and report panics in the
// runner, classifier, provider, and budget calls.
func WithRecoverPanics(recover bool) Option {
	return func(c *config) {
		c.opts.RecoverPanics = recover
	}
}

// WithPolicy adds a static policy for a string key (e.g. "agent.research").
func WithPolicy(key string, opts ...policy.Option) Option {
	return func(c *config) {
		if c.staticPolicies == nil {
			c.staticPolicies = make(map[policy.TaskKey]policy.EffectivePolicy)
		}
		p := policy.New(key, opts...)
		c.staticPolicies[p.Key] = p
	}
}

// WithPolicyKey adds a static policy for a structured key.
func WithPolicyKey(key policy.TaskKey, opts ...policy.Option) Option {
	return func(c *config) {
		if c.staticPolicies == nil {
			c.staticPolicies = make(map[policy.TaskKey]policy.EffectivePolicy)
		}
		p := policy.NewFromKey(key, opts...)
		c.staticPolicies[p.Key] = p
	}
}
