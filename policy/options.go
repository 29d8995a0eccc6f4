package policy

import "time"

// Option mutates a Policy under construction.
type Option func(*Policy)

// New builds an EffectivePolicy for a string key (e.g. "agent.research"),
// starting from Default() and applying opts.
func New(key string, opts ...Option) EffectivePolicy {
	return NewFromKey(ParseKey(key), opts...)
}

// NewFromKey builds an EffectivePolicy for a structured key.
func NewFromKey(key TaskKey, opts ...Option) EffectivePolicy {
	p := Default()
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}
	return EffectivePolicy{
		Key:   key,
		Retry: p,
		Meta:  Metadata{Source: PolicySourceStatic},
	}
}

// MaxAttempts sets the total attempt budget (first attempt included).
func MaxAttempts(n int) Option {
	return func(p *Policy) { p.MaxAttempts = n }
}

// InitialDelay sets the delay before the second attempt.
func InitialDelay(d time.Duration) Option {
	return func(p *Policy) { p.InitialDelay = d }
}

// MaxDelay caps the backoff delay.
func MaxDelay(d time.Duration) Option {
	return func(p *Policy) { p.MaxDelay = d }
}

// Multiplier sets the exponential backoff factor.
func Multiplier(f float64) Option {
	return func(p *Policy) { p.BackoffMultiplier = f }
}

// WithJitter sets the jitter kind applied to backoff delays.
func WithJitter(k JitterKind) Option {
	return func(p *Policy) { p.Jitter = k }
}

// Classifier selects a registered outcome classifier by name.
func Classifier(name string) Option {
	return func(p *Policy) { p.ClassifierName = name }
}

// Budget references a registered attempt budget by name.
func Budget(name string) Option {
	return func(p *Policy) { p.Budget.Name = name }
}

// BudgetCost sets the cost charged per attempt against the budget.
func BudgetCost(cost int) Option {
	return func(p *Policy) { p.Budget.Cost = cost }
}

// Breaker references a registered circuit breaker by name.
func Breaker(name string) Option {
	return func(p *Policy) { p.BreakerName = name }
}

// PerAttemptTimeout bounds the duration of a single runner invocation.
func PerAttemptTimeout(d time.Duration) Option {
	return func(p *Policy) { p.TimeoutPerAttempt = d }
}

// OverallTimeout bounds the duration of the whole execution, sleeps included.
func OverallTimeout(d time.Duration) Option {
	return func(p *Policy) { p.OverallTimeout = d }
}
