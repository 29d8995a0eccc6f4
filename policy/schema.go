package policy

import (
	"math"
	"time"
)

type JitterKind string

const (
	JitterNone  JitterKind = "none"
	JitterFull  JitterKind = "full"
	JitterEqual JitterKind = "equal"
)

// BudgetRef names a registered attempt budget and the cost of one attempt.
type BudgetRef struct {
	Name string `json:"name"`
	Cost int    `json:"cost,omitempty"`
}

// Policy controls the retry/resume behavior for one task kind.
//
// A Policy is immutable for the lifetime of the orchestrator that holds it;
// distinct orchestrators with distinct policies coexist safely.
type Policy struct {
	// MaxAttempts is the total attempt budget, including the first attempt.
	// An exhausted budget reports the last outcome as the final failure.
	MaxAttempts int `json:"max_attempts"`

	InitialDelay      time.Duration `json:"initial_delay"`
	MaxDelay          time.Duration `json:"max_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
	Jitter            JitterKind    `json:"jitter"`

	TimeoutPerAttempt time.Duration `json:"timeout_per_attempt"`
	OverallTimeout    time.Duration `json:"overall_timeout"`

	ClassifierName string    `json:"classifier_name,omitempty"`
	Budget         BudgetRef `json:"budget,omitempty"`
	BreakerName    string    `json:"breaker_name,omitempty"`
}

// EffectivePolicy is a Policy bound to a TaskKey, as resolved by a provider.
type EffectivePolicy struct {
	Key   TaskKey `json:"key"`
	ID    string  `json:"id,omitempty"`
	Retry Policy  `json:"retry"`

	Meta Metadata `json:"-"`
}

type PolicySource string

const (
	PolicySourceUnknown PolicySource = "unknown"
	PolicySourceStatic  PolicySource = "static"
	PolicySourceFile    PolicySource = "file"
	PolicySourceRemote  PolicySource = "remote"
	PolicySourceDefault PolicySource = "default"
)

type NormalizationInfo struct {
	Changed       bool     `json:"-"`
	ChangedFields []string `json:"-"`
}

type Metadata struct {
	Source        PolicySource      `json:"-"`
	Normalization NormalizationInfo `json:"-"`
}

// Defaults mirror the resumable-agent wrapper this library grew out of:
// five attempts, 2s initial delay doubling up to a 60s cap.
const (
	DefaultMaxAttempts       = 5
	DefaultInitialDelay      = 2 * time.Second
	DefaultMaxDelay          = 60 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// Default returns the default Policy.
func Default() Policy {
	return Policy{
		MaxAttempts:       DefaultMaxAttempts,
		InitialDelay:      DefaultInitialDelay,
		MaxDelay:          DefaultMaxDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
		Jitter:            JitterNone,
		Budget:            BudgetRef{Cost: 1},
	}
}

// DefaultPolicyFor returns the default EffectivePolicy for key.
func DefaultPolicyFor(key TaskKey) EffectivePolicy {
	return EffectivePolicy{
		Key:   key,
		Retry: Default(),
		Meta:  Metadata{Source: PolicySourceDefault},
	}
}

// DelayFor returns the backoff delay imposed after the given 1-based
// attempt: min(InitialDelay × BackoffMultiplier^(attempt−1), MaxDelay).
// There is never a delay before the first attempt.
func (p Policy) DelayFor(attempt int) time.Duration {
	if attempt < 1 || p.InitialDelay <= 0 {
		return 0
	}
	mult := p.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	if d > float64(math.MaxInt64) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

const (
	maxRetryAttempts = 100

	minDelayFloor        = 1 * time.Millisecond
	maxDelayCeiling      = 10 * time.Minute
	minTimeoutFloor      = 1 * time.Millisecond
	maxBackoffMultiplier = 10.0
)

// Normalize clamps out-of-range fields to safe values and rejects
// fundamentally invalid configuration. The returned policy records which
// fields were adjusted in Meta.Normalization.
func (p EffectivePolicy) Normalize() (EffectivePolicy, error) {
	normalized := p
	norm := &normalized.Meta.Normalization

	markChanged := func(field string) {
		norm.Changed = true
		for _, f := range norm.ChangedFields {
			if f == field {
				return
			}
		}
		norm.ChangedFields = append(norm.ChangedFields, field)
	}

	if normalized.Retry.MaxAttempts == 0 {
		normalized.Retry.MaxAttempts = DefaultMaxAttempts
		markChanged("retry.max_attempts")
	}
	if normalized.Retry.MaxAttempts < 1 {
		normalized.Retry.MaxAttempts = 1
		markChanged("retry.max_attempts")
	} else if normalized.Retry.MaxAttempts > maxRetryAttempts {
		normalized.Retry.MaxAttempts = maxRetryAttempts
		markChanged("retry.max_attempts")
	}

	if normalized.Retry.InitialDelay < 0 {
		normalized.Retry.InitialDelay = DefaultInitialDelay
		markChanged("retry.initial_delay")
	}
	if normalized.Retry.InitialDelay > 0 && normalized.Retry.InitialDelay < minDelayFloor {
		normalized.Retry.InitialDelay = minDelayFloor
		markChanged("retry.initial_delay")
	}

	if normalized.Retry.MaxDelay <= 0 {
		normalized.Retry.MaxDelay = DefaultMaxDelay
		markChanged("retry.max_delay")
	}
	if normalized.Retry.MaxDelay > maxDelayCeiling {
		normalized.Retry.MaxDelay = maxDelayCeiling
		markChanged("retry.max_delay")
	}
	if normalized.Retry.MaxDelay < normalized.Retry.InitialDelay {
		normalized.Retry.MaxDelay = normalized.Retry.InitialDelay
		markChanged("retry.max_delay")
	}

	if normalized.Retry.BackoffMultiplier == 0 {
		normalized.Retry.BackoffMultiplier = DefaultBackoffMultiplier
		markChanged("retry.backoff_multiplier")
	}
	if normalized.Retry.BackoffMultiplier < 1 {
		normalized.Retry.BackoffMultiplier = 1
		markChanged("retry.backoff_multiplier")
	} else if normalized.Retry.BackoffMultiplier > maxBackoffMultiplier {
		normalized.Retry.BackoffMultiplier = maxBackoffMultiplier
		markChanged("retry.backoff_multiplier")
	}

	switch normalized.Retry.Jitter {
	case "":
		normalized.Retry.Jitter = JitterNone
		markChanged("retry.jitter")
	case JitterNone, JitterFull, JitterEqual:
	default:
		return EffectivePolicy{}, &NormalizeError{Field: "retry.jitter", Value: string(normalized.Retry.Jitter)}
	}

	if normalized.Retry.TimeoutPerAttempt < 0 {
		normalized.Retry.TimeoutPerAttempt = 0
		markChanged("retry.timeout_per_attempt")
	}
	if normalized.Retry.TimeoutPerAttempt > 0 && normalized.Retry.TimeoutPerAttempt < minTimeoutFloor {
		normalized.Retry.TimeoutPerAttempt = minTimeoutFloor
		markChanged("retry.timeout_per_attempt")
	}

	if normalized.Retry.OverallTimeout < 0 {
		normalized.Retry.OverallTimeout = 0
		markChanged("retry.overall_timeout")
	}
	if normalized.Retry.OverallTimeout > 0 && normalized.Retry.OverallTimeout < minTimeoutFloor {
		normalized.Retry.OverallTimeout = minTimeoutFloor
		markChanged("retry.overall_timeout")
	}

	if normalized.Retry.Budget.Cost < 1 {
		normalized.Retry.Budget.Cost = 1
		markChanged("retry.budget.cost")
	}

	return normalized, nil
}
