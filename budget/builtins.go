package budget

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/aponysus/reprise/policy"
)

// Unlimited allows every attempt.
type Unlimited struct{}

func (Unlimited) AllowAttempt(context.Context, policy.TaskKey, int, policy.BudgetRef) Decision {
	return Decision{Allowed: true, Reason: ReasonAllowed}
}

// RateBudget is a token-bucket budget backed by a rate.Limiter.
//
// It starts full (burst tokens) and refills at refillPerSecond
// tokens/second. Each attempt consumes ref.Cost tokens (defaulting to 1).
// Attempts are never delayed, only allowed or denied.
type RateBudget struct {
	limiter *rate.Limiter
}

func NewRateBudget(burst int, refillPerSecond float64) *RateBudget {
	if burst < 0 {
		burst = 0
	}
	if refillPerSecond < 0 {
		refillPerSecond = 0
	}
	return &RateBudget{
		limiter: rate.NewLimiter(rate.Limit(refillPerSecond), burst),
	}
}

func (b *RateBudget) AllowAttempt(_ context.Context, _ policy.TaskKey, _ int, ref policy.BudgetRef) Decision {
	if b == nil || b.limiter == nil {
		return Decision{Allowed: false, Reason: ReasonBudgetNil}
	}

	cost := ref.Cost
	if cost < 1 {
		cost = 1
	}

	if b.limiter.AllowN(timeNow(), cost) {
		return Decision{Allowed: true, Reason: ReasonAllowed}
	}
	return Decision{Allowed: false, Reason: ReasonBudgetDenied}
}
