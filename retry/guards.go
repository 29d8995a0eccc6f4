package retry

import (
	"context"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/aponysus/reprise/budget"
	"github.com/aponysus/reprise/circuit"
	"github.com/aponysus/reprise/classify"
	"github.com/aponysus/reprise/internal"
	"github.com/aponysus/reprise/policy"
)

// guards bundles the optional gates an orchestrator consults before each
// attempt: attempt budgets and circuit breakers.
type guards struct {
	budgets           *budget.Registry
	breakers          *circuit.Registry
	missingBudgetMode FailureMode
}

func (g *guards) allowBudget(ctx context.Context, key policy.TaskKey, ref policy.BudgetRef, attempt int, recoverPanics bool) (decision budget.Decision, allowed bool) {
	ref.Name = strings.TrimSpace(ref.Name)
	if ref.Name == "" {
		return budget.Decision{Allowed: true, Reason: budget.ReasonNoBudget}, true
	}

	var missingReason string
	var b budget.Budget
	var ok bool

	if g.budgets == nil {
		missingReason = budget.ReasonRegistryNil
	} else if b, ok = g.budgets.Get(ref.Name); !ok {
		missingReason = budget.ReasonBudgetNotFound
	} else if internal.IsTypedNil(b) {
		missingReason = budget.ReasonBudgetNil
	}

	if missingReason != "" {
		if g.missingBudgetMode == FailureAllow {
			return budget.Decision{Allowed: true, Reason: missingReason}, true
		}
		// Fail closed: a policy that names a budget gets no attempts when
		// the budget is missing.
		return budget.Decision{Allowed: false, Reason: missingReason}, false
	}

	if recoverPanics {
		defer func() {
			if r := recover(); r != nil {
				_ = debug.Stack()
				decision = budget.Decision{Allowed: false, Reason: budget.ReasonPanicInBudget}
				allowed = false
			}
		}()
	}

	decision = b.AllowAttempt(ctx, key, attempt, ref)
	if decision.Reason == "" {
		if decision.Allowed {
			decision.Reason = budget.ReasonAllowed
		} else {
			decision.Reason = budget.ReasonBudgetDenied
		}
	}

	if decision.Release != nil {
		originalRelease := decision.Release
		var once sync.Once
		decision.Release = func() {
			once.Do(originalRelease)
		}
	}

	return decision, decision.Allowed
}

func (g *guards) allowBreaker(ctx context.Context, pol policy.EffectivePolicy) (circuit.Decision, bool) {
	br, ok := g.breaker(pol)
	if !ok {
		return circuit.Decision{Allowed: true}, true
	}
	d := br.Allow(ctx)
	return d, d.Allowed
}

// record feeds the attempt outcome back into the breaker, if one applies.
// Interrupted executions count as neither success nor failure: the runner
// is healthy, it is just waiting on a human.
func (g *guards) record(ctx context.Context, pol policy.EffectivePolicy, out classify.Outcome) {
	br, ok := g.breaker(pol)
	if !ok {
		return
	}
	switch out.Kind {
	case classify.OutcomeSuccess:
		br.RecordSuccess(ctx)
	case classify.OutcomeInterrupted:
	default:
		br.RecordFailure(ctx)
	}
}

func (g *guards) breaker(pol policy.EffectivePolicy) (circuit.Breaker, bool) {
	name := strings.TrimSpace(pol.Retry.BreakerName)
	if name == "" || g.breakers == nil {
		return nil, false
	}
	return g.breakers.Get(name)
}
