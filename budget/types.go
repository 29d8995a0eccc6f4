package budget

import (
	"context"

	"github.com/aponysus/reprise/policy"
)

// Standard Decision.Reason strings.
const (
	ReasonAllowed         = "allowed"
	ReasonNoBudget        = "no_budget"
	ReasonBudgetNotFound  = "budget_not_found"
	ReasonBudgetDenied    = "budget_denied"
	ReasonBudgetNil       = "budget_nil"
	ReasonRegistryNil     = "budget_registry_nil"
	ReasonPanicInBudget   = "panic_in_budget"
	ReasonBudgetExhausted = "budget_exhausted"
)

// Decision is the result of a budget check.
type Decision struct {
	Allowed bool
	Reason  string

	// Release, when non-nil, is called exactly once after an allowed
	// attempt finishes.
	Release func()
}

// Budget gates attempts to prevent retry storms against an already failing
// dependency.
type Budget interface {
	AllowAttempt(ctx context.Context, key policy.TaskKey, attempt int, ref policy.BudgetRef) Decision
}
