package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/aponysus/reprise/budget"
	"github.com/aponysus/reprise/circuit"
	"github.com/aponysus/reprise/policy"
	"github.com/aponysus/reprise/runner"
)

type fakeBudget struct {
	allowFirst int
	calls      int
	releases   int
}

func (b *fakeBudget) AllowAttempt(_ context.Context, _ policy.TaskKey, _ int, _ policy.BudgetRef) budget.Decision {
	b.calls++
	if b.calls > b.allowFirst {
		return budget.Decision{Allowed: false, Reason: budget.ReasonBudgetExhausted}
	}
	return budget.Decision{Allowed: true, Release: func() { b.releases++ }}
}

type fakeBreaker struct {
	allowed   bool
	successes int
	failures  int
}

func (b *fakeBreaker) Allow(context.Context) circuit.Decision {
	if b.allowed {
		return circuit.Decision{Allowed: true, State: circuit.StateClosed}
	}
	return circuit.Decision{Allowed: false, State: circuit.StateOpen, Reason: circuit.ReasonCircuitOpen}
}

func (b *fakeBreaker) RecordSuccess(context.Context) { b.successes++ }
func (b *fakeBreaker) RecordFailure(context.Context) { b.failures++ }
func (b *fakeBreaker) State() circuit.State          { return circuit.StateClosed }

func TestExecute_BudgetDeniedStopsExecution(t *testing.T) {
	budgets := budget.NewRegistry()
	fb := &fakeBudget{allowFirst: 2}
	if err := budgets.Register("scarce", fb); err != nil {
		t.Fatalf("register: %v", err)
	}

	orch := newTestOrchestrator(t, &sleepRecorder{},
		WithBudgets(budgets),
		WithPolicyKey(testKey, policy.MaxAttempts(5), policy.Budget("scarce")),
	)

	r := &scriptedRunner{steps: []step{pendingStep(errors.New("timeout"))}}
	ok, _, stats, err := orch.Execute(context.Background(), testKey, r, runner.NewHandle(nil))

	if !errors.Is(err, ErrBudgetDenied) {
		t.Fatalf("err=%v, want ErrBudgetDenied", err)
	}
	if ok {
		t.Fatalf("ok=true, want false")
	}
	if r.calls != 2 {
		t.Fatalf("calls=%d, want 2 (third attempt denied)", r.calls)
	}
	if stats.TotalAttempts() != 2 {
		t.Fatalf("attempts=%d, want 2", stats.TotalAttempts())
	}
	if fb.releases != 2 {
		t.Fatalf("releases=%d, want one per allowed attempt", fb.releases)
	}
}

func TestExecute_MissingBudgetFailsClosed(t *testing.T) {
	orch := newTestOrchestrator(t, &sleepRecorder{},
		WithPolicyKey(testKey, policy.Budget("unregistered")),
	)

	r := &scriptedRunner{steps: []step{doneStep("unreached")}}
	_, _, _, err := orch.Execute(context.Background(), testKey, r, runner.NewHandle(nil))

	if !errors.Is(err, ErrBudgetDenied) {
		t.Fatalf("err=%v, want ErrBudgetDenied", err)
	}
	if r.calls != 0 {
		t.Fatalf("calls=%d, want 0", r.calls)
	}
}

func TestExecute_MissingBudgetAllowMode(t *testing.T) {
	orch := newTestOrchestrator(t, &sleepRecorder{},
		WithMissingBudgetMode(FailureAllow),
		WithPolicyKey(testKey, policy.Budget("unregistered")),
	)

	r := &scriptedRunner{steps: []step{doneStep("ok")}}
	ok, _, _, err := orch.Execute(context.Background(), testKey, r, runner.NewHandle(nil))

	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v, want true/nil", ok, err)
	}
}

func TestExecute_OpenBreakerFastFails(t *testing.T) {
	breakers := circuit.NewRegistry()
	if err := breakers.Register("downstream", &fakeBreaker{allowed: false}); err != nil {
		t.Fatalf("register: %v", err)
	}

	orch := newTestOrchestrator(t, &sleepRecorder{},
		WithBreakers(breakers),
		WithPolicyKey(testKey, policy.Breaker("downstream")),
	)

	r := &scriptedRunner{steps: []step{doneStep("unreached")}}
	_, _, stats, err := orch.Execute(context.Background(), testKey, r, runner.NewHandle(nil))

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err=%v, want ErrCircuitOpen", err)
	}
	if r.calls != 0 || stats.TotalAttempts() != 0 {
		t.Fatalf("calls=%d attempts=%d, want 0/0", r.calls, stats.TotalAttempts())
	}
}

func TestExecute_BreakerFeedback(t *testing.T) {
	breakers := circuit.NewRegistry()
	fb := &fakeBreaker{allowed: true}
	if err := breakers.Register("downstream", fb); err != nil {
		t.Fatalf("register: %v", err)
	}

	orch := newTestOrchestrator(t, &sleepRecorder{},
		WithBreakers(breakers),
		WithPolicyKey(testKey, policy.MaxAttempts(5), policy.Breaker("downstream")),
	)

	// Retryable failure, then interruption: the failure counts against the
	// breaker, the interruption counts as neither success nor failure.
	r := &scriptedRunner{steps: []step{
		pendingStep(errors.New("timeout")),
		{res: runner.Result{AwaitingInput: true}},
	}}
	if _, _, _, err := orch.Execute(context.Background(), testKey, r, runner.NewHandle(nil)); err != nil {
		t.Fatalf("err=%v, want nil", err)
	}

	if fb.failures != 1 {
		t.Fatalf("failures=%d, want 1", fb.failures)
	}
	if fb.successes != 0 {
		t.Fatalf("successes=%d, want 0", fb.successes)
	}
}

func TestGuards_AllowBudget_NoName(t *testing.T) {
	g := &guards{}
	d, allowed := g.allowBudget(context.Background(), testKey, policy.BudgetRef{}, 1, false)
	if !allowed || d.Reason != budget.ReasonNoBudget {
		t.Fatalf("decision=%+v allowed=%v", d, allowed)
	}
}

func TestGuards_ReleaseIsIdempotent(t *testing.T) {
	budgets := budget.NewRegistry()
	fb := &fakeBudget{allowFirst: 1}
	if err := budgets.Register("b", fb); err != nil {
		t.Fatalf("register: %v", err)
	}

	g := &guards{budgets: budgets, missingBudgetMode: FailureDeny}
	d, allowed := g.allowBudget(context.Background(), testKey, policy.BudgetRef{Name: "b"}, 1, false)
	if !allowed {
		t.Fatalf("decision=%+v, want allowed", d)
	}
	d.Release()
	d.Release()
	if fb.releases != 1 {
		t.Fatalf("releases=%d, want 1", fb.releases)
	}
}
