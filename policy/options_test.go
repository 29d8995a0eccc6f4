package policy

import (
	"testing"
	"time"
)

func TestNew_AppliesOptions(t *testing.T) {
	pol := New("agent.research",
		MaxAttempts(3),
		InitialDelay(time.Second),
		MaxDelay(30*time.Second),
		Multiplier(3),
		WithJitter(JitterEqual),
		Classifier("state"),
		Budget("llm"),
		BudgetCost(2),
		Breaker("llm"),
		PerAttemptTimeout(time.Minute),
		OverallTimeout(10*time.Minute),
	)

	if pol.Key != (TaskKey{Namespace: "agent", Name: "research"}) {
		t.Fatalf("key=%+v", pol.Key)
	}
	r := pol.Retry
	if r.MaxAttempts != 3 || r.InitialDelay != time.Second || r.MaxDelay != 30*time.Second {
		t.Fatalf("retry=%+v", r)
	}
	if r.BackoffMultiplier != 3 || r.Jitter != JitterEqual {
		t.Fatalf("retry=%+v", r)
	}
	if r.ClassifierName != "state" || r.Budget.Name != "llm" || r.Budget.Cost != 2 || r.BreakerName != "llm" {
		t.Fatalf("retry=%+v", r)
	}
	if r.TimeoutPerAttempt != time.Minute || r.OverallTimeout != 10*time.Minute {
		t.Fatalf("retry=%+v", r)
	}
	if pol.Meta.Source != PolicySourceStatic {
		t.Fatalf("source=%v", pol.Meta.Source)
	}
}

func TestNew_NoOptionsIsDefault(t *testing.T) {
	pol := New("x")
	if pol.Retry != Default() {
		t.Fatalf("retry=%+v, want defaults", pol.Retry)
	}
}

func TestNewFromKey_NilOptionIgnored(t *testing.T) {
	pol := NewFromKey(TaskKey{Name: "x"}, nil, MaxAttempts(2))
	if pol.Retry.MaxAttempts != 2 {
		t.Fatalf("MaxAttempts=%d", pol.Retry.MaxAttempts)
	}
}
