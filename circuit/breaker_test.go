package circuit

import (
	"context"
	"testing"
	"time"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	ctx := context.Background()
	cb := NewConsecutiveFailureBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		cb.RecordFailure(ctx)
		if got := cb.State(); got != StateClosed {
			t.Fatalf("after %d failures: state=%v, want closed", i+1, got)
		}
	}

	cb.RecordFailure(ctx)
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state=%v, want open", got)
	}

	d := cb.Allow(ctx)
	if d.Allowed || d.Reason != ReasonCircuitOpen {
		t.Fatalf("decision=%+v, want denied/circuit_open", d)
	}
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	ctx := context.Background()
	cb := NewConsecutiveFailureBreaker(3, time.Minute)

	cb.RecordFailure(ctx)
	cb.RecordFailure(ctx)
	cb.RecordSuccess(ctx)
	cb.RecordFailure(ctx)
	cb.RecordFailure(ctx)

	if got := cb.State(); got != StateClosed {
		t.Fatalf("state=%v, want closed (streak was reset)", got)
	}
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	cb := NewConsecutiveFailureBreaker(1, 10*time.Second)
	cb.SetClock(func() time.Time { return now })

	cb.RecordFailure(ctx)
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state=%v, want open", got)
	}

	now = now.Add(11 * time.Second)
	if got := cb.State(); got != StateHalfOpen {
		t.Fatalf("state=%v, want half-open", got)
	}

	// First probe allowed, second denied.
	if d := cb.Allow(ctx); !d.Allowed {
		t.Fatalf("probe decision=%+v, want allowed", d)
	}
	if d := cb.Allow(ctx); d.Allowed || d.Reason != ReasonCircuitHalfOpenProbeLimit {
		t.Fatalf("decision=%+v, want denied/probe_limit", d)
	}
}

func TestBreaker_HalfOpenSuccessCloses(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	cb := NewConsecutiveFailureBreaker(1, 10*time.Second)
	cb.SetClock(func() time.Time { return now })

	cb.RecordFailure(ctx)
	now = now.Add(11 * time.Second)

	if d := cb.Allow(ctx); !d.Allowed {
		t.Fatalf("probe not allowed: %+v", d)
	}
	cb.RecordSuccess(ctx)
	if got := cb.State(); got != StateClosed {
		t.Fatalf("state=%v, want closed", got)
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	cb := NewConsecutiveFailureBreaker(1, 10*time.Second)
	cb.SetClock(func() time.Time { return now })

	cb.RecordFailure(ctx)
	now = now.Add(11 * time.Second)

	if d := cb.Allow(ctx); !d.Allowed {
		t.Fatalf("probe not allowed: %+v", d)
	}
	cb.RecordFailure(ctx)
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state=%v, want open again", got)
	}
}

func TestState_String(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.state.String(); got != tc.want {
			t.Fatalf("%d.String()=%q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestNewBreaker_DefaultsApplied(t *testing.T) {
	cb := NewConsecutiveFailureBreaker(0, 0)
	if cb.threshold != 5 || cb.cooldown != 10*time.Second {
		t.Fatalf("defaults=%d/%v, want 5/10s", cb.threshold, cb.cooldown)
	}
}
