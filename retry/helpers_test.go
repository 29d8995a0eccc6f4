package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aponysus/reprise/controlplane"
	"github.com/aponysus/reprise/policy"
	"github.com/aponysus/reprise/runner"
)

// step scripts one runner invocation.
type step struct {
	res runner.Result
	err error
}

// scriptedRunner replays a fixed sequence of results, recording the resume
// flag seen on each invocation. The last step repeats if invoked again.
type scriptedRunner struct {
	steps   []step
	calls   int
	resumes []bool
}

func (r *scriptedRunner) Invoke(_ context.Context, _ runner.Handle, resume bool) (runner.Result, error) {
	r.calls++
	r.resumes = append(r.resumes, resume)
	i := r.calls - 1
	if i >= len(r.steps) {
		i = len(r.steps) - 1
	}
	return r.steps[i].res, r.steps[i].err
}

func pendingStep(err error) step {
	return step{res: runner.Result{Pending: true, Err: err}}
}

func doneStep(payload any) step {
	return step{res: runner.Result{Done: true, Payload: payload}}
}

// sleepRecorder captures backoff sleeps without waiting.
type sleepRecorder struct {
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.sleeps = append(s.sleeps, d)
	return nil
}

func newTestOrchestrator(t *testing.T, sleeps *sleepRecorder, opts ...Option) *Orchestrator {
	t.Helper()
	if sleeps != nil {
		opts = append(opts, WithSleep(sleeps.sleep))
	}
	return New(opts...)
}

func TestFailureModeString(t *testing.T) {
	cases := []struct {
		mode FailureMode
		want string
	}{
		{mode: FailureDeny, want: "deny"},
		{mode: FailureAllow, want: "allow"},
		{mode: FailureFallback, want: "fallback"},
		{mode: FailureModeUnknown, want: "unknown"},
	}

	for _, tc := range cases {
		if got := failureModeString(tc.mode); got != tc.want {
			t.Fatalf("mode %v: got %q, want %q", tc.mode, got, tc.want)
		}
	}
}

func TestPolicyErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{err: controlplane.ErrPolicyNotFound, want: "policy_not_found"},
		{err: controlplane.ErrProviderUnavailable, want: "provider_unavailable"},
		{err: controlplane.ErrPolicyFetchFailed, want: "policy_fetch_failed"},
		{err: errors.New("other"), want: "unknown_error"},
	}

	for _, tc := range cases {
		if got := policyErrorKind(tc.err); got != tc.want {
			t.Fatalf("err=%v: got %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestCapDelay(t *testing.T) {
	if got := capDelay(-time.Second, time.Minute); got != 0 {
		t.Fatalf("negative delay: got %v, want 0", got)
	}
	if got := capDelay(2*time.Minute, time.Minute); got != time.Minute {
		t.Fatalf("over cap: got %v, want 1m", got)
	}
	if got := capDelay(30*time.Second, time.Minute); got != 30*time.Second {
		t.Fatalf("under cap: got %v, want 30s", got)
	}
}

func TestApplyJitter_Bounds(t *testing.T) {
	base := 10 * time.Second

	if got := applyJitter(base, policy.JitterNone); got != base {
		t.Fatalf("none: got %v, want %v", got, base)
	}

	for i := 0; i < 100; i++ {
		got := applyJitter(base, policy.JitterFull)
		if got < 0 || got > base {
			t.Fatalf("full: %v out of [0, %v]", got, base)
		}
	}
	for i := 0; i < 100; i++ {
		got := applyJitter(base, policy.JitterEqual)
		if got < base/2 || got > base {
			t.Fatalf("equal: %v out of [%v, %v]", got, base/2, base)
		}
	}
}

func TestSleepWithContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepWithContext(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
	if err := sleepWithContext(context.Background(), 0); err != nil {
		t.Fatalf("zero sleep err=%v, want nil", err)
	}
}
