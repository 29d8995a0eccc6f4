package retry

import (
	"context"
	"fmt"

	"github.com/aponysus/reprise/observe"
	"github.com/aponysus/reprise/policy"
	"github.com/aponysus/reprise/runner"
)

// ExecuteValue is Execute with a typed payload.
//
// On success the runner's payload must be assignable to T; a mismatch is
// reported as an error, since it means the runner and caller disagree about
// the task's output type.
func ExecuteValue[T any](ctx context.Context, o *Orchestrator, key policy.TaskKey, r runner.Runner, h runner.Handle) (T, observe.ExecutionStats, error) {
	var zero T

	if o == nil {
		o = Default()
	}

	ok, payload, stats, err := o.Execute(ctx, key, r, h)
	if err != nil {
		return zero, stats, err
	}
	if !ok {
		return zero, stats, nil
	}
	if payload == nil {
		return zero, stats, nil
	}

	val, okCast := payload.(T)
	if !okCast {
		return zero, stats, fmt.Errorf("reprise: payload type %T is not %T", payload, zero)
	}
	return val, stats, nil
}
