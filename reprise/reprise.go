// Package reprise is the convenience facade: package-level execution
// helpers bound to the global default orchestrator.
package reprise

import (
	"context"

	"github.com/aponysus/reprise/observe"
	"github.com/aponysus/reprise/policy"
	"github.com/aponysus/reprise/retry"
	"github.com/aponysus/reprise/runner"
)

// Key is the structured form of a task key.
type Key = policy.TaskKey

// ParseKey parses "namespace.name" into a Key.
func ParseKey(s string) Key { return policy.ParseKey(s) }

// Init sets the global default orchestrator.
// It must be called before Execute/ExecuteValue are used.
func Init(o *retry.Orchestrator) {
	retry.SetDefault(o)
}

// Execute drives the task to a terminal state using the default
// orchestrator and the policy for key.
func Execute(ctx context.Context, key string, r runner.Runner, h runner.Handle) (bool, any, observe.ExecutionStats, error) {
	return retry.Default().Execute(ctx, policy.ParseKey(key), r, h)
}

// ExecuteValue is Execute with a typed payload.
func ExecuteValue[T any](ctx context.Context, key string, r runner.Runner, h runner.Handle) (T, observe.ExecutionStats, error) {
	return retry.ExecuteValue[T](ctx, retry.Default(), policy.ParseKey(key), r, h)
}
