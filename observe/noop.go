package observe

import (
	"context"

	"github.com/aponysus/reprise/policy"
)

// NoopObserver implements Observer with no-op methods.
type NoopObserver struct{}

func (NoopObserver) OnStart(context.Context, policy.TaskKey, policy.EffectivePolicy) {}
func (NoopObserver) OnAttempt(context.Context, policy.TaskKey, AttemptRecord)        {}
func (NoopObserver) OnInterrupt(context.Context, policy.TaskKey, AttemptRecord)      {}
func (NoopObserver) OnSuccess(context.Context, policy.TaskKey, ExecutionStats)       {}
func (NoopObserver) OnFailure(context.Context, policy.TaskKey, ExecutionStats)       {}
