package observe

import (
	"context"

	"github.com/aponysus/reprise/policy"
)

// BaseObserver implements Observer with no-op methods.
//
// Users can embed BaseObserver to implement only the callbacks they need.
type BaseObserver struct{}

func (BaseObserver) OnStart(context.Context, policy.TaskKey, policy.EffectivePolicy) {}
func (BaseObserver) OnAttempt(context.Context, policy.TaskKey, AttemptRecord)        {}
func (BaseObserver) OnInterrupt(context.Context, policy.TaskKey, AttemptRecord)      {}
func (BaseObserver) OnSuccess(context.Context, policy.TaskKey, ExecutionStats)       {}
func (BaseObserver) OnFailure(context.Context, policy.TaskKey, ExecutionStats)       {}

// MultiObserver fans out events to multiple observers.
type MultiObserver struct {
	Observers []Observer
}

func (m MultiObserver) OnStart(ctx context.Context, key policy.TaskKey, pol policy.EffectivePolicy) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnStart(ctx, key, pol)
		}
	}
}

func (m MultiObserver) OnAttempt(ctx context.Context, key policy.TaskKey, rec AttemptRecord) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnAttempt(ctx, key, rec)
		}
	}
}

func (m MultiObserver) OnInterrupt(ctx context.Context, key policy.TaskKey, rec AttemptRecord) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnInterrupt(ctx, key, rec)
		}
	}
}

func (m MultiObserver) OnSuccess(ctx context.Context, key policy.TaskKey, stats ExecutionStats) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnSuccess(ctx, key, stats)
		}
	}
}

func (m MultiObserver) OnFailure(ctx context.Context, key policy.TaskKey, stats ExecutionStats) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnFailure(ctx, key, stats)
		}
	}
}
