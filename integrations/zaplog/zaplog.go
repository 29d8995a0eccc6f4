// Package zaplog is an observe.Observer that emits structured logs for
// every execution lifecycle event. The orchestrator itself never logs;
// attach this observer to get attempt-by-attempt visibility.
package zaplog

import (
	"context"

	"go.uber.org/zap"

	"github.com/aponysus/reprise/observe"
	"github.com/aponysus/reprise/policy"
)

// Observer logs execution lifecycle events on a zap logger.
type Observer struct {
	logger *zap.Logger
}

// NewObserver creates an Observer. A nil logger uses zap.NewNop().
func NewObserver(logger *zap.Logger) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Observer{logger: logger}
}

func (o *Observer) OnStart(_ context.Context, key policy.TaskKey, pol policy.EffectivePolicy) {
	o.logger.Debug("execution started",
		zap.String("task", key.String()),
		zap.Int("max_attempts", pol.Retry.MaxAttempts),
		zap.Duration("initial_delay", pol.Retry.InitialDelay),
		zap.Duration("max_delay", pol.Retry.MaxDelay),
	)
}

func (o *Observer) OnAttempt(_ context.Context, key policy.TaskKey, rec observe.AttemptRecord) {
	o.logger.Debug("attempt finished",
		zap.String("task", key.String()),
		zap.Int("attempt", rec.Attempt),
		zap.Bool("resume", rec.Resume),
		zap.String("outcome", rec.Outcome.Kind.String()),
		zap.String("reason", rec.Outcome.Reason),
		zap.Duration("duration", rec.Duration()),
		zap.Duration("backoff", rec.Backoff),
		zap.Error(rec.Err),
	)
}

func (o *Observer) OnInterrupt(_ context.Context, key policy.TaskKey, rec observe.AttemptRecord) {
	o.logger.Warn("task awaiting external input",
		zap.String("task", key.String()),
		zap.Int("attempt", rec.Attempt),
		zap.String("reason", rec.Outcome.Reason),
	)
}

func (o *Observer) OnSuccess(_ context.Context, key policy.TaskKey, stats observe.ExecutionStats) {
	o.logger.Info("execution succeeded",
		zap.String("task", key.String()),
		zap.Int("total_attempts", stats.TotalAttempts()),
		zap.Int("retries", stats.Retries()),
		zap.Duration("total_time", stats.TotalTime()),
	)
}

func (o *Observer) OnFailure(_ context.Context, key policy.TaskKey, stats observe.ExecutionStats) {
	o.logger.Warn("execution failed",
		zap.String("task", key.String()),
		zap.Int("total_attempts", stats.TotalAttempts()),
		zap.Int("retries", stats.Retries()),
		zap.Duration("total_time", stats.TotalTime()),
		zap.String("last_outcome", stats.LastOutcome().Kind.String()),
		zap.String("last_reason", stats.LastOutcome().Reason),
		zap.Error(stats.FinalErr),
	)
}
