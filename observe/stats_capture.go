package observe

import (
	"context"
	"sync/atomic"
)

// StatsCapture holds captured execution stats after a call completes.
//
// Stats() returns nil until the call completes (or if capture is not used).
type StatsCapture struct {
	stats atomic.Pointer[ExecutionStats]
}

// Stats returns the captured stats, or nil if not yet populated.
// It is thread-safe.
func (c *StatsCapture) Stats() *ExecutionStats {
	if c == nil {
		return nil
	}
	return c.stats.Load()
}

// StoreStatsCapture publishes finished stats into a capture. It is called
// by the orchestrator, not by users.
func StoreStatsCapture(c *StatsCapture, stats *ExecutionStats) {
	if c == nil || stats == nil {
		return
	}
	c.stats.Store(stats)
}

type statsCaptureKey struct{}

// RecordStats returns a derived context that requests stats capture for the
// next execution, plus a holder for retrieving the completed stats.
func RecordStats(ctx context.Context) (context.Context, *StatsCapture) {
	if ctx == nil {
		ctx = context.Background()
	}
	capture := &StatsCapture{}
	return context.WithValue(ctx, statsCaptureKey{}, capture), capture
}

// StatsCaptureFromContext returns the capture (if requested).
func StatsCaptureFromContext(ctx context.Context) (*StatsCapture, bool) {
	if ctx == nil {
		return nil, false
	}
	switch v := ctx.Value(statsCaptureKey{}).(type) {
	case *StatsCapture:
		return v, v != nil
	default:
		return nil, false
	}
}

// WithoutStatsCapture disables stats capture in derived contexts.
//
// The orchestrator uses this when constructing the per-attempt context
// passed to the runner, to prevent nested executions from accidentally
// reusing the same capture.
func WithoutStatsCapture(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, statsCaptureKey{}, (*StatsCapture)(nil))
}
