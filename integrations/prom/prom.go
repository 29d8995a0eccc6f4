// Package prom is an observe.Observer that exports execution metrics to
// Prometheus. Metrics are registered on a caller-supplied registry so the
// library never touches the global default registerer.
package prom

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aponysus/reprise/observe"
	"github.com/aponysus/reprise/policy"
)

// Observer exports per-attempt and per-execution metrics.
type Observer struct {
	attempts   *prometheus.CounterVec
	executions *prometheus.CounterVec
	interrupts *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	inFlight   *prometheus.GaugeVec
}

// NewObserver creates an Observer and registers its collectors on reg.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reprise",
			Name:      "attempts_total",
			Help:      "Runner attempts by task key and classified outcome",
		}, []string{"task", "outcome"}),

		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reprise",
			Name:      "executions_total",
			Help:      "Completed executions by task key and result",
		}, []string{"task", "result"}), // result: success, failure

		interrupts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reprise",
			Name:      "interrupts_total",
			Help:      "Executions stopped while awaiting external input",
		}, []string{"task"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reprise",
			Name:      "execution_duration_seconds",
			Help:      "End-to-end execution time including backoff sleeps",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms .. ~100s
		}, []string{"task"}),

		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "reprise",
			Name:      "in_flight",
			Help:      "Executions currently running",
		}, []string{"task"}),
	}

	for _, c := range []prometheus.Collector{o.attempts, o.executions, o.interrupts, o.duration, o.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// MustNewObserver is NewObserver that panics on registration failure.
func MustNewObserver(reg prometheus.Registerer) *Observer {
	o, err := NewObserver(reg)
	if err != nil {
		panic(err)
	}
	return o
}

func (o *Observer) OnStart(_ context.Context, key policy.TaskKey, _ policy.EffectivePolicy) {
	o.inFlight.WithLabelValues(key.String()).Inc()
}

func (o *Observer) OnAttempt(_ context.Context, key policy.TaskKey, rec observe.AttemptRecord) {
	o.attempts.WithLabelValues(key.String(), rec.Outcome.Kind.String()).Inc()
}

func (o *Observer) OnInterrupt(_ context.Context, key policy.TaskKey, _ observe.AttemptRecord) {
	o.interrupts.WithLabelValues(key.String()).Inc()
}

func (o *Observer) OnSuccess(_ context.Context, key policy.TaskKey, stats observe.ExecutionStats) {
	o.finish(key, stats, "success")
}

func (o *Observer) OnFailure(_ context.Context, key policy.TaskKey, stats observe.ExecutionStats) {
	o.finish(key, stats, "failure")
}

func (o *Observer) finish(key policy.TaskKey, stats observe.ExecutionStats, result string) {
	task := key.String()
	o.inFlight.WithLabelValues(task).Dec()
	o.executions.WithLabelValues(task, result).Inc()
	o.duration.WithLabelValues(task).Observe(stats.TotalTime().Seconds())
}
