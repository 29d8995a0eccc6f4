package circuit

import (
	"context"
	"sync"
	"time"
)

// ConsecutiveFailureBreaker opens after N consecutive failures and stays
// open for a cooldown, then lets a limited number of probe attempts through
// before closing again.
type ConsecutiveFailureBreaker struct {
	mu sync.Mutex

	state State

	threshold int
	cooldown  time.Duration
	maxProbes int

	consecutiveFailures int
	openTime            time.Time
	probesSent          int
	probesSuccessful    int
	probesRequired      int

	nowFn func() time.Time
}

// NewConsecutiveFailureBreaker creates a new breaker.
// threshold: number of consecutive failures to open.
// cooldown: duration to stay open.
func NewConsecutiveFailureBreaker(threshold int, cooldown time.Duration) *ConsecutiveFailureBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 10 * time.Second
	}
	return &ConsecutiveFailureBreaker{
		state:          StateClosed,
		threshold:      threshold,
		cooldown:       cooldown,
		maxProbes:      1,
		probesRequired: 1,
	}
}

func (cb *ConsecutiveFailureBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.updateStateLocked()
}

func (cb *ConsecutiveFailureBreaker) Allow(_ context.Context) Decision {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.updateStateLocked()

	if state == StateOpen {
		return Decision{Allowed: false, State: StateOpen, Reason: ReasonCircuitOpen}
	}

	if state == StateHalfOpen {
		if cb.probesSent >= cb.maxProbes {
			return Decision{Allowed: false, State: StateHalfOpen, Reason: ReasonCircuitHalfOpenProbeLimit}
		}
		cb.probesSent++
		return Decision{Allowed: true, State: StateHalfOpen}
	}

	return Decision{Allowed: true, State: StateClosed}
}

func (cb *ConsecutiveFailureBreaker) RecordSuccess(_ context.Context) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.updateStateLocked()

	if state == StateClosed {
		cb.consecutiveFailures = 0
	} else if state == StateHalfOpen {
		cb.probesSuccessful++
		if cb.probesSuccessful >= cb.probesRequired {
			cb.transitionTo(StateClosed)
		} else {
			// Free a probe slot until required successes are met.
			cb.probesSent--
		}
	}
}

func (cb *ConsecutiveFailureBreaker) RecordFailure(_ context.Context) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.updateStateLocked()

	if state == StateClosed {
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.threshold {
			cb.transitionTo(StateOpen)
		}
	} else if state == StateHalfOpen {
		// Failure in half-open reopens immediately.
		cb.transitionTo(StateOpen)
	}
}

func (cb *ConsecutiveFailureBreaker) updateStateLocked() State {
	if cb.state == StateOpen {
		if cb.now().Sub(cb.openTime) >= cb.cooldown {
			cb.transitionTo(StateHalfOpen)
		}
	}
	return cb.state
}

func (cb *ConsecutiveFailureBreaker) transitionTo(newState State) {
	cb.state = newState
	switch newState {
	case StateClosed:
		cb.consecutiveFailures = 0
		cb.probesSent = 0
		cb.probesSuccessful = 0
	case StateOpen:
		cb.openTime = cb.now()
		cb.consecutiveFailures = 0
	case StateHalfOpen:
		cb.probesSent = 0
		cb.probesSuccessful = 0
	}
}

func (cb *ConsecutiveFailureBreaker) now() time.Time {
	if cb.nowFn != nil {
		return cb.nowFn()
	}
	return time.Now()
}

// SetClock overrides the breaker clock, primarily for tests.
func (cb *ConsecutiveFailureBreaker) SetClock(f func() time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.nowFn = f
}
