package utils

import (
	"context"
	"sync"
	"time"

	"event-builder/internal/status"
)

// CircuitBreaker stops calling a failing dependency for a cool-down period.
// It never retries on its own.
type CircuitBreaker struct {
	name         string
	maxRequests  uint32
	interval     time.Duration
	timeout      time.Duration
	failureRatio float64
	now          func() time.Time

	mutex      sync.Mutex
	state      State
	generation uint64
	counts     Counts
	expiry     time.Time
}

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	}
	return "unknown"
}

type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// BreakerSettings overrides the defaults of NewCircuitBreaker. Zero fields
// keep the default.
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	Now          func() time.Time
}

func NewCircuitBreaker(name string) *CircuitBreaker {
	return NewCircuitBreakerWithSettings(name, BreakerSettings{})
}

func NewCircuitBreakerWithSettings(name string, s BreakerSettings) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:         name,
		maxRequests:  20,
		interval:     60 * time.Second,
		timeout:      30 * time.Second,
		failureRatio: 0.6,
		now:          time.Now,
		state:        StateClosed,
	}
	if s.MaxRequests > 0 {
		cb.maxRequests = s.MaxRequests
	}
	if s.Interval > 0 {
		cb.interval = s.Interval
	}
	if s.Timeout > 0 {
		cb.timeout = s.Timeout
	}
	if s.FailureRatio > 0 {
		cb.failureRatio = s.FailureRatio
	}
	if s.Now != nil {
		cb.now = s.Now
	}
	cb.toNewGeneration(cb.now())
	return cb
}

func (cb *CircuitBreaker) Name() string { return cb.name }

// State reports the current state, applying any pending expiry.
func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	state, _ := cb.currentState(cb.now())
	return state
}

func (cb *CircuitBreaker) Execute(ctx context.Context, req func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	generation, err := cb.beforeRequest()
	if err != nil {
		return nil, err
	}

	defer func() {
		e := recover()
		if e != nil {
			cb.afterRequest(generation, false)
			panic(e)
		}
	}()

	result, err := req()
	cb.afterRequest(generation, err == nil)
	return result, err
}

func (cb *CircuitBreaker) beforeRequest() (uint64, error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	state, generation := cb.currentState(cb.now())

	if state == StateOpen {
		return generation, status.ErrCircuitOpen
	} else if state == StateHalfOpen && cb.counts.Requests >= cb.maxRequests {
		return generation, status.ErrTooManyHalfOpenProbes
	}

	cb.counts.Requests++
	return generation, nil
}

func (cb *CircuitBreaker) afterRequest(before uint64, success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	now := cb.now()
	state, generation := cb.currentState(now)
	if generation != before {
		return
	}

	if success {
		cb.onSuccess(state, now)
	} else {
		cb.onFailure(state, now)
	}
}

func (cb *CircuitBreaker) onSuccess(state State, now time.Time) {
	cb.counts.TotalSuccesses++
	cb.counts.ConsecutiveSuccesses++
	cb.counts.ConsecutiveFailures = 0

	if state == StateHalfOpen {
		cb.setState(StateClosed, now)
	}
}

func (cb *CircuitBreaker) onFailure(state State, now time.Time) {
	cb.counts.TotalFailures++
	cb.counts.ConsecutiveFailures++
	cb.counts.ConsecutiveSuccesses = 0

	switch state {
	case StateHalfOpen:
		cb.setState(StateOpen, now)
	case StateClosed:
		if cb.readyToTrip() {
			cb.setState(StateOpen, now)
		}
	}
}

func (cb *CircuitBreaker) readyToTrip() bool {
	return cb.counts.Requests >= cb.maxRequests &&
		float64(cb.counts.TotalFailures)/float64(cb.counts.Requests) >= cb.failureRatio
}

func (cb *CircuitBreaker) currentState(now time.Time) (State, uint64) {
	switch cb.state {
	case StateClosed:
		if !cb.expiry.IsZero() && cb.expiry.Before(now) {
			cb.toNewGeneration(now)
		}
	case StateOpen:
		if cb.expiry.Before(now) {
			cb.setState(StateHalfOpen, now)
		}
	}
	return cb.state, cb.generation
}

func (cb *CircuitBreaker) setState(state State, now time.Time) {
	if cb.state == state {
		return
	}
	cb.state = state
	cb.toNewGeneration(now)
}

func (cb *CircuitBreaker) toNewGeneration(now time.Time) {
	cb.generation++
	cb.counts = Counts{}

	var zero time.Time
	switch cb.state {
	case StateClosed:
		cb.expiry = now.Add(cb.interval)
	case StateOpen:
		cb.expiry = now.Add(cb.timeout)
	default:
		cb.expiry = zero
	}
}
