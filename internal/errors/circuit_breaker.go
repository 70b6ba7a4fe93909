package errors

import (
	"errors"
	"sync"
	"time"
)

const (
	ErrorThreshold      = 0.5
	MinRequests         = 10
	TimeoutDuration     = 30 * time.Second
	HalfOpenMaxRequests = 3
)

// BreakerState is the circuit breaker's own lifecycle, distinct from the
// participant lifecycle tracked elsewhere.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

var (
	errCircuitOpen             = errors.New("circuit breaker is open")
	errHalfOpenTooManyRequests = errors.New("too many requests in half-open")
)

// CircuitBreaker sheds load from a failing dependency. Once the failure rate
// over at least MinRequests calls reaches ErrorThreshold the breaker rejects
// calls outright; after TimeoutDuration it admits HalfOpenMaxRequests probes
// and closes again only if all of them succeed.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     BreakerState
	requests  int
	failures  int
	successes int
	openedAt  time.Time
}

func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{state: BreakerClosed}
}

// Call runs fn unless the breaker is shedding load, and feeds the outcome
// back into the breaker.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}

	if err := cb.admit(); err != nil {
		return err
	}

	err := fn()
	cb.observe(err == nil)

	return err
}

// State reports the breaker's current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// admit decides whether a call may proceed right now.
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerOpen:
		if time.Since(cb.openedAt) < TimeoutDuration {
			return errCircuitOpen
		}
		cb.moveTo(BreakerHalfOpen)
	case BreakerHalfOpen:
		if cb.requests >= HalfOpenMaxRequests {
			return errHalfOpenTooManyRequests
		}
	}

	return nil
}

// observe folds a call outcome into the window counters and transitions the
// breaker when a boundary is crossed.
func (cb *CircuitBreaker) observe(ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.requests++

	if !ok {
		cb.failures++
		switch {
		case cb.state == BreakerHalfOpen:
			cb.moveTo(BreakerOpen)
		case cb.requests >= MinRequests && float64(cb.failures)/float64(cb.requests) >= ErrorThreshold:
			cb.moveTo(BreakerOpen)
		}

		return
	}

	cb.successes++
	if cb.state == BreakerHalfOpen && cb.successes >= HalfOpenMaxRequests {
		cb.moveTo(BreakerClosed)
	}
}

// moveTo switches states and starts a fresh counting window.
func (cb *CircuitBreaker) moveTo(state BreakerState) {
	cb.state = state
	cb.requests = 0
	cb.failures = 0
	cb.successes = 0

	if state == BreakerOpen {
		cb.openedAt = time.Now()
	}
}
