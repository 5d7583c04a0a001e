package resilience

import (
	"errors"
	"sync"
	"time"
)

// CircuitState is one of the three canonical circuit-breaker states.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute when the breaker is open and
// the cool-down has not yet elapsed.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

// CircuitBreakerConfig tunes when a breaker trips and how it recovers.
type CircuitBreakerConfig struct {
	// FailureThreshold opens the circuit once this many consecutive
	// failures (within a closed window) accumulate.
	FailureThreshold int
	// ErrorRateThreshold, evaluated once at least MinRequests samples
	// have been seen in the rolling window, opens the circuit when the
	// failure ratio meets or exceeds it.
	ErrorRateThreshold float64
	MinRequests        int
	// OpenTimeout is how long the breaker stays Open before moving to
	// HalfOpen, where every call is allowed through as a trial.
	OpenTimeout time.Duration
	// HalfOpenSuccesses is how many consecutive trial successes close
	// the circuit again.
	HalfOpenSuccesses int
}

// DefaultCircuitBreakerConfig is a conservative general-purpose policy.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:   5,
		ErrorRateThreshold: 0.5,
		MinRequests:        10,
		OpenTimeout:        30 * time.Second,
		HalfOpenSuccesses:  2,
	}
}

// CircuitBreaker guards a downstream dependency (an LLM provider, a
// tool backend, an agent's message channel) from being hammered while
// it is failing.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu               sync.Mutex
	state            CircuitState
	consecutiveFails int
	halfOpenOK       int
	windowTotal      int
	windowFails      int
	openedAt         time.Time
}

// NewCircuitBreaker constructs a breaker starting Closed.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// State returns the current state, transitioning Open->HalfOpen first
// if the cool-down has elapsed.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeHalfOpenLocked()
	return cb.state
}

func (cb *CircuitBreaker) maybeHalfOpenLocked() {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.state = StateHalfOpen
		cb.halfOpenOK = 0
	}
}

// Allow reports whether a new call should be attempted right now.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeHalfOpenLocked()
	return cb.state != StateOpen
}

// RecordSuccess reports a successful call outcome.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFails = 0
	cb.windowTotal++
	cb.resetWindowIfFullLocked()

	if cb.state == StateHalfOpen {
		cb.halfOpenOK++
		if cb.halfOpenOK >= cb.cfg.HalfOpenSuccesses {
			cb.state = StateClosed
			cb.windowTotal, cb.windowFails = 0, 0
		}
	}
}

// RecordFailure reports a failed call outcome, possibly tripping the
// breaker open.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFails++
	cb.windowTotal++
	cb.windowFails++

	if cb.state == StateHalfOpen {
		cb.tripLocked()
		return
	}
	if cb.consecutiveFails >= cb.cfg.FailureThreshold {
		cb.tripLocked()
		return
	}
	if cb.windowTotal >= cb.cfg.MinRequests {
		rate := float64(cb.windowFails) / float64(cb.windowTotal)
		if rate >= cb.cfg.ErrorRateThreshold {
			cb.tripLocked()
		}
	}
	cb.resetWindowIfFullLocked()
}

func (cb *CircuitBreaker) tripLocked() {
	cb.state = StateOpen
	cb.openedAt = time.Now()
	cb.windowTotal, cb.windowFails = 0, 0
}

// resetWindowIfFullLocked caps the rolling window so long-lived
// breakers don't accumulate unbounded counters; it keeps only the
// failure ratio, discarding raw history once MinRequests*4 samples
// have been seen.
func (cb *CircuitBreaker) resetWindowIfFullLocked() {
	if cb.windowTotal >= cb.cfg.MinRequests*4 {
		cb.windowTotal /= 2
		cb.windowFails /= 2
	}
}

// Execute runs fn if the breaker allows it, recording the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	err := fn()
	if err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}
