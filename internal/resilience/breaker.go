package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Allow while the breaker rejects calls.
var ErrCircuitOpen = errors.New("resilience: circuit breaker open")

// BreakerState enumerates the circuit breaker states.
type BreakerState int

const (
	// Closed means normal operation.
	Closed BreakerState = iota
	// Open means calls are rejected until the timeout window elapses.
	Open
	// HalfOpen means trial calls probe whether the downstream recovered.
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// BreakerConfig parameterizes a Breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures in Closed that
	// open the circuit.
	FailureThreshold int
	// SuccessThreshold is the number of consecutive successes in HalfOpen
	// that close it again.
	SuccessThreshold int
	// Timeout is how long the circuit stays Open before a trial call is let
	// through.
	Timeout time.Duration
}

// DefaultBreakerConfig returns the stock thresholds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          60 * time.Second,
	}
}

func (c BreakerConfig) normalized() BreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold < 1 {
		c.SuccessThreshold = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

// Breaker is a shared failure-tracking state machine guarding one downstream
// dependency. Every inspect-decide-update sequence runs under a single mutex
// so concurrent callers cannot double-count or race a transition.
type Breaker struct {
	cfg BreakerConfig

	mu        sync.Mutex
	state     BreakerState
	failures  int
	successes int
	changedAt time.Time

	now func() time.Time
}

// NewBreaker creates a Breaker in the Closed state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg.normalized(), now: time.Now}
}

// Allow reports whether a call may proceed. In Open it fails with
// ErrCircuitOpen until the timeout window has elapsed, at which point the
// breaker moves to HalfOpen and the call is admitted as a trial.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return nil
	case Open:
		if b.now().Sub(b.changedAt) >= b.cfg.Timeout {
			b.transitionLocked(HalfOpen)
			b.successes = 0
			return nil
		}
		return ErrCircuitOpen
	default: // HalfOpen: admit probes so SuccessThreshold can be reached.
		return nil
	}
}

// RecordSuccess feeds a successful call outcome into the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures = 0
	case HalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.transitionLocked(Closed)
			b.failures = 0
			b.successes = 0
		}
	}
}

// RecordFailure feeds a failed call outcome into the breaker.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transitionLocked(Open)
		}
	case HalfOpen:
		// Any failure while probing reopens immediately.
		b.transitionLocked(Open)
		b.successes = 0
	}
}

func (b *Breaker) transitionLocked(next BreakerState) {
	b.state = next
	b.changedAt = b.now()
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// FailureCount returns the consecutive-failure counter.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset forces the breaker back to Closed with cleared counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionLocked(Closed)
	b.failures = 0
	b.successes = 0
}

// BreakerSnapshot is a point-in-time view for the observability surface.
type BreakerSnapshot struct {
	State     string    `json:"state"`
	Failures  int       `json:"failures"`
	Successes int       `json:"successes"`
	ChangedAt time.Time `json:"changed_at"`
}

// Snapshot returns the current breaker state and counters.
func (b *Breaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerSnapshot{
		State:     b.state.String(),
		Failures:  b.failures,
		Successes: b.successes,
		ChangedAt: b.changedAt,
	}
}
