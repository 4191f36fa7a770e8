package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/tair/goldlink/pkg/logger"
)

// ErrOpen is returned by Call while the circuit is open
var ErrOpen = errors.New("circuit breaker is open")

// State represents the state of a circuit breaker
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Breaker stops calling a failing dependency for a cool-down period
type Breaker struct {
	name            string
	maxFailures     int
	timeout         time.Duration
	halfOpenSuccess int
	state           State
	failures        int
	successCount    int
	lastStateChange time.Time
	now             func() time.Time
	mu              sync.Mutex
}

// New creates a breaker that opens after maxFailures consecutive failures and
// probes again after timeout.
func New(name string, maxFailures int, timeout time.Duration) *Breaker {
	return &Breaker{
		name:            name,
		maxFailures:     maxFailures,
		timeout:         timeout,
		halfOpenSuccess: 1,
		state:           StateClosed,
		now:             time.Now,
		lastStateChange: time.Now(),
	}
}

// Call executes fn unless the circuit is open
func (b *Breaker) Call(fn func() error) error {
	b.mu.Lock()
	if b.state == StateOpen && b.now().Sub(b.lastStateChange) > b.timeout {
		b.transition(StateHalfOpen)
		b.successCount = 0
	}
	state := b.state
	b.mu.Unlock()

	if state == StateOpen {
		return ErrOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure()
	} else {
		b.onSuccess()
	}
	return err
}

func (b *Breaker) onFailure() {
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		if b.state != StateOpen {
			logger.Logger.Warn().
				Str("circuit", b.name).
				Int("failures", b.failures).
				Msg("Circuit breaker opened")
		}
		b.transition(StateOpen)
	}
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.halfOpenSuccess {
			b.failures = 0
			b.transition(StateClosed)
			logger.Logger.Info().
				Str("circuit", b.name).
				Msg("Circuit breaker closed after successful recovery")
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) transition(to State) {
	b.state = to
	b.lastStateChange = b.now()
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
