// Package circuit stops calling a failing dependency for a while so callers
// can fall back instead of waiting on timeouts.
package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

type Config struct {
	Threshold        int           // consecutive failures that open the circuit
	Timeout          time.Duration // how long the circuit stays open
	SuccessThreshold int           // half-open successes needed to close
	MaxHalfOpen      int           // concurrent probes while half-open
}

func DefaultConfig() Config {
	return Config{
		Threshold:        5,
		Timeout:          30 * time.Second,
		SuccessThreshold: 3,
		MaxHalfOpen:      3,
	}
}

// Stats is a point-in-time view of a breaker
type Stats struct {
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Failures    int       `json:"failures"`
	Successes   int       `json:"successes"`
	LastFailure time.Time `json:"lastFailure,omitzero"`
	Threshold   int       `json:"threshold"`
	Timeout     string    `json:"timeout"`
}

type Breaker struct {
	mu               sync.Mutex
	state            State
	failures         int
	successes        int
	halfOpenRequests int
	lastFailure      time.Time
	config           Config
	logger           *zap.Logger
	name             string
	now              func() time.Time
}

func NewBreaker(name string, config Config, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Breaker{
		state:  StateClosed,
		config: config,
		logger: logger,
		name:   name,
		now:    time.Now,
	}
}

func (b *Breaker) Name() string {
	return b.name
}

// Execute runs fn unless the circuit is open. A cancelled or expired ctx is
// the caller giving up and does not count against the dependency.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		b.release()
		return err
	}
	b.Record(err)
	return err
}

// Allow reserves a call, moving an expired open circuit to half-open
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.lastFailure) >= b.config.Timeout {
			b.transitionTo(StateHalfOpen)
			b.halfOpenRequests = 1
			return nil
		}
		return ErrCircuitOpen

	case StateHalfOpen:
		if b.halfOpenRequests >= b.config.MaxHalfOpen {
			return ErrTooManyRequests
		}
		b.halfOpenRequests++
		return nil

	default:
		return nil
	}
}

// release gives back a half-open slot without recording an outcome
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && b.halfOpenRequests > 0 {
		b.halfOpenRequests--
	}
}

func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.recordFailure()
	} else {
		b.recordSuccess()
	}
}

// must hold lock
func (b *Breaker) recordFailure() {
	b.failures++
	b.successes = 0
	b.lastFailure = b.now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.config.Threshold {
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		b.transitionTo(StateOpen)
	}
}

// must hold lock
func (b *Breaker) recordSuccess() {
	b.failures = 0

	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	case StateClosed:
		b.successes++
	}
}

// must hold lock
func (b *Breaker) transitionTo(newState State) {
	oldState := b.state
	b.state = newState
	b.halfOpenRequests = 0

	if newState == StateClosed {
		b.failures = 0
		b.successes = 0
	}

	b.logger.Info("Circuit breaker state changed",
		zap.String("name", b.name),
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
		zap.Int("failures", b.failures),
	)
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Stats{
		Name:        b.name,
		State:       b.state.String(),
		Failures:    b.failures,
		Successes:   b.successes,
		LastFailure: b.lastFailure,
		Threshold:   b.config.Threshold,
		Timeout:     b.config.Timeout.String(),
	}
}

// Reset closes the circuit, e.g. after an operator fixed the dependency
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	b.halfOpenRequests = 0

	b.logger.Info("Circuit breaker reset", zap.String("name", b.name))
}
