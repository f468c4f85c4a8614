package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrCircuitOpen is passed to the fallback when the breaker rejects a call
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the circuit breaker state
type State int

const (
	// StateClosed passes calls through.
	StateClosed State = iota
	// StateOpen short-circuits calls to the fallback.
	StateOpen
	// StateHalfOpen lets trial calls through to test recovery.
	StateHalfOpen
)

// String returns the state name
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

// Config holds breaker parameters
type Config struct {
	// FailureThreshold is the failure count that opens the circuit.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before a trial call.
	ResetTimeout time.Duration

	// SuccessThreshold is the consecutive half-open successes that close the circuit.
	SuccessThreshold int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		ResetTimeout:     60 * time.Second,
		SuccessThreshold: 2,
	}
}

func (c Config) normalized() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 1
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 1
	}
	if c.ResetTimeout < 0 {
		c.ResetTimeout = 0
	}
	return c
}

// Stats is a point-in-time view of a breaker
type Stats struct {
	Name            string    `json:"name"`
	State           string    `json:"state"`
	FailureCount    int       `json:"failure_count"`
	SuccessCount    int       `json:"success_count"`
	LastFailureTime time.Time `json:"last_failure_time,omitempty"`
}

// Breaker guards one external dependency.
//
// In CLOSED a failure increments the failure count and a success decays it
// by one. Reaching FailureThreshold opens the circuit. Once ResetTimeout has
// elapsed since the last failure the next call moves the circuit to HALF_OPEN
// and is attempted; a failure there reopens it, SuccessThreshold successes
// close it.
//
// Safe for concurrent use. The guarded action runs outside the lock.
type Breaker struct {
	name    string
	config  Config
	now     func() time.Time
	logger  *zap.Logger
	metrics *Metrics

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
}

// Option customizes a Breaker
type Option func(*Breaker)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets the logger used for state transitions
func WithLogger(logger *zap.Logger) Option {
	return func(b *Breaker) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics attaches prometheus collectors
func WithMetrics(m *Metrics) Option {
	return func(b *Breaker) {
		b.metrics = m
	}
}

// NewBreaker creates a breaker in the CLOSED state
func NewBreaker(name string, config Config, opts ...Option) *Breaker {
	b := &Breaker{
		name:   name,
		config: config.normalized(),
		now:    time.Now,
		logger: zap.NewNop(),
		state:  StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.metrics.setState(name, StateClosed)
	return b
}

// Name returns the dependency this breaker guards
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state without advancing it
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the breaker counters
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Name:            b.name,
		State:           b.state.String(),
		FailureCount:    b.failureCount,
		SuccessCount:    b.successCount,
		LastFailureTime: b.lastFailureTime,
	}
}

// Reset forces the breaker back to CLOSED with cleared counters
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
	b.successCount = 0
	b.transitionTo(StateClosed)
}

// allow decides whether the action may run. An OPEN circuit whose reset
// timeout has elapsed moves to HALF_OPEN before the call is attempted.
func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return true
	}
	if b.now().Sub(b.lastFailureTime) >= b.config.ResetTimeout {
		b.successCount = 0
		b.transitionTo(StateHalfOpen)
		return true
	}
	return false
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if b.failureCount > 0 {
			b.failureCount--
		}
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.config.SuccessThreshold {
			b.failureCount = 0
			b.successCount = 0
			b.transitionTo(StateClosed)
		}
	}
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.config.FailureThreshold {
			b.lastFailureTime = b.now()
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		b.successCount = 0
		b.lastFailureTime = b.now()
		b.transitionTo(StateOpen)
	}

	b.logger.Debug("dependency call failed",
		zap.String("dependency", b.name),
		zap.String("state", b.state.String()),
		zap.Int("failures", b.failureCount),
		zap.Error(err))
}

// transitionTo changes state. Must be called with lock held.
func (b *Breaker) transitionTo(next State) {
	if b.state == next {
		return
	}
	prev := b.state
	b.state = next
	b.metrics.observeTransition(b.name, next)
	b.logger.Info("circuit breaker transition",
		zap.String("dependency", b.name),
		zap.String("from", prev.String()),
		zap.String("to", next.String()))
}

// Execute runs action under the breaker's protection.
//
// When the circuit is OPEN the fallback is called with ErrCircuitOpen and the
// action is not invoked. When the action fails the failure is recorded and the
// fallback receives the action's error. A nil fallback returns the error as is.
// Failures caused by the caller's own context ending are not counted against
// the dependency.
func Execute[T any](ctx context.Context, b *Breaker, action func(context.Context) (T, error), fallback func(context.Context, error) (T, error)) (T, error) {
	if !b.allow() {
		b.metrics.observeFallback(b.name)
		if fallback == nil {
			var zero T
			return zero, ErrCircuitOpen
		}
		return fallback(ctx, ErrCircuitOpen)
	}

	result, err := action(ctx)
	if err == nil {
		b.onSuccess()
		return result, nil
	}

	if ctx.Err() == nil {
		b.onFailure(err)
	}

	if fallback == nil {
		return result, err
	}
	b.metrics.observeFallback(b.name)
	return fallback(ctx, err)
}
