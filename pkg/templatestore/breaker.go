package templatestore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/voicetyped/composer/pkg/lg"
)

// Circuit breaker states.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"
)

// CircuitBreakerConfig holds the parameters for a circuit breaker.
type CircuitBreakerConfig struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	HalfOpenMaxAttempts int
}

// CircuitBreaker trips after FailureThreshold consecutive failures and lets a
// single trial call through once ResetTimeout has passed.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           string
	failures        int
	successes       int
	lastFailureTime time.Time
	config          CircuitBreakerConfig
}

// NewCircuitBreaker creates a circuit breaker with the given config.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.HalfOpenMaxAttempts <= 0 {
		cfg.HalfOpenMaxAttempts = 1
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 1
	}
	return &CircuitBreaker{
		state:  StateClosed,
		config: cfg,
	}
}

// AllowRequest returns true if a request should be attempted.
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFailureTime) > cb.config.ResetTimeout {
			cb.state = StateHalfOpen
			cb.successes = 0
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess records a successful store call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.successes++
		if cb.successes >= cb.config.HalfOpenMaxAttempts {
			cb.state = StateClosed
		}
		return
	}
	cb.state = StateClosed
}

// RecordFailure records a failed store call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailureTime = time.Now()

	if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.state = StateOpen
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// BreakerStore guards a Store with a CircuitBreaker. While the breaker is open
// every call fails fast with ErrCircuitOpen, which the forker turns into its
// usual fallback instead of waiting on a dead backend per field.
type BreakerStore struct {
	next Store
	cb   *CircuitBreaker
}

// NewBreakerStore wraps next.
func NewBreakerStore(next Store, cfg CircuitBreakerConfig) *BreakerStore {
	return &BreakerStore{next: next, cb: NewCircuitBreaker(cfg)}
}

// Breaker exposes the underlying breaker, mainly for status reporting.
func (b *BreakerStore) Breaker() *CircuitBreaker {
	return b.cb
}

func (b *BreakerStore) GetTemplates(ctx context.Context, containerID, refOrFilter string) ([]lg.Template, error) {
	if !b.cb.AllowRequest() {
		return nil, ErrCircuitOpen
	}
	templates, err := b.next.GetTemplates(ctx, containerID, refOrFilter)
	b.record(err)
	return templates, err
}

func (b *BreakerStore) UpdateTemplate(ctx context.Context, containerID, name, body string) error {
	if !b.cb.AllowRequest() {
		return ErrCircuitOpen
	}
	err := b.next.UpdateTemplate(ctx, containerID, name, body)
	b.record(err)
	return err
}

func (b *BreakerStore) ListTemplates(ctx context.Context, containerID string) ([]lg.Template, error) {
	if !b.cb.AllowRequest() {
		return nil, ErrCircuitOpen
	}
	templates, err := b.next.ListTemplates(ctx, containerID)
	b.record(err)
	return templates, err
}

func (b *BreakerStore) DeleteTemplates(ctx context.Context, containerID string, names []string) error {
	if !b.cb.AllowRequest() {
		return ErrCircuitOpen
	}
	err := b.next.DeleteTemplates(ctx, containerID, names)
	b.record(err)
	return err
}

// record counts only backend failures; a missing container is an answer.
func (b *BreakerStore) record(err error) {
	if err == nil || errors.Is(err, ErrNotFound) {
		b.cb.RecordSuccess()
		return
	}
	b.cb.RecordFailure()
}
