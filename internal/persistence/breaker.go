package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

var ErrBreakerOpen = errors.New("storage circuit breaker is open")

type BreakerConfig struct {
	MaxFailures      int           `json:"max_failures"`
	Timeout          time.Duration `json:"timeout"`
	HalfOpenMaxCalls int           `json:"half_open_max_calls"`
}

func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// Breaker counts consecutive failures. Once MaxFailures is reached calls fail fast
// with ErrBreakerOpen until Timeout has passed; then HalfOpenMaxCalls successful
// trial calls close it again and any trial failure reopens it.
type Breaker struct {
	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time

	maxFailures      int
	timeout          time.Duration
	halfOpenMaxCalls int
	now              func() time.Time
}

func NewBreaker(config *BreakerConfig) *Breaker {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	halfOpen := config.HalfOpenMaxCalls
	if halfOpen < 1 {
		halfOpen = 1
	}
	maxFailures := config.MaxFailures
	if maxFailures < 1 {
		maxFailures = 1
	}

	return &Breaker{
		state:            BreakerClosed,
		maxFailures:      maxFailures,
		timeout:          config.Timeout,
		halfOpenMaxCalls: halfOpen,
		now:              time.Now,
	}
}

func (cb *Breaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrBreakerOpen
	}

	if err := fn(); err != nil {
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return nil
}

func (cb *Breaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if cb.now().Sub(cb.lastFailureTime) >= cb.timeout {
			cb.state = BreakerHalfOpen
			cb.successCount = 0
			return true
		}
		return false
	case BreakerHalfOpen:
		return cb.successCount < cb.halfOpenMaxCalls
	default:
		return false
	}
}

func (cb *Breaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.now()

	switch cb.state {
	case BreakerClosed:
		if cb.failureCount >= cb.maxFailures {
			cb.state = BreakerOpen
		}
	case BreakerHalfOpen:
		cb.state = BreakerOpen
		cb.successCount = 0
	}
}

func (cb *Breaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		cb.failureCount = 0
	case BreakerHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.halfOpenMaxCalls {
			cb.state = BreakerClosed
			cb.failureCount = 0
			cb.successCount = 0
		}
	}
}

func (cb *Breaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *Breaker) Stats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"state":           cb.state.String(),
		"failure_count":   cb.failureCount,
		"success_count":   cb.successCount,
		"last_failure":    cb.lastFailureTime.Unix(),
		"max_failures":    cb.maxFailures,
		"timeout_seconds": cb.timeout.Seconds(),
	}
}

// BreakerBackend guards saves of the wrapped backend. Loads pass straight through
// because a failed load already degrades to the seed dataset.
type BreakerBackend struct {
	Backend
	breaker *Breaker
}

func NewBreakerBackend(backend Backend, config *BreakerConfig) *BreakerBackend {
	return &BreakerBackend{Backend: backend, breaker: NewBreaker(config)}
}

func (b *BreakerBackend) Save(ctx context.Context, doc *models.Document) error {
	err := b.breaker.Execute(func() error {
		return b.Backend.Save(ctx, doc)
	})
	if errors.Is(err, ErrBreakerOpen) {
		return fmt.Errorf("%s backend: %w", b.Backend.Name(), err)
	}
	return err
}

func (b *BreakerBackend) Breaker() *Breaker {
	return b.breaker
}
