// Package breaker implements a three-state circuit breaker that isolates
// a failing upstream: Closed (normal) -> Open after a run of consecutive
// failures (calls rejected until the timeout elapses) -> HalfOpen (one
// trial call) -> Closed on success or back to Open on failure.
package breaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Breaker wraps calls to one upstream. Safe for concurrent use.
type Breaker struct {
	name string
	cfg  Config

	mu           sync.Mutex
	state        State
	failureCount int
	lastFailure  time.Time
	nextAttempt  time.Time

	now     func() time.Time
	log     *zap.Logger
	metrics *otelMetrics
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithLogger attaches a logger. Nil is ignored.
func WithLogger(log *zap.Logger) Option {
	return func(b *Breaker) {
		if log != nil {
			b.log = log.With(zap.String("breaker", b.name))
		}
	}
}

// New creates a breaker in the Closed state.
func New(cfg Config, name string, opts ...Option) (*Breaker, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Breaker{
		name:  name,
		cfg:   cfg,
		state: StateClosed,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// OpenError is returned when a call is rejected because the breaker is
// Open; the wrapped function was not invoked.
type OpenError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open, retry after %s", e.Name, e.RetryAfter)
}

// Do routes fn through the breaker. While Open it fails fast with an
// *OpenError. Errors rejected by cfg.IsFailure propagate without being
// counted; counted failures trip the breaker once FailureThreshold
// consecutive ones are seen (immediately when HalfOpen).
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := b.beforeCall(ctx); err != nil {
		return err
	}

	err := fn(ctx)
	b.afterCall(ctx, err)
	return err
}

func (b *Breaker) beforeCall(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	now := b.now()
	if now.Before(b.nextAttempt) {
		b.metrics.recordRejected(ctx)
		return &OpenError{Name: b.name, RetryAfter: b.nextAttempt.Sub(now)}
	}

	b.transitionLocked(ctx, StateHalfOpen, "open timeout elapsed")
	return nil
}

func (b *Breaker) afterCall(ctx context.Context, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failureCount = 0
		if b.state == StateHalfOpen {
			b.transitionLocked(ctx, StateClosed, "trial call succeeded")
		}
		return
	}

	if b.cfg.IsFailure != nil && !b.cfg.IsFailure(err) {
		return
	}

	b.failureCount++
	b.lastFailure = b.now()

	switch b.state {
	case StateHalfOpen:
		b.tripLocked(ctx, "trial call failed")
	case StateClosed:
		if b.failureCount >= b.cfg.FailureThreshold {
			b.tripLocked(ctx, "failure threshold reached")
		}
	}
}

// tripLocked moves to Open with a fresh timeout.
func (b *Breaker) tripLocked(ctx context.Context, reason string) {
	b.nextAttempt = b.now().Add(b.cfg.Timeout)
	b.transitionLocked(ctx, StateOpen, reason)
}

func (b *Breaker) transitionLocked(ctx context.Context, to State, reason string) {
	from := b.state
	b.state = to
	if to == StateClosed {
		b.failureCount = 0
	}
	b.metrics.recordTransition(ctx, from, to)
	b.log.Info("state transition",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("reason", reason))
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// FailureCount returns the current consecutive-failure count.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}

// Reset forces the breaker back to Closed and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateClosed {
		b.transitionLocked(context.Background(), StateClosed, "manual reset")
	}
	b.failureCount = 0
	b.lastFailure = time.Time{}
	b.nextAttempt = time.Time{}
}

// StatusSnapshot is a point-in-time view for observability.
type StatusSnapshot struct {
	Name         string    `json:"name"`
	State        string    `json:"state"`
	FailureCount int       `json:"failure_count"`
	LastFailure  time.Time `json:"last_failure,omitempty"`
	NextAttempt  time.Time `json:"next_attempt,omitempty"`
}

// Status returns a snapshot of the breaker's state.
func (b *Breaker) Status() StatusSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return StatusSnapshot{
		Name:         b.name,
		State:        b.state.String(),
		FailureCount: b.failureCount,
		LastFailure:  b.lastFailure,
		NextAttempt:  b.nextAttempt,
	}
}
