// Package handler provides the uniform retry-with-backoff policy every
// collector routes its upstream calls through. A Handler classifies each
// failure, keeps a bounded error history, and can delegate execution
// through a circuit breaker.
package handler

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fincollect/go-collector-kit/breaker"
	"github.com/fincollect/go-collector-kit/collecterr"
)

// historyLimit bounds the retained error history.
const historyLimit = 100

// Handler runs collector calls under one retry policy. Intended for
// single-owner use: one handler per collector.
type Handler struct {
	name  string
	retry RetryConfig
	brk   *breaker.Breaker

	mu      sync.Mutex
	history []collecterr.Details
	counts  map[string]int
	total   int

	sleep func(ctx context.Context, d time.Duration) bool
	randf func() float64
	log   *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler) error

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(h *Handler) error {
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}
		h.retry = cfg
		return nil
	}
}

// WithBreaker gives the handler its own circuit breaker; all calls are
// delegated through it.
func WithBreaker(cfg breaker.Config, opts ...breaker.Option) Option {
	return func(h *Handler) error {
		b, err := breaker.New(cfg, h.name, opts...)
		if err != nil {
			return err
		}
		h.brk = b
		return nil
	}
}

// WithLogger attaches a logger. Nil is ignored.
func WithLogger(log *zap.Logger) Option {
	return func(h *Handler) error {
		if log != nil {
			h.log = log.With(zap.String("handler", h.name))
		}
		return nil
	}
}

// New creates a handler named after the collector that owns it.
func New(name string, opts ...Option) (*Handler, error) {
	h := &Handler{
		name:   name,
		retry:  DefaultRetryConfig(),
		counts: make(map[string]int),
		sleep:  sleepCtx,
		randf:  rand.Float64,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Breaker returns the handler's circuit breaker, or nil.
func (h *Handler) Breaker() *breaker.Breaker {
	return h.brk
}

// Run executes fn under the retry policy. See RunWithData.
func (h *Handler) Run(ctx context.Context, fn func(context.Context) error) error {
	_, err := RunWithData(ctx, h, func(c context.Context) (struct{}, error) {
		return struct{}{}, fn(c)
	})
	return err
}

// RunWithData executes fn under the handler's retry policy and returns its
// result. Every failed attempt is classified and recorded. An attempt is
// retried only when attempts remain and the policy's RetryOn accepts the
// error; the final attempt is never retried. Once retries are exhausted a
// domain error is returned unchanged and any other
// error is wrapped into one carrying its classified details, so callers
// always receive an error with reachable Details.
func RunWithData[T any](ctx context.Context, h *Handler, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < h.retry.MaxAttempts; attempt++ {
		var result T
		call := func(c context.Context) error {
			r, err := fn(c)
			if err == nil {
				result = r
			}
			return err
		}

		var err error
		if h.brk != nil {
			err = h.brk.Do(ctx, call)
		} else {
			err = call(ctx)
		}
		if err == nil {
			return result, nil
		}

		lastErr = err
		h.record(collecterr.Classify(err), attempt)

		if !h.shouldRetry(err, attempt) {
			break
		}

		if !h.sleep(ctx, h.delay(attempt)) {
			// Context cancelled mid-backoff; stop without a fresh attempt.
			break
		}
	}

	var domain *collecterr.Error
	if errors.As(lastErr, &domain) {
		// Domain errors propagate as-is.
		return zero, lastErr
	}
	return zero, collecterr.FromDetails(collecterr.Classify(lastErr), lastErr)
}

// shouldRetry checks the attempt budget before retryability, so the final
// attempt never retries regardless of error type.
func (h *Handler) shouldRetry(err error, attempt int) bool {
	if attempt >= h.retry.MaxAttempts-1 {
		return false
	}
	if h.retry.RetryOn == nil {
		return true
	}
	return h.retry.RetryOn(err)
}

// delay computes the backoff before attempt+1.
func (h *Handler) delay(attempt int) time.Duration {
	d := float64(h.retry.InitialDelay) * math.Pow(h.retry.BackoffFactor, float64(attempt))
	if d > float64(h.retry.MaxDelay) {
		d = float64(h.retry.MaxDelay)
	}
	if h.retry.Jitter {
		d *= 0.5 + h.randf()*0.5
	}
	return time.Duration(d)
}

// record appends the classified failure to the bounded history, bumps the
// per category:type counter, and logs at the severity-derived level.
func (h *Handler) record(d collecterr.Details, attempt int) {
	d.RetryCount = attempt

	h.mu.Lock()
	h.total++
	h.counts[string(d.Category)+":"+d.ErrType]++
	h.history = append(h.history, d)
	if len(h.history) > historyLimit {
		h.history = h.history[len(h.history)-historyLimit:]
	}
	h.mu.Unlock()

	h.log.Log(d.Severity.ZapLevel(), "collector call failed",
		zap.String("category", string(d.Category)),
		zap.String("err_type", d.ErrType),
		zap.String("message", d.Message),
		zap.Int("retry_count", attempt),
		zap.Time("timestamp", d.Timestamp),
	)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
