// Package ratelimit provides request admission control for collectors.
// One Limiter guards one upstream API; every HTTP call acquires a slot
// first. Quotas are enforced over several simultaneous rolling windows
// (second/minute/hour/day) plus a short-cycle burst allowance.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// burstCycle is the fixed wall-clock bucket for the burst counter.
	// It is deliberately independent of the rolling windows.
	burstCycle = 60 * time.Second

	// maxPollSleep bounds a single wait between admission checks so a
	// shrinking window is noticed promptly.
	maxPollSleep = time.Second

	// defaultPollSleep is used when no window suggested a wait.
	defaultPollSleep = 100 * time.Millisecond
)

// Limiter admits requests per endpoint without exceeding the configured
// quotas. Safe for concurrent use; all state is guarded by one mutex.
type Limiter struct {
	name string
	cfg  Config
	ws   []window

	mu sync.Mutex
	// history holds admission timestamps per (endpoint, window), oldest
	// first. Trimmed lazily on every check.
	history      map[string]map[string][]time.Time
	burstCount   int
	burstResetAt time.Time

	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) bool
	log     *zap.Logger
	metrics *otelMetrics
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger attaches a logger. Nil is ignored.
func WithLogger(log *zap.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.log = log.With(zap.String("limiter", l.name))
		}
	}
}

// New creates a limiter named after the API it guards. Construction fails
// when the config enables no window at all.
func New(cfg Config, name string, opts ...Option) (*Limiter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Limiter{
		name:    name,
		cfg:     cfg,
		ws:      cfg.windows(),
		history: make(map[string]map[string][]time.Time),
		now:     time.Now,
		sleep:   sleepCtx,
		log:     zap.NewNop(),
	}
	l.burstResetAt = l.now().Add(burstCycle)

	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// CanProceed reports whether a request against endpoint would be admitted
// right now. When it would not, the returned duration is the longest wait
// any saturated window demands.
func (l *Limiter) CanProceed(endpoint string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canProceedLocked(endpoint, l.now())
}

func (l *Limiter) canProceedLocked(endpoint string, now time.Time) (bool, time.Duration) {
	var wait time.Duration

	for _, w := range l.ws {
		q := l.trimLocked(endpoint, w, now)
		if len(q) >= w.limit {
			// Oldest entry leaving the window frees one slot.
			if d := q[0].Add(w.span).Sub(now); d > wait {
				wait = d
			}
		}
	}

	if l.cfg.BurstLimit > 0 {
		if now.After(l.burstResetAt) {
			l.burstCount = 0
			l.burstResetAt = now.Add(burstCycle)
		}
		if l.burstCount >= l.cfg.BurstLimit && l.cfg.CooldownPeriod > wait {
			wait = l.cfg.CooldownPeriod
		}
	}

	return wait <= 0, wait
}

// trimLocked drops timestamps older than the window and returns the queue.
func (l *Limiter) trimLocked(endpoint string, w window, now time.Time) []time.Time {
	byWindow, ok := l.history[endpoint]
	if !ok {
		return nil
	}
	q := byWindow[w.name]
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(q) && !q[i].After(cutoff) {
		i++
	}
	if i > 0 {
		q = q[i:]
		byWindow[w.name] = q
	}
	return q
}

// Acquire blocks until a slot for endpoint is admitted or the timeout
// elapses. It returns false on timeout or context cancellation, never an
// error; timeout <= 0 means wait indefinitely (subject to ctx).
func (l *Limiter) Acquire(ctx context.Context, endpoint string, timeout time.Duration) bool {
	start := l.now()

	for {
		l.mu.Lock()
		now := l.now()
		ok, wait := l.canProceedLocked(endpoint, now)
		if ok {
			l.admitLocked(endpoint, now)
			l.mu.Unlock()
			l.metrics.recordAdmitted(ctx, endpoint)
			return true
		}
		l.mu.Unlock()

		if timeout > 0 && l.now().Sub(start) >= timeout {
			l.metrics.recordRejected(ctx, endpoint)
			l.log.Debug("acquire timed out",
				zap.String("endpoint", endpoint),
				zap.Duration("timeout", timeout))
			return false
		}

		d := defaultPollSleep
		if wait > 0 {
			d = wait
			if d > maxPollSleep {
				d = maxPollSleep
			}
		}
		if timeout > 0 {
			if remaining := timeout - l.now().Sub(start); remaining < d {
				d = remaining
			}
		}
		if !l.sleep(ctx, d) {
			l.metrics.recordRejected(ctx, endpoint)
			return false
		}
	}
}

// admitLocked records one admission in every window queue and the burst
// counter.
func (l *Limiter) admitLocked(endpoint string, now time.Time) {
	byWindow, ok := l.history[endpoint]
	if !ok {
		byWindow = make(map[string][]time.Time, len(l.ws))
		l.history[endpoint] = byWindow
	}
	for _, w := range l.ws {
		byWindow[w.name] = append(byWindow[w.name], now)
	}
	l.burstCount++
}

// Reset clears the recorded history for one endpoint.
func (l *Limiter) Reset(endpoint string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.history, endpoint)
}

// ResetAll clears all endpoints and the burst counter.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = make(map[string]map[string][]time.Time)
	l.burstCount = 0
	l.burstResetAt = l.now().Add(burstCycle)
}

// sleepCtx waits for d unless the context is cancelled first.
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
