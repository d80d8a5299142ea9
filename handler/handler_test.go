package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincollect/go-collector-kit/breaker"
	"github.com/fincollect/go-collector-kit/collecterr"
)

// newTestHandler builds a handler whose backoff sleeps are recorded
// instead of slept.
func newTestHandler(t *testing.T, opts ...Option) (*Handler, *[]time.Duration) {
	t.Helper()
	h, err := New("test", opts...)
	require.NoError(t, err)

	var slept []time.Duration
	h.sleep = func(ctx context.Context, d time.Duration) bool {
		slept = append(slept, d)
		return true
	}
	h.randf = func() float64 { return 1.0 } // no jitter shrink in tests
	return h, &slept
}

func retryOnNetwork() Option {
	return WithRetryConfig(RetryConfig{
		MaxAttempts: 3,
		RetryOn:     RetryOnCategories(collecterr.CategoryNetwork),
	})
}

func TestRun_SucceedsFirstTry(t *testing.T) {
	h, slept := newTestHandler(t)
	calls := 0

	err := h.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
	assert.Equal(t, 0, h.Stats().TotalErrors)
}

func TestRun_RetriesThenSucceeds(t *testing.T) {
	h, slept := newTestHandler(t, retryOnNetwork())
	calls := 0

	err := h.Run(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return collecterr.NewNetwork("flaky upstream", 503)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *slept, 2)

	// Exactly the two failed attempts are on record.
	st := h.Stats()
	assert.Equal(t, 2, st.TotalErrors)
	assert.Equal(t, 2, st.CountsByType["network:NetworkError"])
	require.Len(t, st.Recent, 2)
	assert.Equal(t, 1, st.Recent[1].RetryCount)
}

func TestRun_NonRetryableFailsOnFirstAttempt(t *testing.T) {
	h, slept := newTestHandler(t, retryOnNetwork())
	calls := 0

	err := h.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return collecterr.NewAuth("key revoked")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-retryable errors consume no retry")
	assert.Empty(t, *slept)

	var domain *collecterr.Error
	require.ErrorAs(t, err, &domain)
	assert.Equal(t, collecterr.CategoryAuth, domain.Category())
}

func TestRun_FinalAttemptIsNeverRetried(t *testing.T) {
	h, slept := newTestHandler(t, retryOnNetwork())
	calls := 0

	err := h.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return collecterr.NewNetwork("still down", 0)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *slept, 2, "no sleep after the final attempt")
	assert.Equal(t, 3, h.Stats().TotalErrors)
}

func TestRun_DomainErrorPropagatesUnchanged(t *testing.T) {
	h, _ := newTestHandler(t)
	orig := collecterr.NewAPILimit("throttled", time.Time{})

	err := h.Run(context.Background(), func(ctx context.Context) error {
		return orig
	})

	assert.ErrorIs(t, err, orig)
}

func TestRun_ForeignErrorIsWrappedWithDetails(t *testing.T) {
	h, _ := newTestHandler(t, WithRetryConfig(RetryConfig{MaxAttempts: 1}))
	cause := errors.New("connection refused")

	err := h.Run(context.Background(), func(ctx context.Context) error {
		return cause
	})

	var domain *collecterr.Error
	require.ErrorAs(t, err, &domain)
	assert.Equal(t, collecterr.CategoryNetwork, domain.Category())
	assert.ErrorIs(t, err, cause)
}

func TestRunWithData_ReturnsResult(t *testing.T) {
	h, _ := newTestHandler(t)

	got, err := RunWithData(context.Background(), h, func(ctx context.Context) (string, error) {
		return "payload", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "payload", got)
}

func TestBackoff_ExponentialWithCap(t *testing.T) {
	h, slept := newTestHandler(t, WithRetryConfig(RetryConfig{
		MaxAttempts:   4,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      250 * time.Millisecond,
		BackoffFactor: 2.0,
	}))

	_ = h.Run(context.Background(), func(ctx context.Context) error {
		return collecterr.NewNetwork("down", 0)
	})

	require.Len(t, *slept, 3)
	assert.Equal(t, 100*time.Millisecond, (*slept)[0])
	assert.Equal(t, 200*time.Millisecond, (*slept)[1])
	assert.Equal(t, 250*time.Millisecond, (*slept)[2], "delay is capped at MaxDelay")
}

func TestBackoff_JitterScalesDown(t *testing.T) {
	h, err := New("test", WithRetryConfig(RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Second,
		Jitter:       true,
	}))
	require.NoError(t, err)
	h.randf = func() float64 { return 0 } // lowest jitter draw

	assert.Equal(t, 500*time.Millisecond, h.delay(0))
}

func TestHistory_IsBounded(t *testing.T) {
	h, _ := newTestHandler(t, WithRetryConfig(RetryConfig{MaxAttempts: 1}))

	for i := 0; i < historyLimit+20; i++ {
		_ = h.Run(context.Background(), func(ctx context.Context) error {
			return collecterr.NewNetwork("down", 0)
		})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Len(t, h.history, historyLimit)
	assert.Equal(t, historyLimit+20, h.total)
}

func TestStats_RecentKeepsLastTen(t *testing.T) {
	h, _ := newTestHandler(t, WithRetryConfig(RetryConfig{MaxAttempts: 1}))

	for i := 0; i < 25; i++ {
		_ = h.Run(context.Background(), func(ctx context.Context) error {
			return collecterr.NewNetwork("down", 0)
		})
	}

	st := h.Stats()
	assert.Equal(t, 25, st.TotalErrors)
	assert.Len(t, st.Recent, 10)
	assert.Nil(t, st.Breaker)
}

func TestWithBreaker_OpenBreakerStopsRetries(t *testing.T) {
	h, _ := newTestHandler(t,
		WithRetryConfig(RetryConfig{MaxAttempts: 5}),
		WithBreaker(breaker.Config{FailureThreshold: 2, Timeout: time.Hour}),
	)
	calls := 0

	err := h.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return collecterr.NewNetwork("down", 0)
	})

	require.Error(t, err)
	// Two real attempts trip the breaker; the remaining attempts fail
	// fast without invoking the function.
	assert.Equal(t, 2, calls)
	assert.Equal(t, breaker.StateOpen, h.Breaker().State())

	st := h.Stats()
	require.NotNil(t, st.Breaker)
	assert.Equal(t, "open", st.Breaker.State)
}

func TestWithBreaker_OpenErrorIsWrappedAsDomainError(t *testing.T) {
	h, _ := newTestHandler(t,
		WithRetryConfig(RetryConfig{MaxAttempts: 1}),
		WithBreaker(breaker.Config{FailureThreshold: 1, Timeout: time.Hour}),
	)

	_ = h.Run(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})

	err := h.Run(context.Background(), func(ctx context.Context) error {
		t.Fatal("must not be invoked while breaker is open")
		return nil
	})

	var domain *collecterr.Error
	require.ErrorAs(t, err, &domain)
	var openErr *breaker.OpenError
	assert.ErrorAs(t, err, &openErr)
}

func TestRetryConfig_Validate(t *testing.T) {
	bad := RetryConfig{MaxAttempts: 3, InitialDelay: time.Minute, MaxDelay: time.Second, BackoffFactor: 2}
	assert.Error(t, bad.Validate())

	good := DefaultRetryConfig()
	good.ApplyDefaults()
	assert.NoError(t, good.Validate())
}

func TestRetryOnCategories(t *testing.T) {
	pred := RetryOnCategories(collecterr.CategoryNetwork, collecterr.CategoryAPILimit)

	assert.True(t, pred(collecterr.NewNetwork("down", 0)))
	assert.True(t, pred(errors.New("rate limit hit")))
	assert.False(t, pred(collecterr.NewAuth("denied")))
	assert.False(t, pred(nil))
}
