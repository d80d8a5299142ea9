package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream exploded")

func newTestBreaker(t *testing.T, cfg Config) (*Breaker, *time.Time) {
	t.Helper()
	b, err := New(cfg, "test")
	require.NoError(t, err)
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func failing(ctx context.Context) error { return errUpstream }

func succeeding(ctx context.Context) error { return nil }

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{FailureThreshold: -1, Timeout: time.Second}, "bad")
	assert.Error(t, err)
}

func TestBreaker_StartsClosed(t *testing.T) {
	b, _ := newTestBreaker(t, Config{FailureThreshold: 3, Timeout: time.Minute})
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.FailureCount())
}

func TestBreaker_TripsAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(t, Config{FailureThreshold: 3, Timeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, b.Do(ctx, failing), errUpstream)
		assert.Equal(t, StateClosed, b.State())
	}

	// Third consecutive failure trips the breaker.
	assert.ErrorIs(t, b.Do(ctx, failing), errUpstream)
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, 3, b.FailureCount())
}

func TestBreaker_OpenFailsFastWithoutInvoking(t *testing.T) {
	b, _ := newTestBreaker(t, Config{FailureThreshold: 1, Timeout: time.Minute})
	ctx := context.Background()

	require.Error(t, b.Do(ctx, failing))
	require.Equal(t, StateOpen, b.State())

	invoked := false
	err := b.Do(ctx, func(ctx context.Context) error {
		invoked = true
		return nil
	})

	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "test", openErr.Name)
	assert.Greater(t, openErr.RetryAfter, time.Duration(0))
	assert.False(t, invoked, "open breaker must not invoke the function")
}

func TestBreaker_HalfOpenAfterTimeout_SuccessCloses(t *testing.T) {
	b, now := newTestBreaker(t, Config{FailureThreshold: 1, Timeout: 30 * time.Second})
	ctx := context.Background()

	require.Error(t, b.Do(ctx, failing))
	require.Equal(t, StateOpen, b.State())

	*now = now.Add(31 * time.Second)

	invoked := false
	err := b.Do(ctx, func(ctx context.Context) error {
		invoked = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, invoked, "trial call must run after the timeout")
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.FailureCount())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker(t, Config{FailureThreshold: 1, Timeout: 30 * time.Second})
	ctx := context.Background()

	require.Error(t, b.Do(ctx, failing))
	*now = now.Add(31 * time.Second)

	// Trial call fails: straight back to Open with a fresh timeout.
	assert.ErrorIs(t, b.Do(ctx, failing), errUpstream)
	assert.Equal(t, StateOpen, b.State())

	var openErr *OpenError
	err := b.Do(ctx, succeeding)
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, 30*time.Second, openErr.RetryAfter)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(t, Config{FailureThreshold: 3, Timeout: time.Minute})
	ctx := context.Background()

	require.Error(t, b.Do(ctx, failing))
	require.Error(t, b.Do(ctx, failing))
	require.Equal(t, 2, b.FailureCount())

	require.NoError(t, b.Do(ctx, succeeding))
	assert.Equal(t, 0, b.FailureCount())

	// The run of failures starts over.
	require.Error(t, b.Do(ctx, failing))
	require.Error(t, b.Do(ctx, failing))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_NonMatchingErrorsAreNotCounted(t *testing.T) {
	errIgnored := errors.New("shape mismatch")
	cfg := Config{
		FailureThreshold: 1,
		Timeout:          time.Minute,
		IsFailure:        func(err error) bool { return errors.Is(err, errUpstream) },
	}
	b, _ := newTestBreaker(t, cfg)
	ctx := context.Background()

	// Propagates but leaves the breaker untouched.
	assert.ErrorIs(t, b.Do(ctx, func(ctx context.Context) error { return errIgnored }), errIgnored)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.FailureCount())

	assert.ErrorIs(t, b.Do(ctx, failing), errUpstream)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newTestBreaker(t, Config{FailureThreshold: 1, Timeout: time.Hour})
	ctx := context.Background()

	require.Error(t, b.Do(ctx, failing))
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.FailureCount())
	require.NoError(t, b.Do(ctx, succeeding))
}

func TestBreaker_Status(t *testing.T) {
	b, _ := newTestBreaker(t, Config{FailureThreshold: 2, Timeout: time.Minute})
	ctx := context.Background()

	require.Error(t, b.Do(ctx, failing))

	st := b.Status()
	assert.Equal(t, "test", st.Name)
	assert.Equal(t, "closed", st.State)
	assert.Equal(t, 1, st.FailureCount)
	assert.False(t, st.LastFailure.IsZero())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half_open", StateHalfOpen.String())
}
