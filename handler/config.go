package handler

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/fincollect/go-collector-kit/collecterr"
)

// RetryConfig governs one retry loop: attempt budget, exponential backoff
// shape, and which errors are worth retrying.
type RetryConfig struct {
	// MaxAttempts is the total number of invocations, first call included.
	MaxAttempts int `mapstructure:"max_attempts"`

	// InitialDelay is the backoff before the second attempt.
	InitialDelay time.Duration `mapstructure:"initial_delay"`

	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration `mapstructure:"max_delay"`

	// BackoffFactor is the multiplicative growth per attempt.
	BackoffFactor float64 `mapstructure:"backoff_factor"`

	// Jitter scales each delay by a uniform factor in [0.5, 1.0).
	Jitter bool `mapstructure:"jitter"`

	// RetryOn decides whether a failed attempt is retried. Nil retries
	// every error.
	RetryOn func(error) bool `mapstructure:"-"`
}

// DefaultRetryConfig returns the stock retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		MaxDelay:      60 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// ApplyDefaults fills zero-value fields.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 60 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2.0
	}
}

// Validate rejects unusable retry settings.
func (c RetryConfig) Validate() error {
	if c.MaxDelay < c.InitialDelay {
		return errors.New("handler: max_delay must be >= initial_delay")
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.BackoffFactor, validation.Required, validation.Min(1.0)),
	)
}

// RetryOnCategories builds a RetryOn predicate matching the classified
// category of an error. Typical use retries network and api_limit only.
func RetryOnCategories(cats ...collecterr.Category) func(error) bool {
	set := make(map[collecterr.Category]struct{}, len(cats))
	for _, c := range cats {
		set[c] = struct{}{}
	}
	return func(err error) bool {
		if err == nil {
			return false
		}
		_, ok := set[collecterr.Classify(err).Category]
		return ok
	}
}
