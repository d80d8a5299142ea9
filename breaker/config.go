package breaker

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config controls when a breaker trips and how long it stays open.
type Config struct {
	// FailureThreshold is the number of consecutive counted failures that
	// trips the breaker from Closed to Open.
	FailureThreshold int `mapstructure:"failure_threshold"`

	// Timeout is how long the breaker stays Open before allowing one
	// trial call (HalfOpen).
	Timeout time.Duration `mapstructure:"timeout"`

	// IsFailure decides whether an error counts against the breaker.
	// Nil means every error counts. Errors it rejects propagate to the
	// caller without touching breaker state.
	IsFailure func(error) bool `mapstructure:"-"`
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		Timeout:          60 * time.Second,
	}
}

// ApplyDefaults fills zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}

// Validate rejects unusable thresholds.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.FailureThreshold, validation.Required, validation.Min(1)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}
