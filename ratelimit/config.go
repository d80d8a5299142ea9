package ratelimit

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds per-limiter quotas. A zero value for a window cap means the
// window is not enforced; at least one of the four window caps must be set.
type Config struct {
	// RequestsPerSecond caps requests over a rolling 1s window (0 = unset).
	RequestsPerSecond int `mapstructure:"requests_per_second"`

	// RequestsPerMinute caps requests over a rolling 60s window (0 = unset).
	RequestsPerMinute int `mapstructure:"requests_per_minute"`

	// RequestsPerHour caps requests over a rolling 1h window (0 = unset).
	RequestsPerHour int `mapstructure:"requests_per_hour"`

	// RequestsPerDay caps requests over a rolling 24h window (0 = unset).
	RequestsPerDay int `mapstructure:"requests_per_day"`

	// BurstLimit caps requests admitted within one burst cycle (0 = unset).
	// The burst cycle is a fixed 60s wall-clock bucket independent of the
	// rolling windows.
	BurstLimit int `mapstructure:"burst_limit"`

	// CooldownPeriod is the wait suggested when the burst limit is hit.
	CooldownPeriod time.Duration `mapstructure:"cooldown_period"`
}

// ApplyDefaults fills zero-value optional fields.
func (c *Config) ApplyDefaults() {
	if c.CooldownPeriod <= 0 {
		c.CooldownPeriod = 60 * time.Second
	}
}

// Validate rejects configurations with no enforceable window. Limiters
// fail at construction, not at call time.
func (c Config) Validate() error {
	if c.RequestsPerSecond == 0 && c.RequestsPerMinute == 0 &&
		c.RequestsPerHour == 0 && c.RequestsPerDay == 0 {
		return ErrNoWindows
	}

	return validation.ValidateStruct(&c,
		validation.Field(&c.RequestsPerSecond, validation.Min(0)),
		validation.Field(&c.RequestsPerMinute, validation.Min(0)),
		validation.Field(&c.RequestsPerHour, validation.Min(0)),
		validation.Field(&c.RequestsPerDay, validation.Min(0)),
		validation.Field(&c.BurstLimit, validation.Min(0)),
	)
}

// window is one rolling interval with its cap.
type window struct {
	name  string
	span  time.Duration
	limit int
}

// windows lists the enforced windows in ascending span order.
func (c Config) windows() []window {
	var ws []window
	if c.RequestsPerSecond > 0 {
		ws = append(ws, window{name: "second", span: time.Second, limit: c.RequestsPerSecond})
	}
	if c.RequestsPerMinute > 0 {
		ws = append(ws, window{name: "minute", span: time.Minute, limit: c.RequestsPerMinute})
	}
	if c.RequestsPerHour > 0 {
		ws = append(ws, window{name: "hour", span: time.Hour, limit: c.RequestsPerHour})
	}
	if c.RequestsPerDay > 0 {
		ws = append(ws, window{name: "day", span: 24 * time.Hour, limit: c.RequestsPerDay})
	}
	return ws
}
