package ratelimit

import "errors"

var (
	// ErrNoWindows is returned when a Config enables none of the four
	// window caps.
	ErrNoWindows = errors.New("ratelimit: config must set at least one window cap")
)
