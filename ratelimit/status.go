package ratelimit

import "time"

// WindowStatus is the observed usage of one rolling window.
type WindowStatus struct {
	Name      string `json:"name"`
	Current   int    `json:"current"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

// Status is a point-in-time snapshot for one endpoint, for observability.
type Status struct {
	Endpoint   string         `json:"endpoint"`
	Windows    []WindowStatus `json:"windows"`
	BurstCount int            `json:"burst_count"`
	BurstLimit int            `json:"burst_limit"`
	CanProceed bool           `json:"can_proceed"`
	WaitTime   time.Duration  `json:"wait_time"`
}

// Status reports current usage per window plus the admission decision the
// endpoint would get right now.
func (l *Limiter) Status(endpoint string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	st := Status{
		Endpoint:   endpoint,
		BurstLimit: l.cfg.BurstLimit,
	}

	for _, w := range l.ws {
		q := l.trimLocked(endpoint, w, now)
		remaining := w.limit - len(q)
		if remaining < 0 {
			remaining = 0
		}
		st.Windows = append(st.Windows, WindowStatus{
			Name:      w.name,
			Current:   len(q),
			Limit:     w.limit,
			Remaining: remaining,
		})
	}

	st.CanProceed, st.WaitTime = l.canProceedLocked(endpoint, now)
	st.BurstCount = l.burstCount
	return st
}
