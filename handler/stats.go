package handler

import (
	"github.com/fincollect/go-collector-kit/breaker"
	"github.com/fincollect/go-collector-kit/collecterr"
)

// Stats is an observability snapshot; reading it has no behavioral effect.
type Stats struct {
	Name         string                  `json:"name"`
	TotalErrors  int                     `json:"total_errors"`
	CountsByType map[string]int          `json:"counts_by_type"`
	Recent       []collecterr.Details    `json:"recent"`
	Breaker      *breaker.StatusSnapshot `json:"breaker,omitempty"`
}

// Stats returns the error counters, the last 10 recorded errors, and the
// circuit breaker status when one is configured.
func (h *Handler) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	counts := make(map[string]int, len(h.counts))
	for k, v := range h.counts {
		counts[k] = v
	}

	recent := h.history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	recentCopy := make([]collecterr.Details, len(recent))
	copy(recentCopy, recent)

	st := Stats{
		Name:         h.name,
		TotalErrors:  h.total,
		CountsByType: counts,
		Recent:       recentCopy,
	}
	if h.brk != nil {
		s := h.brk.Status()
		st.Breaker = &s
	}
	return st
}
