package collecterr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Classify derives structured details for any error.
//
// Domain errors carry their own details and are returned verbatim. For
// everything else (stdlib, third-party clients) this is a best-effort
// boundary adapter: it probes the type name and message for well-known
// substrings. Collectors should raise domain errors directly; the adapter
// exists only for errors that cross the boundary from foreign code.
func Classify(err error) Details {
	var domain *Error
	if errors.As(err, &domain) {
		return domain.Details()
	}

	text := strings.ToLower(fmt.Sprintf("%T %v", err, err))

	cat, sev := CategoryUnknown, SeverityMedium
	switch {
	case containsAny(text, "connection", "timeout", "network", "http"):
		cat, sev = CategoryNetwork, SeverityHigh
	case containsAny(text, "auth", "token", "credential", "permission"):
		cat, sev = CategoryAuth, SeverityCritical
	case containsAny(text, "rate", "limit", "quota", "throttle"):
		cat, sev = CategoryAPILimit, SeverityHigh
	case containsAny(text, "parse", "json", "value", "type"):
		cat, sev = CategoryData, SeverityMedium
	}

	return Details{
		Category:  cat,
		Severity:  sev,
		Message:   err.Error(),
		Timestamp: time.Now(),
		ErrType:   fmt.Sprintf("%T", err),
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
