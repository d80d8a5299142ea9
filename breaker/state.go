package breaker

// State is the breaker's position in its failure-isolation cycle.
type State int

const (
	// StateClosed admits every call.
	StateClosed State = iota

	// StateOpen rejects calls without invoking the wrapped function.
	StateOpen

	// StateHalfOpen admits a single trial call after the open timeout.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}
