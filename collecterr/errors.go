package collecterr

import (
	"fmt"
	"time"
)

// Error is the base domain error. Every error a collector surfaces wraps
// one of these so callers can always reach a Details.
//
// Mutators follow clone-on-write: they return a new instance and never
// modify the receiver.
type Error struct {
	details Details
	cause   error
}

// New creates a domain error with an explicit category and severity.
func New(cat Category, sev Severity, msg string) *Error {
	return &Error{
		details: Details{
			Category:  cat,
			Severity:  sev,
			Message:   msg,
			Timestamp: time.Now(),
			ErrType:   typeName(cat),
		},
	}
}

// Wrap creates a domain error around an existing cause.
func Wrap(cause error, cat Category, sev Severity, msg string) *Error {
	e := New(cat, sev, msg)
	e.cause = cause
	if cause != nil {
		e.details.ErrType = fmt.Sprintf("%T", cause)
	}
	return e
}

// FromDetails creates a domain error from an already-classified Details.
func FromDetails(d Details, cause error) *Error {
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	return &Error{details: d, cause: cause}
}

// NewNetwork creates a connectivity/transport error (NETWORK, HIGH).
// statusCode is recorded in the context when non-zero.
func NewNetwork(msg string, statusCode int) *Error {
	e := New(CategoryNetwork, SeverityHigh, msg)
	if statusCode != 0 {
		e.details.Context = map[string]any{"status_code": statusCode}
	}
	return e
}

// NewAPILimit creates a quota/throttling error (API_LIMIT, HIGH).
// resetAt is recorded in the context when set.
func NewAPILimit(msg string, resetAt time.Time) *Error {
	e := New(CategoryAPILimit, SeverityHigh, msg)
	if !resetAt.IsZero() {
		e.details.Context = map[string]any{"reset_at": resetAt}
	}
	return e
}

// NewAuth creates a credential/permission error (AUTH, CRITICAL).
func NewAuth(msg string) *Error {
	return New(CategoryAuth, SeverityCritical, msg)
}

// NewDataValidation creates a data-quality error (DATA, MEDIUM).
func NewDataValidation(msg string, details map[string]any) *Error {
	e := New(CategoryData, SeverityMedium, msg)
	if len(details) > 0 {
		e.details.Context = details
	}
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.details.Message, e.cause)
	}
	return e.details.Message
}

// Unwrap supports errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Details returns a copy of the structured details.
func (e *Error) Details() Details {
	return e.details
}

// Category returns the error category.
func (e *Error) Category() Category {
	return e.details.Category
}

// Severity returns the error severity.
func (e *Error) Severity() Severity {
	return e.details.Severity
}

// WithContext returns a copy with one context entry added.
func (e *Error) WithContext(key string, value any) *Error {
	clone := *e
	clone.details.Context = cloneContext(e.details.Context)
	clone.details.Context[key] = value
	return &clone
}

// WithRetryCount returns a copy with the retry count stamped.
func (e *Error) WithRetryCount(n int) *Error {
	clone := *e
	clone.details.RetryCount = n
	return &clone
}

func cloneContext(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func typeName(cat Category) string {
	switch cat {
	case CategoryNetwork:
		return "NetworkError"
	case CategoryAPILimit:
		return "APILimitError"
	case CategoryAuth:
		return "AuthenticationError"
	case CategoryData:
		return "DataValidationError"
	default:
		return "CollectorError"
	}
}
