// Package collecterr provides the domain error types shared by every
// collector: a closed taxonomy of categories and severities, an Error type
// carrying structured details, and a best-effort classifier for errors
// raised outside the collector boundary.
package collecterr

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// Category classifies where an error originated.
type Category string

const (
	CategoryNetwork  Category = "network"
	CategoryAPILimit Category = "api_limit"
	CategoryAuth     Category = "authentication"
	CategoryData     Category = "data"
	CategoryConfig   Category = "configuration"
	CategorySystem   Category = "system"
	CategoryUnknown  Category = "unknown"
)

// Severity ranks how serious an error is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ZapLevel maps a severity to the level collectors log it at.
func (s Severity) ZapLevel() zapcore.Level {
	switch s {
	case SeverityCritical, SeverityHigh:
		return zapcore.ErrorLevel
	case SeverityMedium:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// Details is the structured record attached to every domain error.
// Immutable after creation except RetryCount, which the retry handler
// stamps as attempts accumulate.
type Details struct {
	Category   Category       `json:"category"`
	Severity   Severity       `json:"severity"`
	Message    string         `json:"message"`
	Timestamp  time.Time      `json:"timestamp"`
	ErrType    string         `json:"err_type"`
	Context    map[string]any `json:"context,omitempty"`
	RetryCount int            `json:"retry_count"`
}
