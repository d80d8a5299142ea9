package dataval

import "github.com/fincollect/go-collector-kit/dataset"

// Level ranks validation findings. Only LevelError affects Report.IsValid.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// CheckFunc inspects a frame and returns zero or more issues. A non-nil
// error marks the rule itself as broken; the validator converts it into a
// synthesized error-level issue and keeps running the remaining rules.
type CheckFunc func(f *dataset.Frame) ([]Issue, error)

// Rule is one named, independently toggleable check.
type Rule struct {
	// Name is the unique registry key; re-registering a name overwrites.
	Name string

	// Description explains what the rule looks for.
	Description string

	// Check runs the rule.
	Check CheckFunc

	// Level is the default level for issues the rule reports. An issue
	// may carry its own level to escalate a single finding.
	Level Level

	// Columns restricts the rule to frames containing at least one of
	// these columns. Empty means the rule applies to any frame.
	Columns []string

	// Enabled gates execution; disabled rules are skipped silently.
	Enabled bool
}

// RuleInfo is the listing view of a registered rule.
type RuleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Level       Level  `json:"level"`
	Enabled     bool   `json:"enabled"`
}
