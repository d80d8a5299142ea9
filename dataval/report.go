package dataval

import "time"

// Issue is one finding from one rule.
type Issue struct {
	Rule       string         `json:"rule"`
	Level      Level          `json:"level"`
	Message    string         `json:"message"`
	Column     string         `json:"column,omitempty"`
	RowIndices []int          `json:"row_indices,omitempty"`
	Count      int            `json:"count,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// Report is the one-shot result of a validation pass. It is not mutated
// after Validate returns.
type Report struct {
	ID           string    `json:"id"`
	DataType     string    `json:"data_type"`
	TotalRows    int       `json:"total_rows"`
	TotalColumns int       `json:"total_columns"`
	Issues       []Issue   `json:"issues"`
	PassedRules  []string  `json:"passed_rules"`
	FailedRules  []string  `json:"failed_rules"`
	ValidatedAt  time.Time `json:"validated_at"`
}

// IsValid reports whether the pass found no error-level issues. Warnings
// and info findings do not affect validity.
func (r *Report) IsValid() bool {
	for _, is := range r.Issues {
		if is.Level == LevelError {
			return false
		}
	}
	return true
}

// IssuesByLevel groups the issues for display.
func (r *Report) IssuesByLevel() map[Level][]Issue {
	out := make(map[Level][]Issue)
	for _, is := range r.Issues {
		out[is.Level] = append(out[is.Level], is)
	}
	return out
}
