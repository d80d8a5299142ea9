// Package dataval runs configurable, named quality rules over a tabular
// dataset and produces one structured report per pass. The input frame is
// never mutated, and a misbehaving rule cannot abort the pass: its failure
// becomes an error-level issue in the report.
package dataval

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fincollect/go-collector-kit/dataset"
)

// Validator is a registry of rules. Rules run in registration order; the
// built-in set is registered first.
type Validator struct {
	mu    sync.Mutex
	rules map[string]*Rule
	order []string
	log   *zap.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithRules registers custom rules after the built-ins. A custom rule
// reusing a built-in name replaces it.
func WithRules(custom ...Rule) Option {
	return func(v *Validator) {
		for _, r := range custom {
			v.AddRule(r)
		}
	}
}

// WithLogger attaches a logger. Nil is ignored.
func WithLogger(log *zap.Logger) Option {
	return func(v *Validator) {
		if log != nil {
			v.log = log
		}
	}
}

// New creates a validator with the built-in rule set registered.
func New(opts ...Option) *Validator {
	v := &Validator{
		rules: make(map[string]*Rule),
		log:   zap.NewNop(),
	}
	for _, r := range builtinRules() {
		v.AddRule(r)
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// AddRule registers a rule. The last registration for a name wins;
// overwriting keeps the original position in the run order.
func (v *Validator) AddRule(r Rule) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.rules[r.Name]; !exists {
		v.order = append(v.order, r.Name)
	}
	v.rules[r.Name] = &r
}

// RemoveRule deletes a rule by name.
func (v *Validator) RemoveRule(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.rules[name]; !ok {
		return false
	}
	delete(v.rules, name)
	for i, n := range v.order {
		if n == name {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	return true
}

// EnableRule turns a rule on by name.
func (v *Validator) EnableRule(name string) bool {
	return v.setEnabled(name, true)
}

// DisableRule turns a rule off by name.
func (v *Validator) DisableRule(name string) bool {
	return v.setEnabled(name, false)
}

func (v *Validator) setEnabled(name string, enabled bool) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	r, ok := v.rules[name]
	if !ok {
		return false
	}
	r.Enabled = enabled
	return true
}

// RuleList returns the registered rules in run order.
func (v *Validator) RuleList() []RuleInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]RuleInfo, 0, len(v.order))
	for _, name := range v.order {
		r := v.rules[name]
		out = append(out, RuleInfo{
			Name:        r.Name,
			Description: r.Description,
			Level:       r.Level,
			Enabled:     r.Enabled,
		})
	}
	return out
}

// Validate runs every enabled rule against the frame and returns the
// report. Rules declaring target columns are skipped when the frame has
// none of them.
func (v *Validator) Validate(f *dataset.Frame, dataType string) *Report {
	v.mu.Lock()
	names := append([]string(nil), v.order...)
	rules := make([]*Rule, 0, len(names))
	for _, name := range names {
		r := *v.rules[name]
		rules = append(rules, &r)
	}
	v.mu.Unlock()

	report := &Report{
		ID:           uuid.New().String(),
		DataType:     dataType,
		TotalRows:    f.NumRows(),
		TotalColumns: f.NumCols(),
		ValidatedAt:  time.Now(),
	}

	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if len(r.Columns) > 0 && !anyColumnPresent(f, r.Columns) {
			continue
		}

		issues, err := runRule(r, f)
		if err != nil {
			report.Issues = append(report.Issues, Issue{
				Rule:    r.Name,
				Level:   LevelError,
				Message: fmt.Sprintf("rule execution failed: %T: %v", err, err),
			})
			report.FailedRules = append(report.FailedRules, r.Name)
			v.log.Warn("validation rule failed to run",
				zap.String("rule", r.Name), zap.Error(err))
			continue
		}

		if len(issues) == 0 {
			report.PassedRules = append(report.PassedRules, r.Name)
			continue
		}

		for _, is := range issues {
			is.Rule = r.Name
			if is.Level == "" {
				is.Level = r.Level
			}
			report.Issues = append(report.Issues, is)
		}
		report.FailedRules = append(report.FailedRules, r.Name)
	}

	v.log.Debug("validation pass finished",
		zap.String("data_type", dataType),
		zap.Int("rows", report.TotalRows),
		zap.Int("issues", len(report.Issues)),
		zap.Bool("valid", report.IsValid()))
	return report
}

// runRule isolates rule execution; a panicking rule is reported as an
// error instead of taking the pass down.
func runRule(r *Rule, f *dataset.Frame) (issues []Issue, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			issues = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.Check(f)
}

func anyColumnPresent(f *dataset.Frame, cols []string) bool {
	for _, c := range cols {
		if f.HasColumn(c) {
			return true
		}
	}
	return false
}
