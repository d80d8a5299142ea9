package dataval

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fincollect/go-collector-kit/dataset"
)

// symbolPattern accepts exchange tickers like AAPL or BRK.B.
var symbolPattern = regexp.MustCompile(`^[A-Z]{1,5}(\.[A-Z]{1,3})?$`)

// dateLayouts are probed in order when coercing string cells to dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"2006/01/02",
}

// builtinRules returns the stock rule set in registration order.
func builtinRules() []Rule {
	return []Rule{
		{
			Name:        "missing_values",
			Description: "counts null cells per column; a column more than half empty is an error",
			Level:       LevelWarning,
			Enabled:     true,
			Check:       checkMissingValues,
		},
		{
			Name:        "duplicate_rows",
			Description: "flags exact duplicate rows",
			Level:       LevelWarning,
			Enabled:     true,
			Check:       checkDuplicateRows,
		},
		{
			Name:        "numerical_outliers",
			Description: "flags numeric values outside the 1.5*IQR fences",
			Level:       LevelInfo,
			Enabled:     true,
			Check:       checkNumericalOutliers,
		},
		{
			Name:        "date_formats",
			Description: "counts unparseable values in date-like columns",
			Level:       LevelWarning,
			Enabled:     true,
			Check:       checkDateFormats,
		},
		{
			Name:        "stock_symbols",
			Description: "flags malformed tickers in symbol-like columns",
			Level:       LevelError,
			Enabled:     true,
			Check:       checkStockSymbols,
		},
		{
			Name:        "negative_prices",
			Description: "flags negative values in price-like columns",
			Level:       LevelError,
			Enabled:     true,
			Check:       checkNegativePrices,
		},
	}
}

func checkMissingValues(f *dataset.Frame) ([]Issue, error) {
	var issues []Issue
	rows := f.NumRows()
	if rows == 0 {
		return nil, nil
	}

	for _, name := range f.Columns() {
		col, _ := f.Column(name)
		missing := 0
		for _, v := range col {
			if dataset.IsNull(v) {
				missing++
			}
		}
		if missing == 0 {
			continue
		}
		pct := float64(missing) / float64(rows) * 100
		level := LevelWarning
		if pct > 50 {
			level = LevelError
		}
		issues = append(issues, Issue{
			Level:   level,
			Column:  name,
			Count:   missing,
			Message: fmt.Sprintf("column %q has %d missing values (%.1f%%)", name, missing, pct),
			Details: map[string]any{"missing_count": missing, "missing_percentage": pct},
		})
	}
	return issues, nil
}

func checkDuplicateRows(f *dataset.Frame) ([]Issue, error) {
	seen := make(map[string]int, f.NumRows())
	var dupes []int
	for i := 0; i < f.NumRows(); i++ {
		key := fmt.Sprintf("%#v", f.Row(i))
		if _, ok := seen[key]; ok {
			dupes = append(dupes, i)
			continue
		}
		seen[key] = i
	}
	if len(dupes) == 0 {
		return nil, nil
	}
	return []Issue{{
		Count:      len(dupes),
		RowIndices: dupes,
		Message:    fmt.Sprintf("found %d duplicate rows", len(dupes)),
	}}, nil
}

func checkNumericalOutliers(f *dataset.Frame) ([]Issue, error) {
	var issues []Issue
	for _, name := range f.Columns() {
		col, _ := f.Column(name)

		var values []float64
		var rowIdx []int
		for i, v := range col {
			if x, ok := dataset.AsFloat(v); ok {
				values = append(values, x)
				rowIdx = append(rowIdx, i)
			}
		}
		if len(values) < 4 {
			continue
		}

		q1, q3 := quartiles(values)
		iqr := q3 - q1
		lo, hi := q1-1.5*iqr, q3+1.5*iqr

		var outRows []int
		var samples []float64
		for j, x := range values {
			if x < lo || x > hi {
				outRows = append(outRows, rowIdx[j])
				if len(samples) < 10 {
					samples = append(samples, x)
				}
			}
		}
		if len(outRows) == 0 {
			continue
		}
		issues = append(issues, Issue{
			Column:     name,
			Count:      len(outRows),
			RowIndices: outRows,
			Message:    fmt.Sprintf("column %q has %d outliers outside [%.4g, %.4g]", name, len(outRows), lo, hi),
			Details:    map[string]any{"sample_values": samples, "lower_fence": lo, "upper_fence": hi},
		})
	}
	return issues, nil
}

// quartiles computes Q1/Q3 with linear interpolation between ranks.
func quartiles(values []float64) (q1, q3 float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return quantile(sorted, 0.25), quantile(sorted, 0.75)
}

func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func checkDateFormats(f *dataset.Frame) ([]Issue, error) {
	var issues []Issue
	for _, name := range f.Columns() {
		lower := strings.ToLower(name)
		if !strings.Contains(lower, "date") && !strings.Contains(lower, "time") {
			continue
		}
		col, _ := f.Column(name)
		bad := 0
		for _, v := range col {
			if dataset.IsNull(v) {
				continue
			}
			if !parseableAsDate(v) {
				bad++
			}
		}
		if bad == 0 {
			continue
		}
		issues = append(issues, Issue{
			Column:  name,
			Count:   bad,
			Message: fmt.Sprintf("column %q has %d values not parseable as dates", name, bad),
		})
	}
	return issues, nil
}

func parseableAsDate(v any) bool {
	switch x := v.(type) {
	case time.Time:
		return true
	case string:
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, x); err == nil {
				return true
			}
		}
		return false
	}
	// Numeric cells are treated as epoch-style values.
	_, ok := dataset.AsFloat(v)
	return ok
}

func checkStockSymbols(f *dataset.Frame) ([]Issue, error) {
	var issues []Issue
	for _, name := range f.Columns() {
		lower := strings.ToLower(name)
		if !strings.Contains(lower, "symbol") && !strings.Contains(lower, "ticker") {
			continue
		}
		col, _ := f.Column(name)
		var badRows []int
		var samples []string
		for i, v := range col {
			s, ok := dataset.AsString(v)
			if !ok {
				continue
			}
			if !symbolPattern.MatchString(s) {
				badRows = append(badRows, i)
				if len(samples) < 10 {
					samples = append(samples, s)
				}
			}
		}
		if len(badRows) == 0 {
			continue
		}
		issues = append(issues, Issue{
			Column:     name,
			Count:      len(badRows),
			RowIndices: badRows,
			Message:    fmt.Sprintf("column %q has %d invalid ticker symbols", name, len(badRows)),
			Details:    map[string]any{"sample_values": samples},
		})
	}
	return issues, nil
}

func checkNegativePrices(f *dataset.Frame) ([]Issue, error) {
	priceLike := []string{"price", "close", "open", "high", "low", "value"}

	var issues []Issue
	for _, name := range f.Columns() {
		lower := strings.ToLower(name)
		matched := false
		for _, frag := range priceLike {
			if strings.Contains(lower, frag) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		col, _ := f.Column(name)
		var badRows []int
		for i, v := range col {
			if x, ok := dataset.AsFloat(v); ok && x < 0 {
				badRows = append(badRows, i)
			}
		}
		if len(badRows) == 0 {
			continue
		}
		issues = append(issues, Issue{
			Column:     name,
			Count:      len(badRows),
			RowIndices: badRows,
			Message:    fmt.Sprintf("column %q has %d negative values", name, len(badRows)),
		})
	}
	return issues, nil
}
