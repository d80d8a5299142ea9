// Package dataset provides the column-ordered tabular frame collectors
// build from upstream responses and hand to the validator. A Frame is a
// small, read-mostly structure: named columns of equal length holding
// dynamically typed cells, with nil marking a missing value.
package dataset

import (
	"fmt"
)

// Frame is an immutable-by-convention table. Constructors validate shape;
// accessors never mutate.
type Frame struct {
	cols []string
	data map[string][]any
	rows int
}

// FromColumns builds a frame from named columns. All columns must have the
// same length; column order is preserved.
func FromColumns(cols []string, data map[string][]any) (*Frame, error) {
	if len(cols) != len(data) {
		return nil, fmt.Errorf("dataset: %d column names for %d columns", len(cols), len(data))
	}
	rows := -1
	for _, name := range cols {
		col, ok := data[name]
		if !ok {
			return nil, fmt.Errorf("dataset: column %q missing from data", name)
		}
		if rows == -1 {
			rows = len(col)
		} else if len(col) != rows {
			return nil, fmt.Errorf("dataset: column %q has %d rows, want %d", name, len(col), rows)
		}
	}
	if rows == -1 {
		rows = 0
	}
	return &Frame{cols: append([]string(nil), cols...), data: data, rows: rows}, nil
}

// FromRecords builds a frame from row-major records.
func FromRecords(cols []string, records [][]any) (*Frame, error) {
	data := make(map[string][]any, len(cols))
	for _, name := range cols {
		data[name] = make([]any, 0, len(records))
	}
	for i, rec := range records {
		if len(rec) != len(cols) {
			return nil, fmt.Errorf("dataset: record %d has %d cells, want %d", i, len(rec), len(cols))
		}
		for j, name := range cols {
			data[name] = append(data[name], rec[j])
		}
	}
	return FromColumns(cols, data)
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.cols...)
}

// HasColumn reports whether name is a column of the frame.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.data[name]
	return ok
}

// Column returns the cells of one column.
func (f *Frame) Column(name string) ([]any, bool) {
	col, ok := f.data[name]
	return col, ok
}

// NumRows returns the row count.
func (f *Frame) NumRows() int {
	return f.rows
}

// NumCols returns the column count.
func (f *Frame) NumCols() int {
	return len(f.cols)
}

// Row returns the cells of row i in column order.
func (f *Frame) Row(i int) []any {
	row := make([]any, len(f.cols))
	for j, name := range f.cols {
		row[j] = f.data[name][i]
	}
	return row
}
