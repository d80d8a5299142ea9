package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ReadCSV parses a CSV stream into a frame. The first record is the
// header. Empty fields become nil; fields that parse as numbers become
// float64; everything else stays a string.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset: csv input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read csv header: %w", err)
	}

	var records [][]any
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read csv record: %w", err)
		}
		row := make([]any, len(rec))
		for i, field := range rec {
			row[i] = parseField(field)
		}
		records = append(records, row)
	}

	return FromRecords(header, records)
}

func parseField(s string) any {
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
