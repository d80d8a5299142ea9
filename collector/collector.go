// Package collector defines the contract every data source implements and
// the shared plumbing (fetch, cache read-through, validation) that keeps
// per-source collectors thin. A collector owns its limiter, handler,
// validator, and cache; nothing here is process-global.
package collector

import (
	"context"

	"github.com/fincollect/go-collector-kit/dataset"
)

// Request names what a caller wants collected.
type Request struct {
	// Endpoint is the source-specific operation, e.g. "series/observations".
	Endpoint string

	// Params are source-specific query parameters.
	Params map[string]string

	// DataType tags the validation pass, e.g. "fred_series".
	DataType string
}

// Collector is the per-source interface. Implementations map one
// provider's REST/JSON responses into frames.
type Collector interface {
	Name() string
	Collect(ctx context.Context, req Request) (*dataset.Frame, error)
}
