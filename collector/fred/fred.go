// Package fred collects series observations from the FRED API
// (https://fred.stlouisfed.org/docs/api/fred/). It is the reference
// source implementation: everything interesting happens in the shared
// plumbing, this file only maps FRED's JSON shape onto a frame.
package fred

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fincollect/go-collector-kit/collector"
	"github.com/fincollect/go-collector-kit/dataset"
)

// DefaultBaseURL is the FRED API root.
const DefaultBaseURL = "https://api.stlouisfed.org/fred"

// missingMarker is FRED's placeholder for absent observations.
const missingMarker = "."

// Collector fetches FRED series.
type Collector struct {
	*collector.Base
}

// New wraps the shared plumbing. The base's client should carry the API
// key (WithQuery("api_key", ...)) and the FRED base URL.
func New(base *collector.Base) *Collector {
	return &Collector{Base: base}
}

// observationsResponse mirrors the relevant part of the FRED payload.
type observationsResponse struct {
	Count        int `json:"count"`
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// Collect implements collector.Collector. It expects a "series_id" param.
func (c *Collector) Collect(ctx context.Context, req collector.Request) (*dataset.Frame, error) {
	return c.Series(ctx, req.Params["series_id"])
}

// Series fetches all observations for one series id as a (date, value)
// frame. FRED's "." missing marker becomes a nil cell.
func (c *Collector) Series(ctx context.Context, seriesID string) (*dataset.Frame, error) {
	query := url.Values{}
	query.Set("series_id", seriesID)
	query.Set("file_type", "json")

	var payload observationsResponse
	if err := c.FetchJSON(ctx, "series/observations", query, &payload); err != nil {
		return nil, err
	}

	records := make([][]any, 0, len(payload.Observations))
	for _, obs := range payload.Observations {
		var value any
		if obs.Value != missingMarker && obs.Value != "" {
			if f, err := strconv.ParseFloat(obs.Value, 64); err == nil {
				value = f
			} else {
				value = obs.Value
			}
		}
		records = append(records, []any{obs.Date, value})
	}

	frame, err := dataset.FromRecords([]string{"date", "value"}, records)
	if err != nil {
		return nil, err
	}
	if _, err := c.Finalize(frame, "fred_series"); err != nil {
		return nil, err
	}
	return frame, nil
}

// SeriesSet fetches several series concurrently. The shared limiter still
// serializes admission, so concurrency here only overlaps network waits.
func (c *Collector) SeriesSet(ctx context.Context, seriesIDs ...string) (map[string]*dataset.Frame, error) {
	var mu sync.Mutex
	frames := make(map[string]*dataset.Frame, len(seriesIDs))

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range seriesIDs {
		id := id
		g.Go(func() error {
			frame, err := c.Series(ctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			frames[id] = frame
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}
