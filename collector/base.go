package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/fincollect/go-collector-kit/cache"
	"github.com/fincollect/go-collector-kit/collecterr"
	"github.com/fincollect/go-collector-kit/dataset"
	"github.com/fincollect/go-collector-kit/dataval"
	"github.com/fincollect/go-collector-kit/httpclient"
)

// Base carries the shared infrastructure a concrete collector embeds.
type Base struct {
	name      string
	client    *httpclient.Client
	validator *dataval.Validator
	cache     cache.Cache
	cacheTTL  time.Duration
	log       *zap.Logger
}

// BaseOption configures a Base.
type BaseOption func(*Base)

// WithClient sets the HTTP client (itself wired with limiter + handler).
func WithClient(c *httpclient.Client) BaseOption {
	return func(b *Base) { b.client = c }
}

// WithValidator enables result validation before frames are returned.
func WithValidator(v *dataval.Validator) BaseOption {
	return func(b *Base) { b.validator = v }
}

// WithCache enables response caching with the given TTL.
func WithCache(c cache.Cache, ttl time.Duration) BaseOption {
	return func(b *Base) {
		b.cache = c
		b.cacheTTL = ttl
	}
}

// WithLogger attaches a logger. Nil is ignored.
func WithLogger(log *zap.Logger) BaseOption {
	return func(b *Base) {
		if log != nil {
			b.log = log.With(zap.String("collector", b.name))
		}
	}
}

// NewBase creates the shared plumbing for one source.
func NewBase(name string, opts ...BaseOption) *Base {
	b := &Base{name: name, log: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the source name.
func (b *Base) Name() string {
	return b.name
}

// Logger returns the collector's logger.
func (b *Base) Logger() *zap.Logger {
	return b.log
}

// FetchJSON fetches path through the client and decodes the JSON payload
// into out, reading through the cache when one is configured. Cache writes
// are best-effort; a failed write never fails the fetch.
func (b *Base) FetchJSON(ctx context.Context, path string, query url.Values, out any) error {
	if b.client == nil {
		return collecterr.New(collecterr.CategoryConfig, collecterr.SeverityCritical,
			fmt.Sprintf("collector %s has no http client", b.name))
	}

	key := b.cacheKey(path, query)
	if b.cache != nil {
		if data, err := b.cache.Get(ctx, key); err == nil {
			if err := json.Unmarshal(data, out); err == nil {
				b.log.Debug("cache hit", zap.String("path", path))
				return nil
			}
			// Undecodable entry; fall through to a fresh fetch.
			_ = b.cache.Delete(ctx, key)
		}
	}

	resp, err := b.client.Get(ctx, path, query)
	if err != nil {
		return err
	}

	if b.cache != nil {
		if err := b.cache.Set(ctx, key, resp.Body, b.cacheTTL); err != nil {
			b.log.Warn("cache write failed", zap.String("path", path), zap.Error(err))
		}
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return collecterr.Wrap(err, collecterr.CategoryData, collecterr.SeverityMedium,
			fmt.Sprintf("decode %s response", path))
	}
	return nil
}

func (b *Base) cacheKey(path string, query url.Values) string {
	return b.name + ":" + path + "?" + query.Encode()
}

// Finalize validates a built frame. Invalid data (error-level issues)
// comes back as a data-validation domain error carrying the failed rules;
// warnings and info findings are only logged.
func (b *Base) Finalize(f *dataset.Frame, dataType string) (*dataval.Report, error) {
	if b.validator == nil {
		return nil, nil
	}

	report := b.validator.Validate(f, dataType)
	b.log.Info("validated collected data",
		zap.String("data_type", dataType),
		zap.Int("rows", report.TotalRows),
		zap.Int("issues", len(report.Issues)),
		zap.Bool("valid", report.IsValid()))

	if !report.IsValid() {
		return report, collecterr.NewDataValidation(
			fmt.Sprintf("%s data failed validation", dataType),
			map[string]any{
				"failed_rules": report.FailedRules,
				"issue_count":  len(report.Issues),
				"report_id":    report.ID,
			})
	}
	return report, nil
}
