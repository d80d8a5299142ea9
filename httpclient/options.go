package httpclient

import (
	"net/http"
	"net/url"
	"time"

	"github.com/fincollect/go-collector-kit/handler"
	"github.com/fincollect/go-collector-kit/ratelimit"
)

// config is the merged client configuration.
type config struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
	headers   map[string]string
	queries   url.Values

	limiter        *ratelimit.Limiter
	limiterTimeout time.Duration
	handler        *handler.Handler
}

func newConfig() *config {
	return &config{
		timeout:        30 * time.Second,
		limiterTimeout: 120 * time.Second,
		headers:        make(map[string]string),
		queries:        make(url.Values),
	}
}

// Option configures a Client.
type Option func(*config)

// WithBaseURL sets the base URL request paths are resolved against.
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *config) {
		c.headers[key] = value
	}
}

// WithUserAgent sets the User-Agent header. Several of the public data
// APIs (SEC EDGAR in particular) reject anonymous clients.
func WithUserAgent(ua string) Option {
	return func(c *config) {
		c.headers["User-Agent"] = ua
	}
}

// WithQuery adds a query parameter sent on every request, e.g. an API key.
func WithQuery(key, value string) Option {
	return func(c *config) {
		c.queries.Set(key, value)
	}
}

// WithLimiter makes every request acquire an admission slot first.
// acquireTimeout bounds the wait; 0 keeps the default.
func WithLimiter(l *ratelimit.Limiter, acquireTimeout time.Duration) Option {
	return func(c *config) {
		c.limiter = l
		if acquireTimeout > 0 {
			c.limiterTimeout = acquireTimeout
		}
	}
}

// WithHandler routes every request through the handler's retry policy.
func WithHandler(h *handler.Handler) Option {
	return func(c *config) {
		c.handler = h
	}
}

// WithTransport overrides the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *config) {
		c.transport = rt
	}
}
