// Package httpclient is the thin HTTP layer collectors fetch through.
// A Client folds the shared infrastructure into one call path: it acquires
// a rate-limit slot before each request, routes the exchange through a
// retry handler when one is attached, and maps non-2xx statuses onto the
// domain error taxonomy so callers never inspect raw status codes.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fincollect/go-collector-kit/collecterr"
	"github.com/fincollect/go-collector-kit/handler"
)

// Client issues requests against one upstream API.
type Client struct {
	httpClient *http.Client
	cfg        *config
}

// NewClient creates a client. Options attach the base URL, default
// headers/queries, and the shared rate limiter and retry handler.
func NewClient(opts ...Option) *Client {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	transport := cfg.transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.timeout,
			Transport: transport,
		},
		cfg: cfg,
	}
}

// Get fetches path (resolved against the base URL) with the merged query
// parameters. The returned error, when non-nil, is always a domain error.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	start := time.Now()

	if c.cfg.limiter != nil {
		if !c.cfg.limiter.Acquire(ctx, path, c.cfg.limiterTimeout) {
			return nil, collecterr.NewAPILimit(
				fmt.Sprintf("rate limit slot for %s not acquired within %s", path, c.cfg.limiterTimeout),
				time.Time{})
		}
	}

	var resp *Response
	var err error
	if c.cfg.handler != nil {
		resp, err = handler.RunWithData(ctx, c.cfg.handler, func(ctx context.Context) (*Response, error) {
			return c.doRequest(ctx, path, query)
		})
	} else {
		resp, err = c.doRequest(ctx, path, query)
	}
	if err != nil {
		return nil, err
	}

	resp.Duration = time.Since(start)
	return resp, nil
}

// GetJSON fetches path and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := resp.JSON(out); err != nil {
		return collecterr.Wrap(err, collecterr.CategoryData, collecterr.SeverityMedium,
			fmt.Sprintf("decode %s response", path))
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) (*Response, error) {
	fullURL, err := c.buildURL(path, query)
	if err != nil {
		return nil, collecterr.Wrap(err, collecterr.CategoryConfig, collecterr.SeverityHigh,
			"build request url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, collecterr.Wrap(err, collecterr.CategoryConfig, collecterr.SeverityHigh,
			"build request")
	}
	for k, v := range c.cfg.headers {
		req.Header.Set(k, v)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, collecterr.Wrap(err, collecterr.CategoryNetwork, collecterr.SeverityHigh,
			fmt.Sprintf("request %s failed", path))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, collecterr.Wrap(err, collecterr.CategoryNetwork, collecterr.SeverityHigh,
			fmt.Sprintf("read %s response body", path))
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       body,
	}
	if !resp.IsSuccess() {
		return nil, statusError(path, resp)
	}
	return resp, nil
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	raw := path
	if c.cfg.baseURL != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		raw = strings.TrimRight(c.cfg.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	q := u.Query()
	for k, vs := range c.cfg.queries {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	for k, vs := range query {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// statusError maps a non-2xx response onto the domain taxonomy.
func statusError(path string, resp *Response) error {
	msg := fmt.Sprintf("%s returned %s", path, resp.Status)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return collecterr.NewAuth(msg)
	case resp.StatusCode == http.StatusTooManyRequests:
		return collecterr.NewAPILimit(msg, retryAfter(resp.Header))
	case resp.IsServerError():
		return collecterr.NewNetwork(msg, resp.StatusCode)
	default:
		return collecterr.NewDataValidation(msg, map[string]any{"status_code": resp.StatusCode})
	}
}

// retryAfter parses a Retry-After header as either seconds or HTTP date.
func retryAfter(h http.Header) time.Time {
	v := h.Get("Retry-After")
	if v == "" {
		return time.Time{}
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Now().Add(time.Duration(secs) * time.Second)
	}
	if t, err := http.ParseTime(v); err == nil {
		return t
	}
	return time.Time{}
}
