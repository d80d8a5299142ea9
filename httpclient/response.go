package httpclient

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte

	// Duration covers the whole exchange including retries.
	Duration time.Duration
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsServerError reports a 5xx status.
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

// JSON unmarshals the body into out.
func (r *Response) JSON(out any) error {
	return json.Unmarshal(r.Body, out)
}
