package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a RestyClient with the given timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: NewRestyHTTPClient(timeout)}
}

// NewTracedRestyClient is NewRestyClient with a debug log line per response.
func NewTracedRestyClient(timeout time.Duration, log Logger) *RestyClient {
	c := NewRestyHTTPClient(timeout)
	if log != nil {
		c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			log.DebugObj("http response", "http_trace", map[string]any{
				"method":     resp.Request.Method,
				"url":        resp.Request.URL,
				"status":     resp.StatusCode(),
				"bytes":      len(resp.Body()),
				"elapsed_ms": resp.Time().Milliseconds(),
			})
			return nil
		})
	}
	return &RestyClient{client: c}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing other verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// Get performs a GET with the given context and headers. Non-2xx statuses are
// not errors here; callers inspect StatusCode.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return &restyResponse{resp: resp}, nil
}

type restyResponse struct {
	resp *resty.Response
}

func (r *restyResponse) Body() []byte    { return r.resp.Body() }
func (r *restyResponse) StatusCode() int { return r.resp.StatusCode() }
