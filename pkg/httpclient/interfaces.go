package httpclient

import "context"

// Response is the part of an HTTP response callers consume.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP GETs so callers can inject fakes or other transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Logger is the logging surface used for request tracing.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
}
