package http

import (
	"context"
	nethttp "net/http"
	"time"
)

// Client is the transport capability the request layer sends through. It performs
// exactly one exchange per call; retry decisions belong to the caller.
type Client interface {
	Do(ctx context.Context, method string, req *Request) (*Response, error)
}

// Request is one outbound exchange.
type Request struct {
	URL     string
	Headers map[string]string
	// Query is encoded onto the URL, replacing any query already present.
	Query map[string]string
	Body  []byte
}

// Response is a completed exchange. A completed exchange is not necessarily a
// successful one: any status code ends up here.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
}

// RequestInterceptor is called before sending the request
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving the response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// Config holds the transport configuration
type Config struct {
	Timeout              time.Duration
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	DefaultHeaders       map[string]string
	// RateLimit caps outbound requests per second; zero disables limiting
	RateLimit float64
	// RateBurst is the limiter's bucket size
	RateBurst int
	// LogPayloads enables debug-level logging of headers and bodies
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
}
