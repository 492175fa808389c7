package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	nethttp "net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/freegle/iznik-api/logger"
	"github.com/freegle/iznik-api/trace"
)

const (
	// DefaultTimeout is the default request timeout duration
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPayloadLogBytes caps logged body size when payload logging is on
	DefaultMaxPayloadLogBytes = 2048
)

type client struct {
	httpClient           *nethttp.Client
	logger               logger.Logger
	config               *Config
	limiter              *rate.Limiter
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	callCount            int64
}

// NewClient creates a transport with default configuration and the request-ID interceptor.
func NewClient(log logger.Logger) Client {
	return NewBuilder(log).Build()
}

// Builder provides a fluent interface for configuring the transport
type Builder struct {
	config     *Config
	logger     logger.Logger
	httpClient *nethttp.Client
	traceState bool
}

// NewBuilder creates a new transport builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			Timeout:              DefaultTimeout,
			RequestInterceptors:  []RequestInterceptor{},
			ResponseInterceptors: []ResponseInterceptor{},
			DefaultHeaders:       make(map[string]string),
			MaxPayloadLogBytes:   DefaultMaxPayloadLogBytes,
		},
		logger: log,
	}
}

// WithTimeout sets the per-exchange timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithHTTPClient uses a preconfigured *http.Client. Its Timeout wins when non-zero.
func (b *Builder) WithHTTPClient(c *nethttp.Client) *Builder {
	b.httpClient = c
	return b
}

// WithDefaultHeader adds a header sent with every request
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithRateLimit enables a client-side token bucket. A limit <= 0 disables it.
func (b *Builder) WithRateLimit(perSecond float64, burst int) *Builder {
	b.config.RateLimit = perSecond
	b.config.RateBurst = burst
	return b
}

// WithPayloadLogging enables debug-level logging of headers and bodies
func (b *Builder) WithPayloadLogging(enabled bool, maxBytes int) *Builder {
	b.config.LogPayloads = enabled
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// WithTraceParent makes the request-ID interceptor also send a W3C traceparent
func (b *Builder) WithTraceParent(enabled bool) *Builder {
	b.traceState = enabled
	return b
}

// Build creates the transport with the configured options
func (b *Builder) Build() Client {
	hc := b.httpClient
	if hc == nil {
		hc = &nethttp.Client{}
	}
	if hc.Timeout == 0 {
		hc.Timeout = b.config.Timeout
	}

	var limiter *rate.Limiter
	if b.config.RateLimit > 0 {
		burst := b.config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(b.config.RateLimit), burst)
	}

	log := b.logger
	if log == nil {
		log = logger.Nop()
	}

	interceptors := append([]RequestInterceptor{NewRequestIDInterceptor(b.traceState)}, b.config.RequestInterceptors...)

	return &client{
		httpClient:           hc,
		logger:               log,
		config:               b.config,
		limiter:              limiter,
		requestInterceptors:  interceptors,
		responseInterceptors: b.config.ResponseInterceptors,
	}
}

// NewRequestIDInterceptor sets X-Request-ID (and optionally traceparent) from the context.
func NewRequestIDInterceptor(withTraceParent bool) RequestInterceptor {
	return func(ctx context.Context, req *nethttp.Request) error {
		trace.Inject(ctx, req.Header, withTraceParent)
		return nil
	}
}

// Do performs one exchange with the specified method
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.classifyTransportError("rate limiter wait failed", err)
		}
	}

	c.logRequest(method, req)

	httpReq, err := c.buildRequest(ctx, method, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classifyTransportError("request execution failed", err)
	}

	resp, err := c.buildResponse(ctx, start, callCount, httpReq, httpResp)
	if err != nil {
		return nil, err
	}

	c.logResponse(resp)
	return resp, nil
}

func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if req.URL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	return nil
}

func (c *client) applyHeaders(httpReq *nethttp.Request, req *Request) {
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	// request headers override defaults
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if httpReq.Header.Get("Content-Type") == "" && req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
}

func (c *client) buildURL(req *Request) (string, error) {
	if len(req.Query) == 0 {
		return req.URL, nil
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return "", NewValidationError(err.Error(), "url")
	}
	q := url.Values{}
	for k, v := range req.Query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// buildRequest constructs an *http.Request, applies headers, and runs request interceptors.
func (c *client) buildRequest(ctx context.Context, method string, req *Request) (*nethttp.Request, error) {
	target, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	var body io.Reader = nethttp.NoBody
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, NewNetworkError("failed to create HTTP request", err)
	}

	c.applyHeaders(httpReq, req)

	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, httpReq); err != nil {
			return nil, NewInterceptorError("request interceptor failed", "request", err)
		}
	}
	return httpReq, nil
}

// buildResponse runs response interceptors, reads body, and builds a Response.
func (c *client) buildResponse(ctx context.Context, start time.Time, callCount int64, httpReq *nethttp.Request, httpResp *nethttp.Response) (*Response, error) {
	defer httpResp.Body.Close()

	for _, interceptor := range c.responseInterceptors {
		if err := interceptor(ctx, httpReq, httpResp); err != nil {
			return nil, NewInterceptorError("response interceptor failed", "response", err)
		}
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.classifyTransportError("failed to read response body", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
		Stats: Stats{
			ElapsedTime: time.Since(start),
			CallCount:   callCount,
		},
	}, nil
}

func (c *client) classifyTransportError(message string, err error) ClientError {
	switch {
	case isTimeout(err):
		return NewTimeoutError(message, c.httpClient.Timeout, err)
	case errors.Is(err, context.Canceled):
		return NewAbortedError(message, err)
	default:
		return NewNetworkError(message, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *client) logRequest(method string, req *Request) {
	c.logger.Info().
		Str("direction", "outbound").
		Str("method", method).
		Str("url", req.URL).
		Msg("API transport request")

	if !c.config.LogPayloads {
		return
	}
	evt := c.logger.Debug().Str("direction", "outbound")
	if len(req.Headers) > 0 {
		evt = evt.Interface("headers", req.Headers)
	}
	if len(req.Query) > 0 {
		evt = evt.Interface("query", req.Query)
	}
	if len(req.Body) > 0 {
		evt = evt.Bytes("body", c.truncate(req.Body))
	}
	evt.Msg("API transport request payload")
}

func (c *client) logResponse(resp *Response) {
	c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount).
		Msg("API transport response")

	if c.config.LogPayloads && len(resp.Body) > 0 {
		c.logger.Debug().
			Str("direction", "inbound").
			Bytes("body", c.truncate(resp.Body)).
			Msg("API transport response payload")
	}
}

func (c *client) truncate(b []byte) []byte {
	limit := c.config.MaxPayloadLogBytes
	if limit <= 0 || len(b) <= limit {
		return b
	}
	return b[:limit]
}
