package api

import (
	"context"
	"errors"
	nethttp "net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	restclient "github.com/freegle/iznik-api/http"
	"github.com/freegle/iznik-api/logger"
)

// ErrNoBaseURL is returned by New when no API base address was configured.
var ErrNoBaseURL = errors.New("api: base URL is required")

type clientConfig struct {
	baseURL        string
	transport      restclient.Client
	logger         logger.Logger
	reporter       Reporter
	retryDelay     time.Duration
	rulesBefore    []Rule
	rulesAfter     []Rule
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures the client.
type Option func(*clientConfig)

// WithBaseURL sets the address every path is appended to.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTransport sets the transport. The default is http.NewClient with the
// client's logger.
func WithTransport(t restclient.Client) Option {
	return func(c *clientConfig) {
		c.transport = t
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithReporter sets the exception-tracking sink. The default discards reports.
func WithReporter(r Reporter) Option {
	return func(c *clientConfig) {
		c.reporter = r
	}
}

// WithRetryDelay sets the pause before the post-timeout retry.
func WithRetryDelay(d time.Duration) Option {
	return func(c *clientConfig) {
		c.retryDelay = d
	}
}

// WithRules adds classification rules ahead of and behind the defaults.
func WithRules(before, after []Rule) Option {
	return func(c *clientConfig) {
		c.rulesBefore = append(c.rulesBefore, before...)
		c.rulesAfter = append(c.rulesAfter, after...)
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. The default is the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *clientConfig) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider. The default is the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *clientConfig) {
		c.meterProvider = mp
	}
}

// Client is the request layer. It is safe for concurrent use; calls share no
// mutable state.
type Client struct {
	dispatcher *Dispatcher
	retry      RetryPolicy
	classifier *Classifier
	reporter   Reporter
	logger     logger.Logger
	tracker    *tracker
}

// Result is a non-fatal outcome. When Outcome is OutcomeSuppressed the data is
// whatever the backend sent and must not be relied on.
type Result struct {
	Outcome OutcomeKind
	Rule    string
	Data    Payload
}

// Suppressed reports whether the call was silently dropped by the backend's
// duplicate-submission guard.
func (r *Result) Suppressed() bool {
	return r.Outcome == OutcomeSuppressed
}

// Decode decodes the result data into v.
func (r *Result) Decode(v any) error {
	return r.Data.Decode(v)
}

// New creates a client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{retryDelay: DefaultRetryDelay}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if cfg.logger == nil {
		cfg.logger = logger.Nop()
	}
	if cfg.transport == nil {
		cfg.transport = restclient.NewClient(cfg.logger)
	}
	if cfg.reporter == nil {
		cfg.reporter = nopReporter{}
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = otel.GetTracerProvider()
	}
	if cfg.meterProvider == nil {
		cfg.meterProvider = otel.GetMeterProvider()
	}

	return &Client{
		dispatcher: NewDispatcher(cfg.baseURL, cfg.transport, cfg.logger),
		retry:      RetryPolicy{Delay: cfg.retryDelay, Logger: cfg.logger},
		classifier: NewClassifier(cfg.rulesBefore, cfg.rulesAfter),
		reporter:   cfg.reporter,
		logger:     cfg.logger,
		tracker:    newTracker(cfg.tracerProvider, cfg.meterProvider),
	}, nil
}

// Request performs one logical call. It returns a Result for success and
// suppressed outcomes, an *APIError for fatal ones, and ErrSuspended when the
// transport reported an abort and ctx has since been cancelled. With a ctx that
// is never cancelled an aborted call does not return.
func (c *Client) Request(ctx context.Context, method, path string, cfg RequestConfig) (*Result, error) {
	desc, err := NewRequestDescriptor(method, path, cfg)
	if err != nil {
		return nil, err
	}

	logger.IncrementAPICounter(ctx)
	start := time.Now()
	defer func() { logger.AddAPIElapsed(ctx, time.Since(start).Nanoseconds()) }()

	ctx, span := c.tracker.start(ctx, desc)

	outcome, err := c.retry.Run(ctx, func(ctx context.Context) TransportOutcome {
		return c.dispatcher.Dispatch(ctx, desc)
	})
	if err != nil {
		c.tracker.finish(ctx, span, desc, start, outcome, nil)
		return nil, err
	}

	classified := c.classifier.Classify(NewExchange(desc.Snapshot(), outcome))
	defer c.tracker.finish(ctx, span, desc, start, outcome, &classified)

	switch classified.Kind {
	case OutcomeSuccess:
		return &Result{Outcome: classified.Kind, Rule: classified.Rule, Data: classified.Data}, nil
	case OutcomeSuppressed:
		c.logger.Debug().
			Str("method", desc.Method()).
			Str("path", desc.Path()).
			Str("rule", classified.Rule).
			Msg("API call suppressed")
		return &Result{Outcome: classified.Kind, Rule: classified.Rule, Data: classified.Data}, nil
	}

	apiErr := &APIError{
		Kind:     classified.ErrorKind,
		Request:  classified.Request,
		Response: classified.Response,
		Message:  classified.Message,
	}
	if outcome.Failure != nil {
		apiErr.Cause = outcome.Failure.Err
	}

	c.logger.Error().
		Str("method", desc.Method()).
		Str("path", desc.Path()).
		Str("kind", string(apiErr.Kind)).
		Int("status", apiErr.Response.Status).
		Msg(apiErr.Message)

	// the call's span is still open so span-based sinks attach to it
	safeReport(ctx, c.reporter, c.logger, reportMessage(classified))
	return nil, apiErr
}

// Get reads path with params as the query string.
func (c *Client) Get(ctx context.Context, path string, params map[string]string) (*Result, error) {
	return c.Request(ctx, nethttp.MethodGet, path, RequestConfig{Params: params})
}

// Post sends data to path.
func (c *Client) Post(ctx context.Context, path string, data any) (*Result, error) {
	return c.Request(ctx, nethttp.MethodPost, path, RequestConfig{Data: data})
}

// PostOverride sends data to path as a POST carrying overrideMethod in
// X-HTTP-Method-Override.
func (c *Client) PostOverride(ctx context.Context, overrideMethod, path string, data any) (*Result, error) {
	return c.Request(ctx, nethttp.MethodPost, path, RequestConfig{
		Data:    data,
		Headers: map[string]string{HeaderMethodOverride: overrideMethod},
	})
}

// Put sends data to path as an overridden PUT.
func (c *Client) Put(ctx context.Context, path string, data any) (*Result, error) {
	return c.PostOverride(ctx, nethttp.MethodPut, path, data)
}

// Patch sends data to path as an overridden PATCH.
func (c *Client) Patch(ctx context.Context, path string, data any) (*Result, error) {
	return c.PostOverride(ctx, nethttp.MethodPatch, path, data)
}

// Del sends data to path as an overridden DELETE.
func (c *Client) Del(ctx context.Context, path string, data any) (*Result, error) {
	return c.PostOverride(ctx, nethttp.MethodDelete, path, data)
}
