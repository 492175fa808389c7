package api

import (
	"context"
	"regexp"

	restclient "github.com/freegle/iznik-api/http"
	"github.com/freegle/iznik-api/logger"
)

var (
	timeoutPattern = regexp.MustCompile(`(?i)timeout`)
	abortedPattern = regexp.MustCompile(`(?i)aborted`)
)

// Dispatcher sends one attempt of a request through the transport.
type Dispatcher struct {
	baseURL   string
	transport restclient.Client
	logger    logger.Logger
}

// NewDispatcher creates a dispatcher targeting baseURL.
func NewDispatcher(baseURL string, transport restclient.Client, log logger.Logger) *Dispatcher {
	return &Dispatcher{baseURL: baseURL, transport: transport, logger: log}
}

// Dispatch performs one attempt. It never returns an error: transport failures
// are folded into the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, desc *RequestDescriptor) TransportOutcome {
	req := &restclient.Request{
		URL:     d.baseURL + desc.Path(),
		Headers: desc.Headers(),
		Query:   desc.Params(),
	}
	if !desc.IsRead() {
		req.Body = desc.Body()
	}

	resp, err := d.transport.Do(ctx, desc.Method(), req)
	if err != nil {
		failure := classifyFailure(err)
		d.logger.Warn().
			Str("method", desc.Method()).
			Str("path", desc.Path()).
			Str("failure", failure.Kind.String()).
			Err(err).
			Msg("API transport error")
		return TransportOutcome{Failure: failure}
	}

	if resp == nil || resp.StatusCode == 0 || len(resp.Body) == 0 {
		// seen around page unload: the exchange "completes" with nothing in it
		evt := d.logger.Warn().
			Str("method", desc.Method()).
			Str("path", desc.Path())
		if resp != nil {
			evt = evt.Int("status", resp.StatusCode)
		}
		evt.Msg("Suspicious empty transport response - perhaps cancelled?")
		if resp == nil {
			return TransportOutcome{}
		}
	}

	return TransportOutcome{Status: resp.StatusCode, Raw: resp.Body}
}

// classifyFailure uses the transport's error type when it has one and falls
// back to the message for transports that only report text.
func classifyFailure(err error) *TransportFailure {
	msg := err.Error()
	kind := FailureOther
	switch {
	case restclient.IsErrorType(err, restclient.TimeoutError):
		kind = FailureTimeout
	case restclient.IsErrorType(err, restclient.AbortedError):
		kind = FailureAborted
	case timeoutPattern.MatchString(msg):
		kind = FailureTimeout
	case abortedPattern.MatchString(msg):
		kind = FailureAborted
	}
	return &TransportFailure{Kind: kind, Message: msg, Err: err}
}
