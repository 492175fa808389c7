package api

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/freegle/iznik-api/api"

	metricRequests = "iznik.api.requests"
	metricRetries  = "iznik.api.retries"
	metricDuration = "iznik.api.duration"

	attrMethod     = "http.request.method"
	attrPath       = "url.path"
	attrStatusCode = "http.response.status_code"
	attrOutcome    = "iznik.api.outcome"
	attrRule       = "iznik.api.rule"
	attrErrorKind  = "error.type"
	attrRetried    = "iznik.api.retried"
	attrRet        = "iznik.api.ret"

	outcomeSuspended = "suspended"
)

// tracker records a span and metrics per call. Instruments that fail to build
// are left nil and skipped.
type tracker struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	retries  metric.Int64Counter
	duration metric.Float64Histogram
}

func newTracker(tp trace.TracerProvider, mp metric.MeterProvider) *tracker {
	meter := mp.Meter(instrumentationName)
	t := &tracker{tracer: tp.Tracer(instrumentationName)}

	t.requests, _ = meter.Int64Counter(metricRequests,
		metric.WithDescription("Backend calls by final outcome"),
		metric.WithUnit("{request}"))
	t.retries, _ = meter.Int64Counter(metricRetries,
		metric.WithDescription("Post-timeout retries"),
		metric.WithUnit("{retry}"))
	t.duration, _ = meter.Float64Histogram(metricDuration,
		metric.WithDescription("Duration of backend calls including retries"),
		metric.WithUnit("s"))
	return t
}

func (t *tracker) start(ctx context.Context, desc *RequestDescriptor) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "iznik.api "+desc.Verb()+" "+desc.Path(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrMethod, desc.Method()),
			attribute.String(attrPath, desc.Path()),
		))
}

func (t *tracker) finish(ctx context.Context, span trace.Span, desc *RequestDescriptor, start time.Time, transport TransportOutcome, out *ClassifiedOutcome) {
	defer span.End()

	outcome := outcomeSuspended
	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, desc.Method()),
		attribute.String(attrPath, desc.Path()),
	}
	if out != nil {
		outcome = out.Kind.String()
		if out.Kind == OutcomeFatal {
			attrs = append(attrs, attribute.String(attrErrorKind, string(out.ErrorKind)))
			span.SetStatus(codes.Error, out.Message)
		}
		if out.Rule != "" {
			span.SetAttributes(attribute.String(attrRule, out.Rule))
		}
		if out.Kind != OutcomeFatal && out.Data != nil {
			if ret, ok := out.Data.Ret(); ok {
				span.SetAttributes(attribute.Int(attrRet, ret))
			}
		}
	}
	attrs = append(attrs, attribute.String(attrOutcome, outcome))

	if transport.Completed() {
		span.SetAttributes(attribute.Int(attrStatusCode, transport.Status))
	}
	span.SetAttributes(
		attribute.String(attrOutcome, outcome),
		attribute.Bool(attrRetried, transport.Retried),
	)

	set := metric.WithAttributes(attrs...)
	if t.requests != nil {
		t.requests.Add(ctx, 1, set)
	}
	if t.retries != nil && transport.Retried {
		t.retries.Add(ctx, 1, metric.WithAttributes(attrs[:2]...))
	}
	if t.duration != nil {
		t.duration.Record(ctx, time.Since(start).Seconds(), set)
	}
}
