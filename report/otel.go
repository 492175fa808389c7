package report

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const otelScope = "github.com/freegle/iznik-api/report"

// OTelSink records reports as exception events. The active span is used when
// there is one; otherwise a short span is created for the report alone.
type OTelSink struct {
	tracer trace.Tracer
}

// NewOTelSink creates a sink using tp for standalone report spans.
func NewOTelSink(tp trace.TracerProvider) *OTelSink {
	return &OTelSink{tracer: tp.Tracer(otelScope)}
}

// Report records message as an error on the active span, or on a new one.
func (s *OTelSink) Report(ctx context.Context, message string) error {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		_, span = s.tracer.Start(ctx, "iznik.api.report", trace.WithSpanKind(trace.SpanKindInternal))
		defer span.End()
	}

	span.RecordError(errors.New(message), trace.WithAttributes(
		attribute.String("iznik.report.source", "api"),
	))
	span.SetStatus(codes.Error, message)
	return nil
}
