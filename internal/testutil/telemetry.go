package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Telemetry captures spans and metrics in memory.
//
//	tel := testutil.NewTelemetry()
//	client, _ := api.New(api.WithTracerProvider(tel.TracerProvider), api.WithMeterProvider(tel.MeterProvider), ...)
//	...
//	counts := tel.SumInt64(t, "iznik.api.requests", "iznik.api.outcome")
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Exporter       *tracetest.InMemoryExporter
	Reader         *sdkmetric.ManualReader
}

// NewTelemetry creates providers backed by an in-memory exporter and a manual reader.
func NewTelemetry() *Telemetry {
	exporter := tracetest.NewInMemoryExporter()
	reader := sdkmetric.NewManualReader()
	return &Telemetry{
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)),
		MeterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		Exporter:       exporter,
		Reader:         reader,
	}
}

// Spans returns the ended spans in end order.
func (tel *Telemetry) Spans() tracetest.SpanStubs {
	return tel.Exporter.GetSpans()
}

// Collect reads every metric recorded so far.
func (tel *Telemetry) Collect(t *testing.T) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, tel.Reader.Collect(context.Background(), &rm), "failed to collect metrics")
	return rm
}

// SumInt64 totals an int64 counter grouped by the string value of attribute
// key. Points without the attribute are grouped under "".
func (tel *Telemetry) SumInt64(t *testing.T, name, key string) map[string]int64 {
	t.Helper()
	totals := map[string]int64{}
	for _, sm := range tel.Collect(t).ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			data, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range data.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key(key))
				totals[v.AsString()] += dp.Value
			}
		}
	}
	return totals
}

// SpanAttribute returns the value of key on span.
func SpanAttribute(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}
