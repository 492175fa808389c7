package report

import (
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/freegle/iznik-api/config"
	"github.com/freegle/iznik-api/logger"
)

// FromConfig builds the sink named by cfg.Report.Sink. Every sink except
// "none" also logs. The returned close function releases broker connections.
func FromConfig(cfg *config.Config, log logger.Logger, tp trace.TracerProvider) (Sink, func() error, error) {
	noClose := func() error { return nil }
	logSink := NewLogSink(log)

	switch cfg.Report.Sink {
	case config.SinkNone:
		return Nop{}, noClose, nil
	case config.SinkLog, "":
		return logSink, noClose, nil
	case config.SinkOTel:
		return Multi{logSink, NewOTelSink(tp)}, noClose, nil
	case config.SinkAMQP:
		amqpSink, err := DialAMQP(cfg.Report.AMQP.URL, AMQPOptions{
			Exchange:   cfg.Report.AMQP.Exchange,
			RoutingKey: cfg.Report.AMQP.RoutingKey,
			App:        cfg.App.Name,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return Multi{logSink, amqpSink}, amqpSink.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown report sink %q", cfg.Report.Sink)
	}
}
