// Package report provides the exception-tracking sinks fatal API outcomes are
// sent to: the logger, the active OpenTelemetry span, and an AMQP exchange.
package report

import (
	"context"
	"errors"
)

// Sink receives one line per fatal API outcome.
type Sink interface {
	Report(ctx context.Context, message string) error
}

// Nop discards every report.
type Nop struct{}

func (Nop) Report(context.Context, string) error { return nil }

// Multi fans a report out to several sinks. Every sink is tried; failures are
// joined.
type Multi []Sink

func (m Multi) Report(ctx context.Context, message string) error {
	var errs []error
	for _, s := range m {
		if err := s.Report(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
