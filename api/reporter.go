package api

import (
	"context"
	"fmt"

	"github.com/freegle/iznik-api/logger"
)

// Reporter is the exception-tracking sink fatal outcomes are sent to.
type Reporter interface {
	Report(ctx context.Context, message string) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, message string) error

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, message string) error {
	return f(ctx, message)
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, string) error { return nil }

// safeReport hands message to r. A failing or panicking sink is logged and
// otherwise ignored so it can never replace the error being reported.
func safeReport(ctx context.Context, r Reporter, log logger.Logger, message string) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().
				Str("report", message).
				Err(fmt.Errorf("reporter panic: %v", p)).
				Msg("Exception reporter panicked")
		}
	}()

	if err := r.Report(ctx, message); err != nil {
		log.Error().
			Str("report", message).
			Err(err).
			Msg("Exception reporter failed")
	}
}
