package api

import (
	"context"
	"errors"
	"time"

	"github.com/freegle/iznik-api/logger"
)

// DefaultRetryDelay is the pause before the single post-timeout retry.
const DefaultRetryDelay = 2 * time.Second

// RetryPolicy wraps one dispatch. A timeout gets exactly one more attempt after
// Delay; an abort suspends the call; anything else is passed through.
type RetryPolicy struct {
	Delay  time.Duration
	Logger logger.Logger
}

// Attempt performs one dispatch of the same request.
type Attempt func(ctx context.Context) TransportOutcome

// Run executes attempt under the policy. The only error it returns is
// ErrSuspended.
//
// A timeout whose retry cannot happen because ctx's deadline has passed is
// returned as the final outcome. Only cancellation suspends.
//
// Suspension parks the calling goroutine until ctx is done. With a context that
// is never cancelled the call never returns, which keeps the goroutine and
// everything it references alive for the life of the process. Callers that
// cannot afford that must pass a cancellable context.
func (p RetryPolicy) Run(ctx context.Context, attempt Attempt) (TransportOutcome, error) {
	outcome := attempt(ctx)
	if outcome.Completed() {
		return outcome, nil
	}

	if outcome.Failure.Kind == FailureAborted {
		return outcome, p.suspend(ctx, outcome.Failure)
	}
	if outcome.Failure.Kind != FailureTimeout {
		return outcome, nil
	}

	p.log().Warn().
		Str("failure", outcome.Failure.Message).
		Dur("delay", p.Delay).
		Msg("Timeout - sleeping before retry")

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.log().Warn().
				Str("failure", outcome.Failure.Message).
				Msg("Timeout - deadline passed before retry")
			return outcome, nil
		}
		return outcome, p.suspend(ctx, outcome.Failure)
	case <-timer.C:
	}

	p.log().Info().Msg("Timeout - retry")
	retried := attempt(ctx)
	retried.Retried = true
	if !retried.Completed() && retried.Failure.Kind == FailureAborted {
		return retried, p.suspend(ctx, retried.Failure)
	}
	return retried, nil
}

func (p RetryPolicy) suspend(ctx context.Context, failure *TransportFailure) error {
	p.log().Info().
		Str("failure", failure.Message).
		Msg("Aborted - suspending call until its context is done")
	<-ctx.Done()
	return ErrSuspended
}

func (p RetryPolicy) log() logger.Logger {
	if p.Logger == nil {
		return logger.Nop()
	}
	return p.Logger
}
