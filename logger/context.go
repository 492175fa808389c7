package logger

import (
	"context"
	"sync/atomic"
)

type contextKey string

const (
	// apiCounterKey tracks how many backend calls were issued under one context
	apiCounterKey contextKey = "api_call_counter"
	// apiElapsedKey tracks the total time spent in backend calls under one context
	apiElapsedKey contextKey = "api_elapsed_nanos"
)

// WithAPICounter returns a context carrying a backend call counter and elapsed time tracker.
func WithAPICounter(ctx context.Context) context.Context {
	counter := int64(0)
	elapsed := int64(0)
	ctx = context.WithValue(ctx, apiCounterKey, &counter)
	ctx = context.WithValue(ctx, apiElapsedKey, &elapsed)
	return ctx
}

// IncrementAPICounter increments the backend call counter in the context, if any.
func IncrementAPICounter(ctx context.Context) {
	if counter, ok := ctx.Value(apiCounterKey).(*int64); ok && counter != nil {
		atomic.AddInt64(counter, 1)
	}
}

// GetAPICounter returns the number of backend calls recorded in the context.
func GetAPICounter(ctx context.Context) int64 {
	if counter, ok := ctx.Value(apiCounterKey).(*int64); ok && counter != nil {
		return atomic.LoadInt64(counter)
	}
	return 0
}

// AddAPIElapsed adds elapsed nanoseconds to the context's backend time.
func AddAPIElapsed(ctx context.Context, nanos int64) {
	if elapsed, ok := ctx.Value(apiElapsedKey).(*int64); ok && elapsed != nil {
		atomic.AddInt64(elapsed, nanos)
	}
}

// GetAPIElapsed returns the backend time recorded in the context, in nanoseconds.
func GetAPIElapsed(ctx context.Context) int64 {
	if elapsed, ok := ctx.Value(apiElapsedKey).(*int64); ok && elapsed != nil {
		return atomic.LoadInt64(elapsed)
	}
	return 0
}
