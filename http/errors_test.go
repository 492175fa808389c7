package http

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypes(t *testing.T) {
	wrapped := errors.New("boom")

	tests := []struct {
		name     string
		err      ClientError
		errType  ErrorType
		contains string
	}{
		{"network", NewNetworkError("dial failed", wrapped), NetworkError, "network error: dial failed: boom"},
		{"network without cause", NewNetworkError("dial failed", nil), NetworkError, "network error: dial failed"},
		{"timeout", NewTimeoutError("slow", time.Second, wrapped), TimeoutError, "timeout error: slow (timeout: 1s)"},
		{"aborted", NewAbortedError("gone", context.Canceled), AbortedError, "request aborted: gone"},
		{"validation", NewValidationError("empty", "url"), ValidationError, "validation error: empty (field: url)"},
		{"validation without field", NewValidationError("empty", ""), ValidationError, "validation error: empty"},
		{"interceptor", NewInterceptorError("failed", "request", wrapped), InterceptorError, "interceptor error: failed (stage: request): boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errType, tt.err.Type())
			assert.Contains(t, tt.err.Error(), tt.contains)
			assert.True(t, IsErrorType(tt.err, tt.errType))
		})
	}
}

func TestIsErrorType(t *testing.T) {
	assert.False(t, IsErrorType(nil, NetworkError))
	assert.False(t, IsErrorType(errors.New("plain"), NetworkError))

	wrapped := fmt.Errorf("outer: %w", NewTimeoutError("slow", time.Second, nil))
	assert.True(t, IsErrorType(wrapped, TimeoutError))
	assert.False(t, IsErrorType(wrapped, AbortedError))
}

func TestAbortedUnwrapsCancellation(t *testing.T) {
	err := NewAbortedError("gone", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
}
