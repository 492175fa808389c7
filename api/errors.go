package api

import (
	"errors"
	"fmt"
)

// ErrSuspended is returned when a call was parked because its transport
// attempt was aborted, once the caller's context is done. It is not an
// *APIError and is never reported.
var ErrSuspended = errors.New("api: request aborted and suspended")

// ErrorKind is the failure category carried by an *APIError.
type ErrorKind string

const (
	// KindTransportTimeout: the attempt and its single retry both timed out
	// or the retry failed at transport level after a timeout.
	KindTransportTimeout ErrorKind = "transport_timeout"
	// KindTransportOther: the exchange failed without a response.
	KindTransportOther ErrorKind = "transport_other"
	// KindHTTP: the backend answered with a non-200 status.
	KindHTTP ErrorKind = "http"
	// KindApplication: 200 with a body whose ret is not accepted.
	KindApplication ErrorKind = "application"
	// KindMalformedResponse: 200 without a usable JSON object body.
	KindMalformedResponse ErrorKind = "malformed_response"
)

// APIError is the single error shape callers see for fatal outcomes.
type APIError struct {
	Kind     ErrorKind
	Request  RequestSnapshot
	Response ResponseSnapshot
	Message  string
	// Cause is the transport error, when there was one.
	Cause error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status, or zero when no response was received.
func (e *APIError) StatusCode() int {
	return e.Response.Status
}

// Ret returns the backend's ret code when the response carried one.
func (e *APIError) Ret() (int, bool) {
	if e.Response.Body == nil {
		return 0, false
	}
	return e.Response.Body.Ret()
}

// IsErrorKind reports whether err is an *APIError of the given kind.
func IsErrorKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// LoginError is returned when the session endpoint rejects credentials.
type LoginError struct {
	Ret    int
	Status string
}

func (e *LoginError) Error() string {
	return e.Status
}

// SignUpError is returned when the backend refuses to create an account.
type SignUpError struct {
	Ret    int
	Status string
	// Cause is the underlying *APIError.
	Cause error
}

func (e *SignUpError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("sign up failed (ret %d)", e.Ret)
	}
	return e.Status
}

func (e *SignUpError) Unwrap() error {
	return e.Cause
}
