// Package testutil provides shared constants and helpers for tests.
package testutil

// Transport failure messages in the shapes the backend client reports them.
const (
	// TestTimeoutMessage is what a timed-out exchange reports.
	TestTimeoutMessage = "timeout of 0ms exceeded"

	// TestAbortedMessage is what a cancelled exchange reports.
	TestAbortedMessage = "Request aborted"

	// TestConnectionRefused is a network failure that is neither a timeout nor an abort.
	TestConnectionRefused = "connection refused"
)

// Backend response bodies.
const (
	TestBodyOK           = `{"ret":0,"status":"Success"}`
	TestBodyNotLoggedIn  = `{"ret":1,"status":"Not logged in"}`
	TestBodyDuplicate    = `{"ret":999,"status":"Duplicate"}`
	TestBodyAppError     = `{"ret":5,"status":"Some error"}`
	TestAppErrorFragment = "ret: 5"
)

// TestBaseURL is a base address that is never dialled.
const TestBaseURL = "http://api.test/apiv2"
