// Package http is the transport underneath the iznik request layer: a small
// net/http client with default headers, request/response interceptors, an
// optional client-side rate limiter and structured request/response logging.
//
// Every call performs exactly one exchange. Failures that prevent an exchange
// from completing are returned as a ClientError whose Type tells the caller
// whether it was a timeout, a cancellation (aborted) or some other network
// failure. Completed exchanges are returned as a Response whatever their status
// code; interpreting the status and body is left to the caller.
package http
