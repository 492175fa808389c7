// Package api is the single chokepoint for calls to the iznik backend.
//
// Every call goes through the same phases:
//
//	Dispatch -> (timeout) Retry -> Classify -> (fatal) Report -> caller
//
// The dispatcher sends one exchange through the transport. A transport timeout
// is retried exactly once after a fixed delay (2s by default). A transport abort
// parks the call until the caller's context is done and then returns
// ErrSuspended; it is never reported and never surfaces as an *APIError.
//
// Completed exchanges are classified by an ordered rule table against the
// backend's wire contract: HTTP 200 with a JSON body carrying "ret" and
// "status". ret 0 is success, ret 1 with status "Not logged in" is success,
// POSTs to /session succeed whatever their ret, and ret 999 (duplicate
// submission) is suppressed. Everything else is fatal: the message is sent to
// the configured Reporter and the caller receives an *APIError holding the
// request and response snapshots.
//
// PUT, PATCH and DELETE travel as POST with an X-HTTP-Method-Override header,
// which the backend requires.
package api
