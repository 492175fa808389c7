package api

// FailureKind is the category of a transport failure.
type FailureKind int

const (
	FailureOther FailureKind = iota
	FailureTimeout
	FailureAborted
)

// String returns the failure kind's name
func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureAborted:
		return "aborted"
	default:
		return "other"
	}
}

// TransportFailure is an attempt that never produced a response.
type TransportFailure struct {
	Kind    FailureKind
	Message string
	Err     error
}

// TransportOutcome is the raw result of one attempt: either a completed
// exchange or a failure.
type TransportOutcome struct {
	Status  int
	Raw     []byte
	Failure *TransportFailure
	// Retried is set on the outcome of the post-timeout attempt.
	Retried bool
}

// Completed reports whether the attempt produced a response.
func (o TransportOutcome) Completed() bool { return o.Failure == nil }

// Exchange is everything the classifier looks at: the request identity and the
// final transport outcome.
type Exchange struct {
	Request RequestSnapshot
	Outcome TransportOutcome
	Payload Payload
}

// NewExchange pairs a request with the final outcome and decodes the body.
func NewExchange(req RequestSnapshot, outcome TransportOutcome) Exchange {
	ex := Exchange{Request: req, Outcome: outcome}
	if outcome.Completed() {
		ex.Payload = ParsePayload(outcome.Raw)
	}
	return ex
}

// OutcomeKind is the classifier's verdict.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeSuppressed
	OutcomeFatal
)

// String returns the outcome kind's name
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeSuppressed:
		return "suppressed"
	default:
		return "fatal"
	}
}

// ClassifiedOutcome is the classifier's decision for one exchange.
type ClassifiedOutcome struct {
	Kind OutcomeKind
	// Rule names the table entry that matched; empty for the fatal fallthrough.
	Rule string
	Data Payload
	// Fatal-only fields
	ErrorKind ErrorKind
	Message   string
	Request   RequestSnapshot
	Response  ResponseSnapshot
}
