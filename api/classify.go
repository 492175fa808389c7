package api

import (
	"fmt"
	nethttp "net/http"
	"strconv"
	"strings"
)

// Backend application codes.
const (
	RetOK                  = 0
	RetNotLoggedIn         = 1
	RetDuplicateSubmission = 999

	StatusNotLoggedIn = "Not logged in"

	sessionPath = "/session"
	unknown     = "Unknown"
)

// Rule is one row of the classification table.
type Rule struct {
	Name    string
	Matches func(ex *Exchange) bool
	Outcome OutcomeKind
}

// DefaultRules is the backend contract, in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "ok",
			Matches: func(ex *Exchange) bool { return retIs(ex, RetOK) },
			Outcome: OutcomeSuccess,
		},
		{
			Name: "not-logged-in",
			Matches: func(ex *Exchange) bool {
				if !retIs(ex, RetNotLoggedIn) {
					return false
				}
				status, _ := ex.Payload.Status()
				return status == StatusNotLoggedIn
			},
			Outcome: OutcomeSuccess,
		},
		{
			// session calls carry their own error semantics for the caller to inspect
			Name: "session-post",
			Matches: func(ex *Exchange) bool {
				return completedOK(ex) &&
					ex.Request.Path == sessionPath &&
					ex.Request.Method == nethttp.MethodPost
			},
			Outcome: OutcomeSuccess,
		},
		{
			// repeated clicks; the first submission does the work
			Name:    "duplicate-submission",
			Matches: func(ex *Exchange) bool { return retIs(ex, RetDuplicateSubmission) },
			Outcome: OutcomeSuppressed,
		},
	}
}

func completedOK(ex *Exchange) bool {
	return ex.Outcome.Completed() && ex.Outcome.Status == nethttp.StatusOK && ex.Payload != nil
}

func retIs(ex *Exchange, want int) bool {
	if !completedOK(ex) {
		return false
	}
	ret, ok := ex.Payload.Ret()
	return ok && ret == want
}

// Classifier evaluates an ordered rule table. The first matching rule wins and
// an exchange matching no rule is fatal. It holds no state beyond the table.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier from DefaultRules. Rules in before are
// evaluated ahead of the defaults, rules in after behind them.
func NewClassifier(before, after []Rule) *Classifier {
	rules := make([]Rule, 0, len(before)+len(after)+4)
	rules = append(rules, before...)
	rules = append(rules, DefaultRules()...)
	rules = append(rules, after...)
	return &Classifier{rules: rules}
}

// Rules returns the table in evaluation order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify decides the outcome of one exchange.
func (c *Classifier) Classify(ex Exchange) ClassifiedOutcome {
	for _, rule := range c.rules {
		if rule.Matches(&ex) {
			out := ClassifiedOutcome{Kind: rule.Outcome, Rule: rule.Name}
			if rule.Outcome != OutcomeFatal {
				out.Data = ex.Payload
				return out
			}
			return fatal(ex, rule.Name)
		}
	}
	return fatal(ex, "")
}

func fatal(ex Exchange, rule string) ClassifiedOutcome {
	return ClassifiedOutcome{
		Kind:      OutcomeFatal,
		Rule:      rule,
		ErrorKind: errorKindOf(ex),
		Message:   fatalMessage(ex),
		Request:   ex.Request,
		Response: ResponseSnapshot{
			Received: ex.Outcome.Completed(),
			Status:   ex.Outcome.Status,
			Body:     ex.Payload,
			Raw:      ex.Outcome.Raw,
		},
	}
}

func errorKindOf(ex Exchange) ErrorKind {
	switch {
	case !ex.Outcome.Completed() && ex.Outcome.Failure.Kind == FailureTimeout:
		return KindTransportTimeout
	case !ex.Outcome.Completed():
		return KindTransportOther
	case ex.Outcome.Status != nethttp.StatusOK:
		return KindHTTP
	case ex.Payload == nil:
		return KindMalformedResponse
	default:
		return KindApplication
	}
}

// fatalMessage renders "API Error <METHOD> <path> -> ret: <ret> status: <status>".
func fatalMessage(ex Exchange) string {
	ret, status := retAndStatus(ex.Payload)
	return strings.Join([]string{
		"API Error",
		ex.Request.Method,
		ex.Request.Path,
		"->",
		fmt.Sprintf("ret: %s status: %s", ret, status),
	}, " ")
}

// reportMessage is the line sent to the exception sink.
func reportMessage(out ClassifiedOutcome) string {
	ret, status := retAndStatus(out.Response.Body)
	httpStatus := "no response"
	if out.Response.Received {
		httpStatus = strconv.Itoa(out.Response.Status)
	}
	return fmt.Sprintf("API request failed %s returned HTTP %s ret %s status %s",
		out.Request.Path, httpStatus, ret, status)
}

func retAndStatus(p Payload) (ret, status string) {
	ret, status = unknown, unknown
	if p == nil {
		return ret, status
	}
	if r, ok := p.Ret(); ok {
		ret = strconv.Itoa(r)
	}
	if s, ok := p.Status(); ok && s != "" {
		status = s
	}
	return ret, status
}
