package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	nethttp "net/http"
	"strings"
)

// HeaderMethodOverride carries the real verb of a write sent as POST.
const HeaderMethodOverride = "X-HTTP-Method-Override"

// ErrUnsupportedMethod is returned for methods other than GET, POST, PUT,
// PATCH and DELETE.
var ErrUnsupportedMethod = errors.New("api: unsupported method")

// overridden are the verbs the backend only accepts as POST plus
// X-HTTP-Method-Override.
var overridden = map[string]bool{
	nethttp.MethodPut:    true,
	nethttp.MethodPatch:  true,
	nethttp.MethodDelete: true,
}

// RequestConfig is what a caller supplies for one call. The request layer never
// modifies it.
type RequestConfig struct {
	// Params are sent as the query string.
	Params map[string]string
	// Data is JSON-encoded as the request body.
	Data any
	// Headers are added to the request.
	Headers map[string]string
}

// RequestDescriptor is one fully built request. It is immutable: the maps it
// was built from are copied, and accessors return copies.
type RequestDescriptor struct {
	method  string
	path    string
	headers map[string]string
	params  map[string]string
	body    []byte
}

// NewRequestDescriptor builds a descriptor for method and path, encoding
// cfg.Data as JSON. PUT, PATCH and DELETE are sent as POST with the verb in
// X-HTTP-Method-Override; any other method besides GET and POST is rejected,
// as is an override header naming something other than PUT, PATCH or DELETE.
func NewRequestDescriptor(method, path string, cfg RequestConfig) (*RequestDescriptor, error) {
	method = strings.ToUpper(method)
	headers := maps.Clone(cfg.Headers)

	switch {
	case overridden[method]:
		if headers == nil {
			headers = make(map[string]string, 1)
		}
		headers[HeaderMethodOverride] = method
		method = nethttp.MethodPost
	case method != nethttp.MethodGet && method != nethttp.MethodPost:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	if v, ok := headers[HeaderMethodOverride]; ok {
		verb := strings.ToUpper(v)
		if method != nethttp.MethodPost || !overridden[verb] {
			return nil, fmt.Errorf("%w: %s with %s %q", ErrUnsupportedMethod, method, HeaderMethodOverride, v)
		}
		headers[HeaderMethodOverride] = verb
	}

	d := &RequestDescriptor{
		method:  method,
		path:    path,
		headers: headers,
		params:  maps.Clone(cfg.Params),
	}
	if cfg.Data != nil {
		body, err := json.Marshal(cfg.Data)
		if err != nil {
			return nil, fmt.Errorf("encode request body for %s %s: %w", method, path, err)
		}
		d.body = body
	}
	return d, nil
}

// Method is the HTTP method on the wire. Overridden writes report POST.
func (d *RequestDescriptor) Method() string { return d.method }

// Path is the path relative to the API base.
func (d *RequestDescriptor) Path() string { return d.path }

// Verb is the intended verb: the override header when present, otherwise Method.
func (d *RequestDescriptor) Verb() string {
	if v := d.headers[HeaderMethodOverride]; v != "" {
		return v
	}
	return d.method
}

// Headers returns a copy of the request headers.
func (d *RequestDescriptor) Headers() map[string]string { return maps.Clone(d.headers) }

// Params returns a copy of the query parameters.
func (d *RequestDescriptor) Params() map[string]string { return maps.Clone(d.params) }

// Body returns a copy of the encoded request body, or nil.
func (d *RequestDescriptor) Body() []byte {
	if d.body == nil {
		return nil
	}
	return append([]byte(nil), d.body...)
}

// IsRead reports whether the request carries no body.
func (d *RequestDescriptor) IsRead() bool {
	return d.method == nethttp.MethodGet
}

// Snapshot captures the descriptor for diagnosis.
func (d *RequestDescriptor) Snapshot() RequestSnapshot {
	return RequestSnapshot{
		Path:    d.path,
		Method:  d.method,
		Headers: d.Headers(),
		Params:  d.Params(),
		Data:    json.RawMessage(d.Body()),
	}
}

// RequestSnapshot is the request half of a fatal outcome.
type RequestSnapshot struct {
	Path    string            `json:"path"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Data    json.RawMessage   `json:"data,omitempty"`
}

// ResponseSnapshot is the response half of a fatal outcome. Received is false
// when no exchange completed, in which case Status is zero and Body is nil.
type ResponseSnapshot struct {
	Received bool    `json:"received"`
	Status   int     `json:"status"`
	Body     Payload `json:"data"`
	Raw      []byte  `json:"-"`
}
