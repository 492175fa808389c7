package api

import (
	"bytes"
	"encoding/json"
	"math"
)

// Payload is a decoded backend response body: a JSON object.
type Payload map[string]any

const (
	fieldRet    = "ret"
	fieldStatus = "status"
)

// ParsePayload decodes raw as a JSON object. It returns nil for an empty body,
// JSON null, anything that is not an object, or invalid JSON.
func ParsePayload(raw []byte) Payload {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil
	}
	return p
}

// Ret returns the backend's application status code.
func (p Payload) Ret() (int, bool) {
	v, ok := p[fieldRet]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// Status returns the backend's human-readable status string.
func (p Payload) Status() (string, bool) {
	s, ok := p[fieldStatus].(string)
	return s, ok
}

// Decode re-encodes the payload into v.
func (p Payload) Decode(v any) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
