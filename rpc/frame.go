package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
)

var ErrMalformedFrame = errors.New("rpc: malformed frame")

// RawOrString holds either a JSON string parameter/result or an
// embedded raw JSON value (object or array). It round-trips: raw
// structural values are re-serialized without whitespace when read
// back out as a string via String().
type RawOrString struct {
	raw json.RawMessage
	str string
	// isRaw is true when the value was (or should be) encoded as an
	// embedded structural JSON token rather than a quoted string.
	isRaw bool
}

// NewString builds a plain-string parameter.
func NewString(s string) RawOrString {
	return RawOrString{str: s}
}

// NewRaw builds a parameter from an already-marshaled structural JSON
// value (object or array). It is re-serialized without whitespace.
func NewRaw(raw []byte) RawOrString {
	return RawOrString{raw: compact(raw), isRaw: true}
}

// String returns the value in its canonical string form: a plain
// string is returned as-is; a raw value is returned as its compact JSON
// text.
func (v RawOrString) String() string {
	if v.isRaw {
		return string(v.raw)
	}
	return v.str
}

// IsRaw reports whether v holds a structural JSON value.
func (v RawOrString) IsRaw() bool { return v.isRaw }

func compact(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// looksStructural reports whether s starts and ends with a matching
// {}/[] pair, the on-input heuristic for detecting an embedded raw
// JSON parameter.
func looksStructural(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (s[0] == '{' && s[len(s)-1] == '}') || (s[0] == '[' && s[len(s)-1] == ']')
}

// MarshalJSON encodes v per the string-or-raw-JSON rule: structural
// values are embedded directly; everything else is a JSON string.
func (v RawOrString) MarshalJSON() ([]byte, error) {
	if v.isRaw {
		return v.raw, nil
	}
	return json.Marshal(v.str)
}

// UnmarshalJSON decodes v, detecting an embedded structural value
// versus a plain JSON string.
func (v *RawOrString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ErrMalformedFrame
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if looksStructural(s) {
			*v = RawOrString{raw: compact([]byte(s)), isRaw: true}
			return nil
		}
		*v = RawOrString{str: s}
		return nil
	}

	// Embedded raw object/array, re-serialize without whitespace.
	*v = RawOrString{raw: compact(trimmed), isRaw: true}
	return nil
}

// Request is a Nostr-Connect RPC request frame.
type Request struct {
	ID     string        `json:"id"`
	Method Command       `json:"method"`
	Params []RawOrString `json:"params"`
}

// Response is a Nostr-Connect RPC response frame. Error is empty iff
// the call succeeded.
type Response struct {
	ID     string      `json:"id"`
	Result RawOrString `json:"result"`
	Error  string      `json:"error"`
}

// IsRequest reports whether raw JSON bytes represent a Request frame
// (distinguished from a Response by the presence of "method").
func IsRequest(data []byte) bool {
	var probe struct {
		Method *string `json:"method"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Method != nil
}

// DecodeRequest parses data as a Request frame, validating that Method
// is a known command.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, ErrMalformedFrame
	}
	if _, err := ParseCommand(string(req.Method)); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeResponse parses data as a Response frame.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, ErrMalformedFrame
	}
	return &resp, nil
}

// NewErrorResponse builds a Response carrying an error and an empty
// result, per the failure semantics in the session engine.
func NewErrorResponse(id, errMsg string) Response {
	return Response{ID: id, Result: NewString(""), Error: errMsg}
}

// NewResultResponse builds a successful Response.
func NewResultResponse(id string, result RawOrString) Response {
	return Response{ID: id, Result: result, Error: ""}
}
