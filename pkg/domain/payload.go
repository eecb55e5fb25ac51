package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is a loosely typed configuration value such as an output schema.
// It is either raw text still pending parse (the editor stores schemas typed
// by hand as strings) or a value that arrived already structured.
type Payload struct {
	text       string
	value      json.RawMessage
	structured bool
}

// TextPayload wraps raw text that still needs parsing.
func TextPayload(text string) Payload {
	return Payload{text: text}
}

// RawPayload wraps an already structured JSON value. Key order is preserved.
func RawPayload(raw json.RawMessage) Payload {
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	return Payload{value: cp, structured: true}
}

// StructuredPayload marshals v and wraps it as a structured value.
// Map keys are emitted in sorted order, so insertion order is not kept.
func StructuredPayload(v any) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return Payload{value: raw, structured: true}, nil
}

// IsZero reports whether the payload carries nothing.
func (p Payload) IsZero() bool {
	return !p.structured && p.text == ""
}

// IsText reports whether the payload is raw text pending parse.
func (p Payload) IsText() bool {
	return !p.structured && p.text != ""
}

// Text returns the raw text form. Structured payloads return their JSON encoding.
func (p Payload) Text() string {
	if p.structured {
		return string(p.value)
	}
	return p.text
}

// Parsed is the outcome of parsing a Payload. A failure is a value, not a panic.
type Parsed struct {
	Data []byte
	Err  error
}

// OK reports whether parsing succeeded.
func (p Parsed) OK() bool {
	return p.Err == nil && len(p.Data) > 0
}

// Parse returns the JSON bytes of the payload.
func (p Payload) Parse() Parsed {
	if p.structured {
		return Parsed{Data: p.value}
	}
	trimmed := bytes.TrimSpace([]byte(p.text))
	if len(trimmed) == 0 {
		return Parsed{Err: fmt.Errorf("%w: empty", ErrMalformedPayload)}
	}
	if !json.Valid(trimmed) {
		return Parsed{Err: fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)}
	}
	return Parsed{Data: trimmed}
}

// MarshalJSON emits text payloads as JSON strings and structured payloads verbatim.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch {
	case p.structured:
		return p.value, nil
	case p.text == "":
		return []byte("null"), nil
	default:
		return json.Marshal(p.text)
	}
}

// UnmarshalJSON accepts a JSON string (raw text) or any other JSON value (structured).
func (p *Payload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*p = Payload{}
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*p = TextPayload(s)
	default:
		*p = RawPayload(trimmed)
	}
	return nil
}
