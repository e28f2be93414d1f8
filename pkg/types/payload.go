package types

import (
	"encoding/json"
	"fmt"
)

// Payload holds revision content for a base or a group override.
// Structured files carry JSON object data; raw files carry plain text.
// The zero Payload is "absent" and serializes as JSON null.
type Payload struct {
	data map[string]any
	text string
	raw  bool
}

// DataPayload returns a structured payload.
func DataPayload(data map[string]any) Payload {
	return Payload{data: data}
}

// RawPayload returns a raw text payload.
func RawPayload(text string) Payload {
	return Payload{text: text, raw: true}
}

// IsRaw reports whether the payload holds raw text.
func (p Payload) IsRaw() bool { return p.raw }

// IsZero reports whether the payload is absent.
func (p Payload) IsZero() bool { return !p.raw && p.data == nil }

// Text returns the raw text, or "" for structured payloads.
func (p Payload) Text() string { return p.text }

// Data returns the structured data, or nil for raw payloads.
func (p Payload) Data() map[string]any { return p.data }

// Clone returns a deep copy; mutations of the copy never reach the
// original.
func (p Payload) Clone() Payload {
	if p.raw {
		return p
	}
	if p.data == nil {
		return Payload{}
	}
	return Payload{data: deepCopyMap(p.data)}
}

// MarshalJSON encodes raw payloads as a JSON string and structured
// payloads as a JSON object.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.raw {
		return json.Marshal(p.text)
	}
	if p.data == nil {
		return []byte("null"), nil
	}
	return json.Marshal(p.data)
}

// UnmarshalJSON accepts a JSON string (raw file) or object
// (structured file).
func (p *Payload) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*p = Payload{}
	case string:
		*p = RawPayload(t)
	case map[string]any:
		*p = DataPayload(t)
	default:
		return fmt.Errorf("payload must be an object or a string, got %T", v)
	}
	return nil
}

func deepCopyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
