package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is the opaque application data carried by a block.
// Key order is irrelevant: the canonical form sorts keys at every depth.
type Payload map[string]interface{}

// UnmarshalJSON decodes a payload while keeping numbers in their source
// form, so that re-encoding after a reload reproduces the hashed bytes.
func (p *Payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	*p = m
	return nil
}

// Canonical returns the canonical JSON serialization of the payload:
// sorted keys, no insignificant whitespace and no HTML escaping.
func (p Payload) Canonical() ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]interface{}(p)); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	// Encode terminates every value with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Clone returns a deep copy of the payload
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	return cloneMap(p)
}

// With returns a copy of the payload with key set to value
func (p Payload) With(key string, value interface{}) Payload {
	c := p.Clone()
	if c == nil {
		c = Payload{}
	}
	c[key] = value
	return c
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	c := make(map[string]interface{}, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Payload:
		return t.Clone()
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		c := make([]interface{}, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	default:
		return v
	}
}
