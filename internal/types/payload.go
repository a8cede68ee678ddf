package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Payload is a JSON object whose keys keep their wire order across a
// decode/encode round trip. The relay forwards request bodies without
// reshaping them, so fields it never interprets must keep their value
// bytes and their original position.
type Payload struct {
	keys   []string
	values map[string]json.RawMessage
}

// UnmarshalJSON decodes a JSON object, recording key order.
// Duplicate keys keep their first position and their last value.
func (p *Payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("payload: not a JSON object")
	}

	p.keys = p.keys[:0]
	p.values = make(map[string]json.RawMessage)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("payload: unexpected key token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		if _, seen := p.values[key]; !seen {
			p.keys = append(p.keys, key)
		}
		p.values[key] = raw
	}

	// Closing brace.
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the object with keys in recorded order.
func (p *Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(p.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the raw value stored under key.
func (p *Payload) Get(key string) (json.RawMessage, bool) {
	raw, ok := p.values[key]
	return raw, ok
}

// GetString returns the value under key if it is a JSON string.
func (p *Payload) GetString(key string) (string, bool) {
	raw, ok := p.values[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Set marshals v and stores it under key. An existing key keeps its
// position; a new key is appended at the end.
func (p *Payload) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.SetRaw(key, raw)
	return nil
}

// SetRaw stores a pre-encoded value under key.
func (p *Payload) SetRaw(key string, raw json.RawMessage) {
	if p.values == nil {
		p.values = make(map[string]json.RawMessage)
	}
	if _, seen := p.values[key]; !seen {
		p.keys = append(p.keys, key)
	}
	p.values[key] = raw
}

// Len returns the number of keys.
func (p *Payload) Len() int {
	return len(p.keys)
}

// Keys returns the keys in wire order.
func (p *Payload) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}
