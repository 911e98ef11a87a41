package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// OrderedMap is an integer-keyed mapping that preserves insertion order.
// The checkpoint file stores entity collections as JSON objects keyed by
// the decimal identifier; a plain Go map would scramble iteration order
// and decode keys as strings, so both directions are handled here.
type OrderedMap[K ~int, V any] struct {
	keys   []K
	values map[K]V
}

// NewOrderedMap returns an empty ordered map ready for use.
func NewOrderedMap[K ~int, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{values: make(map[K]V)}
}

// Len reports the number of entries.
func (m *OrderedMap[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value stored under key.
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	if m == nil || m.values == nil {
		var zero V
		return zero, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key, appending the key if it is new.
func (m *OrderedMap[K, V]) Set(key K, value V) {
	if m.values == nil {
		m.values = make(map[K]V)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key and its value. Remaining keys keep their positions.
func (m *OrderedMap[K, V]) Delete(key K) {
	if m == nil || m.values == nil {
		return
	}
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order. The slice is a copy.
func (m *OrderedMap[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

// MarshalJSON encodes the map as a JSON object with decimal string keys
// in insertion order.
func (m *OrderedMap[K, V]) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(strconv.Itoa(int(k)))
		if err != nil {
			return nil, fmt.Errorf("marshal key %d: %w", int(k), err)
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %d: %w", int(k), err)
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, restoring key order from document
// order and converting the string keys back to their integer type.
func (m *OrderedMap[K, V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read object start: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	m.keys = nil
	m.values = make(map[K]V)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read object key: %w", err)
		}
		keyStr, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %v", keyTok)
		}
		keyInt, err := strconv.Atoi(keyStr)
		if err != nil {
			return fmt.Errorf("non-integer key %q: %w", keyStr, err)
		}

		var value V
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode value for key %q: %w", keyStr, err)
		}
		m.Set(K(keyInt), value)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read object end: %w", err)
	}
	return nil
}
