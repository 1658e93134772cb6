// Package orderedmap provides a string-keyed map that remembers insertion order
// and serializes to JSON in that order.
package orderedmap

import (
	"bytes"
	"encoding/json"
)

// Map is a string-keyed map that iterates and encodes keys in insertion order.
// The zero value is not usable; construct with New.
type Map[V any] struct {
	keys []string
	vals map[string]V
}

// New returns an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{vals: make(map[string]V)}
}

// Set stores val under key. A new key is appended to the order; an existing
// key keeps its position.
func (m *Map[V]) Set(key string, val V) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = val
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.vals[key]
	return ok
}

// Ensure returns the value under key, inserting the result of create first if
// the key is absent.
func (m *Map[V]) Ensure(key string, create func() V) V {
	if v, ok := m.vals[key]; ok {
		return v
	}
	v := create()
	m.Set(key, v)
	return v
}

// Keys returns a copy of the keys in insertion order.
func (m *Map[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (m *Map[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if m != nil {
		for i, k := range m.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := json.Marshal(m.vals[k])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
