package tikakit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Well-known metadata field names
const (
	MetaResourceName    = "resourceName"
	MetaContentType     = "Content-Type"
	MetaContentEncoding = "Content-Encoding"
)

// Metadata maps a metadata field name to its values in extraction order.
type Metadata map[string][]string

// Get returns the first value of field, or "" if the field is absent
func (m Metadata) Get(field string) string {
	if values := m[field]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// Values returns a copy of all values of field
func (m Metadata) Values(field string) []string {
	return slices.Clone(m[field])
}

// Has reports whether field is present
func (m Metadata) Has(field string) bool {
	_, ok := m[field]
	return ok
}

// Fields returns the field names in sorted order
func (m Metadata) Fields() []string {
	fields := make([]string, 0, len(m))
	for k := range m {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// ResourceName returns the resourceName field
func (m Metadata) ResourceName() string {
	return m.Get(MetaResourceName)
}

// ContentType returns the Content-Type field
func (m Metadata) ContentType() string {
	return m.Get(MetaContentType)
}

// Clone returns a deep copy of m
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	c := make(Metadata, len(m))
	for k, v := range m {
		c[k] = slices.Clone(v)
	}
	return c
}

// UnmarshalJSON accepts an object whose values are either a string or an
// array of strings. Single strings become one-element slices.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("metadata must be a JSON object")
	}

	out := make(Metadata, len(raw))
	for field, v := range raw {
		v = bytes.TrimSpace(v)
		switch {
		case len(v) > 0 && v[0] == '[':
			var values []string
			if err := json.Unmarshal(v, &values); err != nil {
				return fmt.Errorf("field %q: %w", field, err)
			}
			out[field] = values
		default:
			var value string
			if err := json.Unmarshal(v, &value); err != nil {
				return fmt.Errorf("field %q: %w", field, err)
			}
			out[field] = []string{value}
		}
	}
	*m = out
	return nil
}

// DecodeMetadata parses an engine metadata payload. Engines call it at their
// boundary so callers always receive typed results.
func DecodeMetadata(payload []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, &SerializationError{Op: "meta", Payload: string(payload), Err: err}
	}
	return m, nil
}
