package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Pair is one engine field name with its value.
type Pair struct {
	Name  string
	Value any
}

// Doc is an engine document. Field order is preserved in both directions of the JSON
// encoding, so a document read back from the engine keeps the engine's field order.
type Doc []Pair

// Get returns the value of the first field called name.
func (d Doc) Get(name string) (any, bool) {
	for _, p := range d {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of name or appends it.
func (d *Doc) Set(name string, value any) {
	for i := range *d {
		if (*d)[i].Name == name {
			(*d)[i].Value = value
			return
		}
	}
	*d = append(*d, Pair{Name: name, Value: value})
}

// Project returns the subset of d named in fields, in d's order. An empty list keeps all.
func (d Doc) Project(fields []string) Doc {
	if len(fields) == 0 {
		return d
	}
	want := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f == "*" {
			return d
		}
		want[f] = struct{}{}
	}
	out := make(Doc, 0, len(fields))
	for _, p := range d {
		if _, ok := want[p.Name]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Map returns the document as a map, losing field order.
func (d Doc) Map() map[string]any {
	m := make(map[string]any, len(d))
	for _, p := range d {
		m[p.Name] = p.Value
	}
	return m
}

// MarshalJSON encodes the document as a JSON object in field order.
func (d Doc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal field name %q: %w", p.Name, err)
		}
		val, err := json.Marshal(p.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", p.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order. Numbers decode as json.Number.
func (d *Doc) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if tok == nil {
		*d = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("document must be a JSON object, got %v", tok)
	}

	out := Doc{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read field name: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("field name must be a string, got %v", keyTok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("read field %q: %w", key, err)
		}
		out = append(out, Pair{Name: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read document end: %w", err)
	}

	*d = out
	return nil
}
