// Package source provides document sources for the pusher: lazy, single-pass sequences.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/kailas-cloud/mscatalog/internal/domain/document"
	"github.com/kailas-cloud/mscatalog/internal/domain/field"
)

// ErrMalformedDocument is yielded when the stream holds something that is not a document.
var ErrMalformedDocument = errors.New("malformed document")

// FieldJSON is the wire form of a field.
type FieldJSON struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Value       any            `json:"value"`
	Indexable   *bool          `json:"indexable,omitempty"`
	MultiValued bool           `json:"multi_valued,omitempty"`
	Args        map[string]any `json:"args,omitempty"`
}

// DocumentJSON is the wire form of a document.
type DocumentJSON struct {
	UniqueID   string      `json:"unique_id"`
	ObjectID   int64       `json:"object_id"`
	ObjectType string      `json:"object_type"`
	Fields     []FieldJSON `json:"fields"`
}

// Document converts the wire form. Fields are indexable unless stated otherwise.
func (d DocumentJSON) Document() document.Document {
	fields := make([]field.Field, 0, len(d.Fields))
	for _, f := range d.Fields {
		fields = append(fields, f.Field())
	}
	return document.New(d.UniqueID, d.ObjectID, d.ObjectType, fields...)
}

// Field converts the wire form.
func (f FieldJSON) Field() field.Field {
	indexable := true
	if f.Indexable != nil {
		indexable = *f.Indexable
	}
	return field.New(f.Name, f.Value, field.Type(f.Type), indexable, f.MultiValued, f.Args)
}

// FromDocument builds the wire form of d.
func FromDocument(d *document.Document) DocumentJSON {
	out := DocumentJSON{
		UniqueID:   d.UniqueID(),
		ObjectID:   d.ObjectID(),
		ObjectType: d.ObjectType(),
		Fields:     make([]FieldJSON, 0, len(d.Fields())),
	}
	for _, f := range d.Fields() {
		indexable := f.Indexable()
		out.Fields = append(out.Fields, FieldJSON{
			Name:        f.Name(),
			Type:        string(f.FieldType()),
			Value:       f.Value(),
			Indexable:   &indexable,
			MultiValued: f.MultiValued(),
			Args:        f.Args(),
		})
	}
	return out
}

// JSONLines reads a stream of JSON documents, one per line or simply concatenated.
// Numbers keep their textual form until the codec coerces them. The sequence stops at
// the first decode error, which it yields once.
func JSONLines(r io.Reader) iter.Seq2[document.Document, error] {
	return func(yield func(document.Document, error) bool) {
		dec := json.NewDecoder(r)
		dec.UseNumber()
		for line := 1; ; line++ {
			var d DocumentJSON
			err := dec.Decode(&d)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(document.Document{}, fmt.Errorf("decode document %d: %w: %w", line, ErrMalformedDocument, err))
				return
			}
			if !yield(d.Document(), nil) {
				return
			}
		}
	}
}

// Slice yields docs in order.
func Slice(docs ...document.Document) iter.Seq2[document.Document, error] {
	return func(yield func(document.Document, error) bool) {
		for _, d := range docs {
			if !yield(d, nil) {
				return
			}
		}
	}
}
