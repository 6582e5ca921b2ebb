package codec

import (
	"github.com/kailas-cloud/mscatalog/internal/domain/document"
	"github.com/kailas-cloud/mscatalog/internal/domain/field"
	"github.com/kailas-cloud/mscatalog/internal/engine"
)

// EncodeDocument builds the engine update record for d: the reserved keys first, then
// every field in document order. The first field that fails to encode aborts the
// document.
func EncodeDocument(d *document.Document) (engine.Doc, error) {
	out := make(engine.Doc, 0, len(d.Fields())+3)
	out = append(out,
		engine.Pair{Name: KeyUniqueID, Value: d.UniqueID()},
		engine.Pair{Name: KeyObjectID, Value: d.ObjectID()},
		engine.Pair{Name: KeyObjectType, Value: d.ObjectType()},
	)
	for _, f := range d.Fields() {
		name, value, err := Encode(f)
		if err != nil {
			return nil, err
		}
		out.Set(name, value)
	}
	return out, nil
}

// DecodeDocument rebuilds a catalog document from an engine document. Reserved keys
// populate the identifiers; every other pair becomes a field in engine order.
func DecodeDocument(doc engine.Doc) document.Document {
	var (
		uniqueID   string
		objectID   int64
		objectType string
		fields     = make([]field.Field, 0, len(doc))
	)
	for _, p := range doc {
		switch p.Name {
		case KeyUniqueID:
			uniqueID, _ = toString(p.Value)
			continue
		case KeyObjectID:
			if n, ok := toInt64(p.Value); ok {
				objectID = n
				continue
			}
		case KeyObjectType:
			objectType, _ = toString(p.Value)
			continue
		}
		fields = append(fields, DecodeResponseField(p.Name, p.Value))
	}
	return document.New(uniqueID, objectID, objectType, fields...)
}

// DecodeRawDocument keeps every engine name untouched.
func DecodeRawDocument(doc engine.Doc) document.Document {
	fields := make([]field.Field, 0, len(doc))
	var (
		uniqueID   string
		objectID   int64
		objectType string
	)
	for _, p := range doc {
		switch p.Name {
		case KeyUniqueID:
			uniqueID, _ = toString(p.Value)
		case KeyObjectID:
			objectID, _ = toInt64(p.Value)
		case KeyObjectType:
			objectType, _ = toString(p.Value)
		}
		fields = append(fields, RawField(p.Name, p.Value))
	}
	return document.New(uniqueID, objectID, objectType, fields...)
}
