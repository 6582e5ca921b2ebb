package document

import "github.com/kailas-cloud/mscatalog/internal/domain/field"

// Document is a catalog document: engine key, catalog identifiers and ordered fields.
type Document struct {
	uniqueID   string
	objectID   int64
	objectType string
	fields     []field.Field
}

// New creates a Document. Fields keep the given order.
func New(uniqueID string, objectID int64, objectType string, fields ...field.Field) Document {
	return Document{
		uniqueID:   uniqueID,
		objectID:   objectID,
		objectType: objectType,
		fields:     append([]field.Field(nil), fields...),
	}
}

// UniqueID returns the engine primary key.
func (d *Document) UniqueID() string { return d.uniqueID }

// ObjectID returns the catalog object identifier.
func (d *Document) ObjectID() int64 { return d.objectID }

// ObjectType returns the catalog object type.
func (d *Document) ObjectType() string { return d.objectType }

// Fields returns the document fields in insertion order.
func (d *Document) Fields() []field.Field { return d.fields }

// Field returns the first field with the given name.
func (d *Document) Field(name string) (field.Field, bool) {
	for _, f := range d.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return field.Field{}, false
}

// WithField returns a copy with f appended, replacing an existing field of the same name.
func (d *Document) WithField(f field.Field) Document {
	fields := make([]field.Field, 0, len(d.fields)+1)
	replaced := false
	for _, existing := range d.fields {
		if existing.Name() == f.Name() {
			fields = append(fields, f)
			replaced = true
			continue
		}
		fields = append(fields, existing)
	}
	if !replaced {
		fields = append(fields, f)
	}
	return Document{uniqueID: d.uniqueID, objectID: d.objectID, objectType: d.objectType, fields: fields}
}
