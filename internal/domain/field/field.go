package field

// Type is the abstract catalog type of a field.
type Type string

// Field type constants.
const (
	String   Type = "string"
	Int      Type = "int"
	Long     Type = "long"
	Float    Type = "float"
	Double   Type = "double"
	Boolean  Type = "boolean"
	Text     Type = "text"
	Datetime Type = "datetime"
	Location Type = "location"
)

// Field is an immutable value object describing one typed value of a catalog document.
type Field struct {
	name        string
	value       any
	fieldType   Type
	indexable   bool
	multiValued bool
	args        map[string]any
}

// New creates a Field. The type is fixed at construction; whether the engine can
// represent it is decided at encode time.
func New(name string, value any, ft Type, indexable, multiValued bool, args map[string]any) Field {
	return Field{
		name:        name,
		value:       value,
		fieldType:   ft,
		indexable:   indexable,
		multiValued: multiValued,
		args:        cloneArgs(args),
	}
}

// Name returns the abstract field name.
func (f Field) Name() string { return f.name }

// Value returns the raw field value.
func (f Field) Value() any { return f.value }

// FieldType returns the abstract field type.
func (f Field) FieldType() Type { return f.fieldType }

// Indexable reports whether the field is meant to be searchable.
func (f Field) Indexable() bool { return f.indexable }

// MultiValued reports whether the engine must encode the value as a sequence.
func (f Field) MultiValued() bool { return f.multiValued }

// Args returns extra field arguments. The map must not be modified.
func (f Field) Args() map[string]any { return f.args }

// IsZero reports whether the field was never initialized (no name).
func (f Field) IsZero() bool { return f.name == "" }

// WithValue returns a copy of the field carrying a different value.
func (f Field) WithValue(v any) Field {
	c := f
	c.value = v
	return c
}

func cloneArgs(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
