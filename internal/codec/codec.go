// Package codec maps catalog fields onto the engine's dynamic field convention:
// the abstract type and cardinality are carried by a suffix on the engine field name.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/mscatalog/internal/domain"
	"github.com/kailas-cloud/mscatalog/internal/domain/field"
)

// Reserved engine keys written on every document.
const (
	KeyUniqueID   = "solr_id"
	KeyObjectID   = "id"
	KeyObjectType = "object_type"
)

type suffixPair struct {
	single string
	multi  string
}

var suffixes = map[field.Type]suffixPair{
	field.String:   {"s", "ss"},
	field.Int:      {"i", "is"},
	field.Long:     {"l", "ls"},
	field.Float:    {"f", "fs"},
	field.Double:   {"d", "ds"},
	field.Boolean:  {"b", "bs"},
	field.Text:     {"t", "txt"},
	field.Datetime: {"dt", "dts"},
	field.Location: {"p", "ps"},
}

type typeInfo struct {
	fieldType   field.Type
	multiValued bool
}

var bySuffix = func() map[string]typeInfo {
	m := make(map[string]typeInfo, 2*len(suffixes))
	for t, s := range suffixes {
		m[s.single] = typeInfo{fieldType: t}
		m[s.multi] = typeInfo{fieldType: t, multiValued: true}
	}
	return m
}()

// FieldError reports which field failed to encode.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Supported reports whether t has an engine representation.
func Supported(t field.Type) bool {
	_, ok := suffixes[t]
	return ok
}

// EncodeFieldName returns the engine field name for f: name, underscore, type suffix.
// An empty name is ErrInvalidFieldName.
func EncodeFieldName(f field.Field) (string, error) {
	if f.Name() == "" {
		return "", &FieldError{Err: domain.ErrInvalidFieldName}
	}
	s, ok := suffixes[f.FieldType()]
	if !ok {
		return "", &FieldError{Field: f.Name(), Err: fmt.Errorf("%w: %q", domain.ErrUnsupportedFieldType, f.FieldType())}
	}
	if f.MultiValued() {
		return f.Name() + "_" + s.multi, nil
	}
	return f.Name() + "_" + s.single, nil
}

// EncodeFieldValue coerces the value of f to the engine primitive for its type.
// Multi-valued fields always encode to a slice, a scalar becoming a one-element slice.
func EncodeFieldValue(f field.Field) (any, error) {
	if !Supported(f.FieldType()) {
		return nil, &FieldError{Field: f.Name(), Err: fmt.Errorf("%w: %q", domain.ErrUnsupportedFieldType, f.FieldType())}
	}
	v := f.Value()
	if v == nil {
		return nil, nil
	}

	if !f.MultiValued() {
		out, err := encodeScalar(f.FieldType(), v)
		if err != nil {
			return nil, &FieldError{Field: f.Name(), Err: err}
		}
		return out, nil
	}

	items := asSlice(v)
	out := make([]any, 0, len(items))
	for i, item := range items {
		enc, err := encodeScalar(f.FieldType(), item)
		if err != nil {
			return nil, &FieldError{Field: fmt.Sprintf("%s[%d]", f.Name(), i), Err: err}
		}
		out = append(out, enc)
	}
	return out, nil
}

// Encode returns both the engine name and value of f.
func Encode(f field.Field) (string, any, error) {
	name, err := EncodeFieldName(f)
	if err != nil {
		return "", nil, err
	}
	value, err := EncodeFieldValue(f)
	if err != nil {
		return "", nil, err
	}
	return name, value, nil
}

func encodeScalar(t field.Type, v any) (any, error) {
	switch t {
	case field.String, field.Text, field.Location:
		s, ok := toString(v)
		if !ok {
			return nil, invalid(t, v)
		}
		return s, nil
	case field.Int, field.Long:
		n, ok := toInt64(v)
		if !ok {
			return nil, invalid(t, v)
		}
		return n, nil
	case field.Float, field.Double:
		n, ok := toFloat64(v)
		if !ok {
			return nil, invalid(t, v)
		}
		return n, nil
	case field.Boolean:
		b, ok := toBool(v)
		if !ok {
			return nil, invalid(t, v)
		}
		return b, nil
	case field.Datetime:
		return FormatDatetime(v)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFieldType, t)
}

func invalid(t field.Type, v any) error {
	return fmt.Errorf("%w: %T is not a %s", domain.ErrInvalidFieldValue, v, t)
}

// DecodeResponseField rebuilds a field from an engine name and value. Suffixed names
// recover the type and cardinality from the suffix; reserved keys have fixed types;
// any other name is typed by its JSON value. Decoding never fails: a value that does
// not fit the suffix type is kept as the engine returned it.
func DecodeResponseField(name string, value any) field.Field {
	switch name {
	case KeyUniqueID, KeyObjectType:
		if s, ok := toString(value); ok {
			return field.New(name, s, field.String, true, false, nil)
		}
	case KeyObjectID:
		if n, ok := toInt64(value); ok {
			return field.New(name, n, field.Long, true, false, nil)
		}
	}

	if i := strings.LastIndexByte(name, '_'); i > 0 && i < len(name)-1 {
		if info, ok := bySuffix[name[i+1:]]; ok {
			base := name[:i]
			if decoded, ok := decodeValue(info, value); ok {
				return field.New(base, decoded, info.fieldType, true, info.multiValued, nil)
			}
			return field.New(base, value, info.fieldType, true, info.multiValued, nil)
		}
	}
	return RawField(name, value)
}

// RawField keeps the engine name untouched and infers the type from the JSON value.
func RawField(name string, value any) field.Field {
	if items, ok := value.([]any); ok {
		t := field.String
		if len(items) > 0 {
			t = inferType(items[0])
		}
		if decoded, ok := decodeValue(typeInfo{fieldType: t, multiValued: true}, items); ok {
			return field.New(name, decoded, t, true, true, nil)
		}
		return field.New(name, value, t, true, true, nil)
	}
	t := inferType(value)
	if decoded, ok := decodeValue(typeInfo{fieldType: t}, value); ok {
		return field.New(name, decoded, t, true, false, nil)
	}
	return field.New(name, value, t, true, false, nil)
}

func decodeValue(info typeInfo, value any) (any, bool) {
	if value == nil {
		return nil, true
	}
	if !info.multiValued {
		return decodeScalar(info.fieldType, value)
	}
	items := asSlice(value)
	switch info.fieldType {
	case field.Int, field.Long:
		return decodeSlice(items, toInt64)
	case field.Float, field.Double:
		return decodeSlice(items, toFloat64)
	case field.Boolean:
		return decodeSlice(items, toBool)
	case field.Datetime:
		return decodeSlice(items, toTime)
	default:
		return decodeSlice(items, toString)
	}
}

func decodeScalar(t field.Type, value any) (any, bool) {
	switch t {
	case field.Int, field.Long:
		return wrap(toInt64(value))
	case field.Float, field.Double:
		return wrap(toFloat64(value))
	case field.Boolean:
		return wrap(toBool(value))
	case field.Datetime:
		return wrap(toTime(value))
	default:
		return wrap(toString(value))
	}
}

func decodeSlice[T any](items []any, conv func(any) (T, bool)) (any, bool) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		v, ok := conv(item)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func wrap[T any](v T, ok bool) (any, bool) {
	if !ok {
		return nil, false
	}
	return v, true
}

// IsFieldError reports whether err came from field encoding.
func IsFieldError(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe)
}
