package codec

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/mscatalog/internal/domain"
	"github.com/kailas-cloud/mscatalog/internal/domain/document"
	"github.com/kailas-cloud/mscatalog/internal/domain/field"
	"github.com/kailas-cloud/mscatalog/internal/engine"
)

func TestEncodeFieldName(t *testing.T) {
	tests := []struct {
		name  string
		field field.Field
		want  string
	}{
		{"string", field.New("brand", "Acme", field.String, true, false, nil), "brand_s"},
		{"strings", field.New("tags", nil, field.String, true, true, nil), "tags_ss"},
		{"int", field.New("qty", 1, field.Int, true, false, nil), "qty_i"},
		{"longs", field.New("ids", nil, field.Long, true, true, nil), "ids_ls"},
		{"double", field.New("price", 1.5, field.Double, true, false, nil), "price_d"},
		{"text multi", field.New("body", nil, field.Text, true, true, nil), "body_txt"},
		{"datetime", field.New("created", nil, field.Datetime, true, false, nil), "created_dt"},
		{"underscored name", field.New("brand_name", "x", field.String, true, false, nil), "brand_name_s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeFieldName(tt.field)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeFieldName_Unsupported(t *testing.T) {
	_, err := EncodeFieldName(field.New("blob", "x", field.Type("binary"), true, false, nil))
	if !errors.Is(err, domain.ErrUnsupportedFieldType) {
		t.Fatalf("expected ErrUnsupportedFieldType, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "blob" {
		t.Fatalf("expected FieldError for blob, got %v", err)
	}
}

func TestEncodeFieldName_EmptyName(t *testing.T) {
	_, err := EncodeFieldName(field.New("", "x", field.String, true, false, nil))
	if !errors.Is(err, domain.ErrInvalidFieldName) {
		t.Fatalf("expected ErrInvalidFieldName, got %v", err)
	}
	if _, _, err := Encode(field.New("", 1, field.Int, true, false, nil)); !errors.Is(err, domain.ErrInvalidFieldName) {
		t.Fatalf("encode: expected ErrInvalidFieldName, got %v", err)
	}
}

func TestEncodeFieldName_Injective(t *testing.T) {
	seen := map[string]string{}
	for _, name := range []string{"a", "a_s", "a_b", "ab", "a__", "_a"} {
		enc, err := EncodeFieldName(field.New(name, "v", field.String, true, false, nil))
		if err != nil {
			t.Fatal(err)
		}
		if prev, dup := seen[enc]; dup {
			t.Fatalf("%q and %q both encode to %q", prev, name, enc)
		}
		seen[enc] = name
	}
}

func TestEncodeFieldValue_Datetime(t *testing.T) {
	want := "2024-03-05T10:20:30Z"
	inputs := []any{
		time.Date(2024, 3, 5, 13, 20, 30, 0, time.FixedZone("MSK", 3*3600)),
		"2024-03-05T10:20:30Z",
		"2024-03-05 10:20:30",
		int64(1709634030),
	}
	for _, in := range inputs {
		got, err := EncodeFieldValue(field.New("created", in, field.Datetime, true, false, nil))
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("%v: got %v, want %s", in, got, want)
		}
	}
}

func TestEncodeFieldValue_UnparsableDatetime(t *testing.T) {
	_, err := EncodeFieldValue(field.New("created", "yesterday", field.Datetime, true, false, nil))
	if !errors.Is(err, domain.ErrUnparsableDatetime) {
		t.Fatalf("expected ErrUnparsableDatetime, got %v", err)
	}
}

func TestEncodeFieldValue_InvalidValue(t *testing.T) {
	_, err := EncodeFieldValue(field.New("qty", "many", field.Int, true, false, nil))
	if !errors.Is(err, domain.ErrInvalidFieldValue) {
		t.Fatalf("expected ErrInvalidFieldValue, got %v", err)
	}
}

func TestEncodeFieldValue_IntegralFloatRange(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"integral", 42.0, 42, true},
		{"min int64", float64(math.MinInt64), math.MinInt64, true},
		{"float32", float32(7), 7, true},
		{"json number", json.Number("12"), 12, true},
		{"above int64", 1e20, 0, false},
		{"below int64", -1e20, 0, false},
		{"two to the 63", math.Exp2(63), 0, false},
		{"json number overflow", json.Number("1e20"), 0, false},
		{"fraction", 1.5, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeFieldValue(field.New("qty", tt.in, field.Long, true, false, nil))
			if !tt.ok {
				if !errors.Is(err, domain.ErrInvalidFieldValue) {
					t.Fatalf("expected ErrInvalidFieldValue, got %v (%v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %d", got, tt.want)
			}
		})
	}
}

func TestEncodeFieldValue_MultiWrapsScalar(t *testing.T) {
	got, err := EncodeFieldValue(field.New("tags", "one", field.String, true, true, nil))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []any{"one"}) {
		t.Fatalf("got %#v", got)
	}
}

func TestRoundTrip(t *testing.T) {
	ts := time.Date(2023, 12, 31, 23, 59, 58, 0, time.UTC)
	fields := []field.Field{
		field.New("brand", "Acme", field.String, true, false, nil),
		field.New("tags", []string{"a", "b"}, field.String, true, true, nil),
		field.New("qty", int64(7), field.Int, true, false, nil),
		field.New("sizes", []int64{1, 2}, field.Int, true, true, nil),
		field.New("views", int64(1) << 40, field.Long, true, false, nil),
		field.New("ratio", 0.25, field.Float, true, false, nil),
		field.New("price", 19.99, field.Double, true, false, nil),
		field.New("prices", []float64{1.5, 2.5}, field.Double, true, true, nil),
		field.New("active", true, field.Boolean, true, false, nil),
		field.New("flags", []bool{true, false}, field.Boolean, true, true, nil),
		field.New("title", "red shoes", field.Text, true, false, nil),
		field.New("notes", []string{"x y"}, field.Text, true, true, nil),
		field.New("created", ts, field.Datetime, true, false, nil),
		field.New("seen", []time.Time{ts}, field.Datetime, true, true, nil),
		field.New("where", "55.75,37.61", field.Location, true, false, nil),
	}

	for _, f := range fields {
		t.Run(f.Name(), func(t *testing.T) {
			name, value, err := Encode(f)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			// pass through the wire so decoding sees what the engine returns
			raw, err := json.Marshal(engine.Doc{{Name: name, Value: value}})
			if err != nil {
				t.Fatal(err)
			}
			var doc engine.Doc
			if err := json.Unmarshal(raw, &doc); err != nil {
				t.Fatal(err)
			}

			got := DecodeResponseField(doc[0].Name, doc[0].Value)
			if got.Name() != f.Name() || got.FieldType() != f.FieldType() || got.MultiValued() != f.MultiValued() {
				t.Fatalf("got (%s,%s,%v), want (%s,%s,%v)",
					got.Name(), got.FieldType(), got.MultiValued(), f.Name(), f.FieldType(), f.MultiValued())
			}
			if !reflect.DeepEqual(got.Value(), f.Value()) {
				t.Errorf("value: got %#v, want %#v", got.Value(), f.Value())
			}
		})
	}
}

func TestDecodeResponseField_Unsuffixed(t *testing.T) {
	f := DecodeResponseField("score", json.Number("1.5"))
	if f.FieldType() != field.Double || f.Value() != 1.5 {
		t.Fatalf("got %s %#v", f.FieldType(), f.Value())
	}
	f = DecodeResponseField("_version_", json.Number("42"))
	if f.Name() != "_version_" || f.FieldType() != field.Long || f.Value() != int64(42) {
		t.Fatalf("got %s %s %#v", f.Name(), f.FieldType(), f.Value())
	}
}

func TestDecodeResponseField_MismatchKeepsRaw(t *testing.T) {
	f := DecodeResponseField("qty_i", "lots")
	if f.Name() != "qty" || f.FieldType() != field.Int || f.Value() != "lots" {
		t.Fatalf("got %s %s %#v", f.Name(), f.FieldType(), f.Value())
	}
}

func TestEncodeDocument(t *testing.T) {
	d := document.New("product-1", 1, "product",
		field.New("brand", "Acme", field.String, true, false, nil),
		field.New("price", 10, field.Double, true, false, nil),
	)
	got, err := EncodeDocument(&d)
	if err != nil {
		t.Fatal(err)
	}
	want := engine.Doc{
		{Name: "solr_id", Value: "product-1"},
		{Name: "id", Value: int64(1)},
		{Name: "object_type", Value: "product"},
		{Name: "brand_s", Value: "Acme"},
		{Name: "price_d", Value: float64(10)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v", got)
	}
}

func TestEncodeDocument_FailingFieldAborts(t *testing.T) {
	d := document.New("p", 1, "product", field.New("created", "soon", field.Datetime, true, false, nil))
	if _, err := EncodeDocument(&d); !errors.Is(err, domain.ErrUnparsableDatetime) {
		t.Fatalf("expected ErrUnparsableDatetime, got %v", err)
	}
}

func TestDecodeDocument_PreservesOrder(t *testing.T) {
	var doc engine.Doc
	body := `{"title_t":"x","solr_id":"p-1","id":3,"object_type":"product","brand_s":"Acme","score":1}`
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatal(err)
	}
	d := DecodeDocument(doc)
	if d.UniqueID() != "p-1" || d.ObjectID() != 3 || d.ObjectType() != "product" {
		t.Fatalf("identifiers: %q %d %q", d.UniqueID(), d.ObjectID(), d.ObjectType())
	}
	var names []string
	for _, f := range d.Fields() {
		names = append(names, f.Name())
	}
	if !reflect.DeepEqual(names, []string{"title", "brand", "score"}) {
		t.Fatalf("field order: %v", names)
	}
}

func TestDecodeRawDocument_KeepsNames(t *testing.T) {
	d := DecodeRawDocument(engine.Doc{{Name: "brand_s", Value: "Acme"}, {Name: "id", Value: json.Number("9")}})
	if d.ObjectID() != 9 {
		t.Fatalf("object id: %d", d.ObjectID())
	}
	if _, ok := d.Field("brand_s"); !ok {
		t.Fatal("raw name lost")
	}
}
