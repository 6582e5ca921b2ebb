package source

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/mscatalog/internal/domain/field"
)

func TestJSONLines(t *testing.T) {
	in := `{"unique_id":"p-1","object_id":1,"object_type":"product","fields":[{"name":"brand","type":"string","value":"Acme"}]}
{"unique_id":"p-2","object_id":2,"object_type":"product","fields":[{"name":"tags","type":"string","value":["a","b"],"multi_valued":true,"indexable":false}]}
`
	var ids []string
	for d, err := range JSONLines(strings.NewReader(in)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids = append(ids, d.UniqueID())
		if d.UniqueID() == "p-2" {
			f, ok := d.Field("tags")
			if !ok || !f.MultiValued() || f.Indexable() || f.FieldType() != field.String {
				t.Errorf("tags: %+v", f)
			}
		}
	}
	if strings.Join(ids, ",") != "p-1,p-2" {
		t.Fatalf("ids: %v", ids)
	}
}

func TestJSONLines_DecodeErrorStops(t *testing.T) {
	in := `{"unique_id":"p-1","object_id":1}
not json
{"unique_id":"p-3","object_id":3}`
	var docs, errs int
	for _, err := range JSONLines(strings.NewReader(in)) {
		if err != nil {
			if !errors.Is(err, ErrMalformedDocument) {
				t.Errorf("expected ErrMalformedDocument, got %v", err)
			}
			errs++
			continue
		}
		docs++
	}
	if docs != 1 || errs != 1 {
		t.Fatalf("docs=%d errs=%d", docs, errs)
	}
}

func TestSlice_StopsEarly(t *testing.T) {
	n := 0
	for range Slice(DocumentJSON{UniqueID: "a"}.Document(), DocumentJSON{UniqueID: "b"}.Document()) {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("n=%d", n)
	}
}

func TestFromDocument_RoundTrip(t *testing.T) {
	d := DocumentJSON{UniqueID: "p", ObjectID: 7, ObjectType: "product",
		Fields: []FieldJSON{{Name: "price", Type: "double", Value: 1.5}}}.Document()
	back := FromDocument(&d).Document()
	f, ok := back.Field("price")
	if back.ObjectID() != 7 || !ok || f.Value() != 1.5 || !f.Indexable() {
		t.Fatalf("got %+v", back)
	}
}
