package document

import (
	"testing"

	"github.com/kailas-cloud/mscatalog/internal/domain/field"
)

func TestNew_CopiesFields(t *testing.T) {
	fields := []field.Field{
		field.New("brand", "Acme", field.String, true, false, nil),
		field.New("price", 9.5, field.Double, true, false, nil),
	}
	doc := New("product-1", 1, "product", fields...)
	fields[0] = field.New("brand", "Globex", field.String, true, false, nil)

	if doc.UniqueID() != "product-1" || doc.ObjectID() != 1 || doc.ObjectType() != "product" {
		t.Errorf("identifiers: %s %d %s", doc.UniqueID(), doc.ObjectID(), doc.ObjectType())
	}
	brand, ok := doc.Field("brand")
	if !ok || brand.Value() != "Acme" {
		t.Errorf("caller slice aliased: %+v", brand)
	}
	if got := doc.Fields(); len(got) != 2 || got[1].Name() != "price" {
		t.Errorf("order lost: %+v", got)
	}
}

func TestField_Missing(t *testing.T) {
	doc := New("product-1", 1, "product")
	if _, ok := doc.Field("brand"); ok {
		t.Error("expected missing field")
	}
}

func TestWithField(t *testing.T) {
	doc := New("product-1", 1, "product",
		field.New("brand", "Acme", field.String, true, false, nil),
		field.New("price", 9.5, field.Double, true, false, nil),
	)

	replaced := doc.WithField(field.New("brand", "Globex", field.String, true, false, nil))
	if b, _ := replaced.Field("brand"); b.Value() != "Globex" {
		t.Errorf("not replaced: %+v", b)
	}
	if replaced.Fields()[0].Name() != "brand" || len(replaced.Fields()) != 2 {
		t.Errorf("replacement moved or duplicated: %+v", replaced.Fields())
	}
	if b, _ := doc.Field("brand"); b.Value() != "Acme" {
		t.Errorf("original mutated: %+v", b)
	}

	appended := doc.WithField(field.New("stock", 3, field.Int, true, false, nil))
	if len(appended.Fields()) != 3 || appended.Fields()[2].Name() != "stock" {
		t.Errorf("not appended: %+v", appended.Fields())
	}
	if appended.UniqueID() != doc.UniqueID() {
		t.Errorf("identifiers lost")
	}
}
