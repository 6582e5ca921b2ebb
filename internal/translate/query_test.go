package translate

import (
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/mscatalog/internal/domain/field"
	"github.com/kailas-cloud/mscatalog/internal/domain/query"
	"github.com/kailas-cloud/mscatalog/internal/engine"
)

func brand(v any) field.Field {
	return field.New("brand", v, field.String, true, false, nil)
}

func TestTranslate_EmptyTextMatchesAll(t *testing.T) {
	spec := query.NewSpec().SetText("").SetPage(0, 10).
		AddFilter("brand", query.Filter{Field: brand("Acme")})

	q := NewQueryTranslator(nil).Translate(spec)

	if q.Text != "*:*" {
		t.Errorf("text: got %q, want *:*", q.Text)
	}
	if q.Rows != 10 || q.Start != 0 {
		t.Errorf("paging: got start=%d rows=%d", q.Start, q.Rows)
	}
	want := []engine.Clause{{Key: "brand", Value: "brand_s:Acme"}}
	if !reflect.DeepEqual(q.Filters, want) {
		t.Errorf("filters: got %#v", q.Filters)
	}
	if q.Fields != nil {
		t.Errorf("empty projection should select all fields, got %v", q.Fields)
	}
}

func TestTranslate_NegativeFilter(t *testing.T) {
	spec := query.NewSpec().AddFilter("no-acme", query.Filter{Field: brand("Acme"), Negative: true})
	q := NewQueryTranslator(nil).Translate(spec)
	if len(q.Filters) != 1 || q.Filters[0].Value != "-brand_s:Acme" {
		t.Fatalf("got %#v", q.Filters)
	}
}

func TestTranslate_DuplicateKeyOverwrites(t *testing.T) {
	spec := query.NewSpec().
		AddFilter("brand", query.Filter{Field: brand("Acme")}).
		AddFilter("brand", query.Filter{Field: brand("Globex")})
	q := NewQueryTranslator(nil).Translate(spec)
	if len(q.Filters) != 1 || q.Filters[0].Value != "brand_s:Globex" {
		t.Fatalf("got %#v", q.Filters)
	}
}

func TestTranslate_MalformedEntriesSkipped(t *testing.T) {
	spec := query.NewSpec().
		AddFilter("empty", query.Filter{}).
		AddFilter("blob", query.Filter{Field: field.New("blob", "x", field.Type("binary"), true, false, nil)}).
		AddFilter("ok", query.Filter{Field: brand("Acme")}).
		AddFacet("broken", field.Field{}).
		AddStat("broken", field.Field{})

	q := NewQueryTranslator(nil).Translate(spec)

	if len(q.Filters) != 1 || q.Filters[0].Key != "ok" {
		t.Errorf("filters: got %#v", q.Filters)
	}
	if len(q.FacetQueries) != 0 || len(q.StatsFields) != 0 {
		t.Errorf("facets/stats should be skipped: %#v %#v", q.FacetQueries, q.StatsFields)
	}
}

func TestTranslate_FacetsStatsSorts(t *testing.T) {
	price := field.New("price", nil, field.Double, true, false, nil)
	spec := query.NewSpec().SetText("shoes").SetPage(40, 20).
		AddField(brand(nil)).
		AddFacet("red", field.New("color", "red", field.String, true, false, nil)).
		AddFacet("cheap", field.New("price", "[0 TO 10]", field.Double, true, false, nil)).
		AddStat("price", price).
		AddSort(price, query.Desc).
		AddSort(brand(nil), query.Asc)

	q := NewQueryTranslator(nil).Translate(spec)

	if q.Text != "shoes" || q.Start != 40 || q.Rows != 20 {
		t.Errorf("base: %+v", q)
	}
	wantFields := []string{"solr_id", "id", "object_type", "brand_s"}
	if !reflect.DeepEqual(q.Fields, wantFields) {
		t.Errorf("fields: got %v", q.Fields)
	}
	wantFacets := []engine.Clause{
		{Key: "cheap", Value: "price_d: [0 TO 10]"},
		{Key: "red", Value: "color_s: red"},
	}
	if !reflect.DeepEqual(q.FacetQueries, wantFacets) {
		t.Errorf("facets: got %#v", q.FacetQueries)
	}
	if !reflect.DeepEqual(q.StatsFields, []engine.Clause{{Key: "price", Value: "price_d"}}) {
		t.Errorf("stats: got %#v", q.StatsFields)
	}
	wantSorts := []engine.Sort{{Field: "price_d", Direction: "desc"}, {Field: "brand_s", Direction: "asc"}}
	if !reflect.DeepEqual(q.Sorts, wantSorts) {
		t.Errorf("sorts: got %#v", q.Sorts)
	}
}

func TestTranslate_NoSortKeepsRelevance(t *testing.T) {
	q := NewQueryTranslator(nil).Translate(query.NewSpec())
	if q.Sorts != nil {
		t.Fatalf("got %#v", q.Sorts)
	}
	if q.Values().Get("sort") != "" {
		t.Fatal("sort param should be absent")
	}
}

func TestTranslate_Idempotent(t *testing.T) {
	spec := query.NewSpec()
	for _, k := range []string{"c", "a", "b", "e", "d"} {
		spec.AddFilter(k, query.Filter{Field: brand(k)})
		spec.AddFacet(k, brand(k))
		spec.AddStat(k, field.New(k, nil, field.Int, true, false, nil))
	}
	tr := NewQueryTranslator(nil)
	first := tr.Translate(spec)
	second := tr.Translate(spec)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("translations differ:\n%#v\n%#v", first, second)
	}
	if !reflect.DeepEqual(first.Values(), second.Values()) {
		t.Fatal("encoded params differ")
	}
}

func TestTranslate_NonStringValueEncoded(t *testing.T) {
	spec := query.NewSpec().
		AddFilter("in-stock", query.Filter{Field: field.New("in_stock", true, field.Boolean, true, false, nil)}).
		AddFilter("qty", query.Filter{Field: field.New("qty", 3, field.Int, true, true, nil)})
	q := NewQueryTranslator(nil).Translate(spec)
	want := []engine.Clause{
		{Key: "in-stock", Value: "in_stock_b:true"},
		{Key: "qty", Value: "qty_is:3"},
	}
	if !reflect.DeepEqual(q.Filters, want) {
		t.Fatalf("got %#v", q.Filters)
	}
}

func TestFieldClause(t *testing.T) {
	got, err := FieldClause(field.New("stock", 0, field.Int, true, false, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got != "stock_i:0" {
		t.Errorf("clause = %q", got)
	}
	if _, err := FieldClause(field.Field{}); err == nil {
		t.Error("expected error for zero field")
	}
}

func TestTranslate_DatetimeValueQuoted(t *testing.T) {
	ts := time.Date(2023, 12, 31, 23, 59, 58, 0, time.UTC)
	created := func(v any) field.Field {
		return field.New("created", v, field.Datetime, true, false, nil)
	}
	spec := query.NewSpec().
		AddFilter("at", query.Filter{Field: created(ts)}).
		AddFilter("not-at", query.Filter{Field: created("2023-12-31 23:59:58"), Negative: true}).
		AddFilter("range", query.Filter{Field: created("[NOW-1DAY TO NOW]")}).
		AddFacet("new-year-eve", created(ts))

	q := NewQueryTranslator(nil).Translate(spec)

	want := []engine.Clause{
		{Key: "at", Value: `created_dt:"2023-12-31T23:59:58Z"`},
		{Key: "not-at", Value: `-created_dt:"2023-12-31T23:59:58Z"`},
		{Key: "range", Value: "created_dt:[NOW-1DAY TO NOW]"},
	}
	if !reflect.DeepEqual(q.Filters, want) {
		t.Errorf("filters: got %#v", q.Filters)
	}
	wantFacets := []engine.Clause{{Key: "new-year-eve", Value: `created_dt: "2023-12-31T23:59:58Z"`}}
	if !reflect.DeepEqual(q.FacetQueries, wantFacets) {
		t.Errorf("facets: got %#v", q.FacetQueries)
	}

	clause, err := FieldClause(created(ts))
	if err != nil {
		t.Fatal(err)
	}
	if clause != `created_dt:"2023-12-31T23:59:58Z"` {
		t.Errorf("clause = %q", clause)
	}
}
