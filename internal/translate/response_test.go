package translate

import (
	"net/http"
	"testing"

	"github.com/kailas-cloud/mscatalog/internal/domain/field"
	"github.com/kailas-cloud/mscatalog/internal/engine"
)

func rawResult(t *testing.T, q *engine.Query, body string) *engine.RawResult {
	t.Helper()
	raw, err := engine.NewRawResult(engine.Status{Code: http.StatusOK, Message: "OK"}, q, []byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return raw
}

func TestFromQuery_Full(t *testing.T) {
	body := `{
		"responseHeader": {"status": 0, "QTime": 1, "params": {"rows": "10"}},
		"response": {"numFound": 42, "start": 20, "docs": [
			{"solr_id": "p-1", "id": 1, "object_type": "product", "brand_s": "Acme", "price_d": 9.5},
			{"solr_id": "p-2", "id": 2, "object_type": "product", "tags_ss": ["a", "b"]}
		]},
		"facet_counts": {"facet_queries": {"color": 5}},
		"stats": {"stats_fields": {"price": {"min": 1, "max": 9.5, "count": 3, "missing": 1, "sum": 15, "mean": 5}}}
	}`
	resp := NewResponseTranslator(nil).FromQuery(rawResult(t, &engine.Query{Start: 20, Rows: 10}, body))

	if resp.NumFound != 42 {
		t.Errorf("numFound: %d", resp.NumFound)
	}
	if resp.CurrentPage != 3 {
		t.Errorf("page: got %d, want 3", resp.CurrentPage)
	}
	if resp.StatusCode != 200 || resp.StatusMessage != "OK" || !resp.OK() {
		t.Errorf("status: %d %q", resp.StatusCode, resp.StatusMessage)
	}
	if len(resp.Documents) != 2 {
		t.Fatalf("documents: %d", len(resp.Documents))
	}
	d := resp.Documents[0]
	if d.UniqueID() != "p-1" || d.ObjectID() != 1 || d.ObjectType() != "product" {
		t.Errorf("identifiers: %q %d %q", d.UniqueID(), d.ObjectID(), d.ObjectType())
	}
	f, ok := d.Field("price")
	if !ok || f.FieldType() != field.Double || f.Value() != 9.5 {
		t.Errorf("price field: %+v", f)
	}
	tags, ok := resp.Documents[1].Field("tags")
	if !ok || !tags.MultiValued() {
		t.Errorf("tags field: %+v", tags)
	}
	if resp.Facets["color"] != 5 {
		t.Errorf("facets: %v", resp.Facets)
	}
	s := resp.Stats["price"]
	if s.Count != 3 || s.Missing != 1 || s.Sum != 15 || s.Mean != 5 || s.Max != 9.5 {
		t.Errorf("stats: %+v", s)
	}
}

func TestFromQuery_MissingSections(t *testing.T) {
	body := `{"responseHeader": {"status": 0}, "response": {"numFound": 0, "start": 0, "docs": []}}`
	resp := NewResponseTranslator(nil).FromQuery(rawResult(t, nil, body))
	if resp.Facets != nil {
		t.Errorf("facets should be absent, got %v", resp.Facets)
	}
	if resp.Stats != nil {
		t.Errorf("stats should be absent, got %v", resp.Stats)
	}
	if resp.CurrentPage != 1 {
		t.Errorf("page: %d", resp.CurrentPage)
	}
}

func TestFromQuery_EmptyBody(t *testing.T) {
	resp := NewResponseTranslator(nil).FromQuery(rawResult(t, nil, ""))
	if resp.NumFound != 0 || resp.Documents != nil || resp.StatusCode != 200 {
		t.Fatalf("got %+v", resp)
	}
	if resp := NewResponseTranslator(nil).FromQuery(nil); resp == nil || resp.CurrentPage != 1 {
		t.Fatalf("nil raw: %+v", resp)
	}
}

func TestFromQuery_PageFromEchoedRows(t *testing.T) {
	body := `{"responseHeader": {"params": {"rows": "5"}}, "response": {"numFound": 12, "start": 10, "docs": []}}`
	resp := NewResponseTranslator(nil).FromQuery(rawResult(t, nil, body))
	if resp.CurrentPage != 3 {
		t.Fatalf("page: got %d, want 3", resp.CurrentPage)
	}
}

func TestFromGet_RawNamesAndCount(t *testing.T) {
	body := `{"response": {"numFound": 1000, "start": 0, "docs": [{"brand_s": "Acme"}, {"brand_s": "Globex"}]}}`
	resp := NewResponseTranslator(nil).FromGet(rawResult(t, nil, body))
	if resp.NumFound != 2 {
		t.Errorf("numFound: got %d, want 2", resp.NumFound)
	}
	if _, ok := resp.Documents[0].Field("brand_s"); !ok {
		t.Error("raw name lost")
	}
}

func TestFromUpdate_ErrorMessage(t *testing.T) {
	raw, err := engine.NewRawResult(engine.Status{Code: http.StatusBadRequest}, nil,
		[]byte(`{"responseHeader": {"status": 400}, "error": {"msg": "undefined field foo", "code": 400}}`))
	if err != nil {
		t.Fatal(err)
	}
	resp := NewResponseTranslator(nil).FromUpdate(raw)
	if resp.StatusCode != 400 || resp.StatusMessage != "undefined field foo" || resp.OK() {
		t.Fatalf("got %+v", resp)
	}
}
