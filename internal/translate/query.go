// Package translate converts between the catalog query/response model and the engine's
// native select request and JSON response.
package translate

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mscatalog/internal/codec"
	"github.com/kailas-cloud/mscatalog/internal/domain"
	"github.com/kailas-cloud/mscatalog/internal/domain/field"
	"github.com/kailas-cloud/mscatalog/internal/domain/query"
	"github.com/kailas-cloud/mscatalog/internal/engine"
)

// QueryTranslator builds engine select requests from query specs.
type QueryTranslator struct {
	logger *zap.Logger
}

// NewQueryTranslator creates a QueryTranslator. A nil logger disables logging.
func NewQueryTranslator(logger *zap.Logger) *QueryTranslator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryTranslator{logger: logger}
}

// Translate builds the engine query for spec. It never fails: entries that cannot be
// expressed are logged and skipped. Keyed sections are emitted in key order so the same
// spec always yields the same request.
func (t *QueryTranslator) Translate(spec *query.Spec) *engine.Query {
	q := &engine.Query{
		Text:  spec.Text(),
		Start: spec.PageStart(),
		Rows:  spec.PageSize(),
	}
	if q.Text == "" {
		q.Text = query.MatchAll
	}
	if q.Rows <= 0 {
		q.Rows = query.DefaultPageSize
	}

	if len(spec.Fields()) > 0 {
		q.Fields = []string{codec.KeyUniqueID, codec.KeyObjectID, codec.KeyObjectType}
		for _, f := range spec.Fields() {
			name, err := codec.EncodeFieldName(f)
			if err != nil {
				t.skip("projection", f.Name(), err)
				continue
			}
			q.Fields = append(q.Fields, name)
		}
	}

	filters := spec.Filters()
	for _, key := range query.SortedKeys(filters) {
		clause, err := filterClause(filters[key])
		if err != nil {
			t.skip("filter", key, err)
			continue
		}
		q.Filters = append(q.Filters, engine.Clause{Key: key, Value: clause})
	}

	facets := spec.Facets()
	for _, key := range query.SortedKeys(facets) {
		f := facets[key]
		name, err := encodeName(f)
		if err != nil {
			t.skip("facet", key, err)
			continue
		}
		q.FacetQueries = append(q.FacetQueries, engine.Clause{Key: key, Value: name + ": " + clauseValue(f)})
	}

	stats := spec.Stats()
	for _, key := range query.SortedKeys(stats) {
		name, err := encodeName(stats[key])
		if err != nil {
			t.skip("stats", key, err)
			continue
		}
		q.StatsFields = append(q.StatsFields, engine.Clause{Key: key, Value: name})
	}

	for _, s := range spec.Sorts() {
		name, err := encodeName(s.Field)
		if err != nil {
			t.skip("sort", s.Field.Name(), err)
			continue
		}
		dir := query.Asc
		if s.Direction == query.Desc {
			dir = query.Desc
		}
		q.Sorts = append(q.Sorts, engine.Sort{Field: name, Direction: string(dir)})
	}

	return q
}

func (t *QueryTranslator) skip(section, key string, err error) {
	t.logger.Warn("query clause skipped",
		zap.String("section", section),
		zap.String("key", key),
		zap.Error(err),
	)
}

func encodeName(f field.Field) (string, error) {
	if f.IsZero() {
		return "", domain.ErrMalformedFilter
	}
	return codec.EncodeFieldName(f)
}

func filterClause(fl query.Filter) (string, error) {
	name, err := encodeName(fl.Field)
	if err != nil {
		return "", err
	}
	clause := name + ":" + clauseValue(fl.Field)
	if fl.Negative {
		return "-" + clause, nil
	}
	return clause, nil
}

// clauseValue renders the field value for a query clause. Timestamps on datetime fields
// are quoted, their colons being query syntax. Other strings are passed through so
// callers can use engine query syntax such as ranges; other values are encoded first.
func clauseValue(f field.Field) string {
	if f.FieldType() == field.Datetime {
		if ts, err := codec.FormatDatetime(f.Value()); err == nil {
			return strconv.Quote(ts)
		}
	}
	if s, ok := f.Value().(string); ok {
		return s
	}
	single := field.New(f.Name(), f.Value(), f.FieldType(), f.Indexable(), false, f.Args())
	if v, err := codec.EncodeFieldValue(single); err == nil && v != nil {
		return fmt.Sprint(v)
	}
	return fmt.Sprint(f.Value())
}

// FieldClause renders f as a "name:value" clause with the engine field name.
func FieldClause(f field.Field) (string, error) {
	return filterClause(query.Filter{Field: f})
}
