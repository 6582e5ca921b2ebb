package query

import (
	"sort"

	"github.com/kailas-cloud/mscatalog/internal/domain/field"
)

// MatchAll is the engine query text that matches every document.
const MatchAll = "*:*"

// DefaultPageSize is used when a spec is paged with a non-positive size.
const DefaultPageSize = 20

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Filter is a single filter entry. A filter without a field is malformed and is
// skipped at translation time.
type Filter struct {
	Field    field.Field
	Negative bool
}

// Sort orders results by a field.
type Sort struct {
	Field     field.Field
	Direction Direction
}

// Spec is an abstract query, built incrementally by calling code and translated once.
type Spec struct {
	text      string
	pageStart int
	pageSize  int
	fields    []field.Field
	filters   map[string]Filter
	facets    map[string]field.Field
	stats     map[string]field.Field
	sorts     []Sort
}

// NewSpec creates an empty spec: match-all text, first page of DefaultPageSize rows.
func NewSpec() *Spec {
	return &Spec{
		pageSize: DefaultPageSize,
		filters:  make(map[string]Filter),
		facets:   make(map[string]field.Field),
		stats:    make(map[string]field.Field),
	}
}

// SetText sets the query text. Empty text means match everything.
func (s *Spec) SetText(text string) *Spec {
	s.text = text
	return s
}

// SetPage sets the start offset and row count. Negative starts are clamped to zero,
// non-positive sizes fall back to DefaultPageSize.
func (s *Spec) SetPage(start, size int) *Spec {
	if start < 0 {
		start = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	s.pageStart = start
	s.pageSize = size
	return s
}

// AddField adds a projected field.
func (s *Spec) AddField(f field.Field) *Spec {
	s.fields = append(s.fields, f)
	return s
}

// AddFilter sets the filter under key. An existing filter with the same key is replaced.
func (s *Spec) AddFilter(key string, f Filter) *Spec {
	if s.filters == nil {
		s.filters = make(map[string]Filter)
	}
	s.filters[key] = f
	return s
}

// AddFacet sets the facet query under key.
func (s *Spec) AddFacet(key string, f field.Field) *Spec {
	if s.facets == nil {
		s.facets = make(map[string]field.Field)
	}
	s.facets[key] = f
	return s
}

// AddStat requests aggregate statistics for f under key.
func (s *Spec) AddStat(key string, f field.Field) *Spec {
	if s.stats == nil {
		s.stats = make(map[string]field.Field)
	}
	s.stats[key] = f
	return s
}

// AddSort appends a sort clause. Sorting again by the same field replaces its direction.
func (s *Spec) AddSort(f field.Field, dir Direction) *Spec {
	for i := range s.sorts {
		if s.sorts[i].Field.Name() == f.Name() && s.sorts[i].Field.FieldType() == f.FieldType() {
			s.sorts[i].Direction = dir
			return s
		}
	}
	s.sorts = append(s.sorts, Sort{Field: f, Direction: dir})
	return s
}

// Text returns the raw query text.
func (s *Spec) Text() string { return s.text }

// PageStart returns the start offset.
func (s *Spec) PageStart() int { return s.pageStart }

// PageSize returns the row count.
func (s *Spec) PageSize() int { return s.pageSize }

// Fields returns the projected fields.
func (s *Spec) Fields() []field.Field { return s.fields }

// Filters returns the filter entries by key.
func (s *Spec) Filters() map[string]Filter { return s.filters }

// Facets returns the facet fields by key.
func (s *Spec) Facets() map[string]field.Field { return s.facets }

// Stats returns the stats fields by key.
func (s *Spec) Stats() map[string]field.Field { return s.stats }

// Sorts returns the sort clauses in the order they were added.
func (s *Spec) Sorts() []Sort { return s.sorts }

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
