package catalog

import (
	"context"
	"strconv"
)

// Query is an incremental query builder bound to a Client. Filters, facets and stats are
// keyed; adding a second entry under the same key replaces the first.
type Query struct {
	client *Client
	spec   *QuerySpec
	seq    int
}

// NewQuery starts a match-all query for the first page of 20 rows.
func (c *Client) NewQuery() *Query {
	return &Query{client: c, spec: NewQuerySpec()}
}

// Text sets the engine query text. Empty text matches everything.
func (q *Query) Text(text string) *Query {
	q.spec.SetText(text)
	return q
}

// Page sets the start offset and row count.
func (q *Query) Page(start, rows int) *Query {
	q.spec.SetPage(start, rows)
	return q
}

// Select adds projected fields. The identifiers are always returned.
func (q *Query) Select(fields ...Field) *Query {
	for _, f := range fields {
		q.spec.AddField(f)
	}
	return q
}

// Filter keeps documents where f matches, keyed by the field name.
func (q *Query) Filter(f Field) *Query {
	q.spec.AddFilter(f.Name(), Filter{Field: f})
	return q
}

// Exclude drops documents where f matches, keyed by the field name.
func (q *Query) Exclude(f Field) *Query {
	q.spec.AddFilter(f.Name(), Filter{Field: f, Negative: true})
	return q
}

// FilterKey adds a filter under an explicit key, so one field can carry several filters.
func (q *Query) FilterKey(key string, f Field, negative bool) *Query {
	if key == "" {
		q.seq++
		key = f.Name() + "#" + strconv.Itoa(q.seq)
	}
	q.spec.AddFilter(key, Filter{Field: f, Negative: negative})
	return q
}

// Facet counts the documents matching f; the count is reported under key.
func (q *Query) Facet(key string, f Field) *Query {
	q.spec.AddFacet(key, f)
	return q
}

// Stat requests aggregate statistics for f, reported under key.
func (q *Query) Stat(key string, f Field) *Query {
	q.spec.AddStat(key, f)
	return q
}

// SortBy orders results by f. Sorting again by the same field replaces its direction.
func (q *Query) SortBy(f Field, dir Direction) *Query {
	q.spec.AddSort(f, dir)
	return q
}

// Spec returns the underlying spec.
func (q *Query) Spec() *QuerySpec {
	return q.spec
}

// Response translates and executes the query.
func (q *Query) Response(ctx context.Context) (*Response, error) {
	return q.client.Query(ctx, q.spec)
}
