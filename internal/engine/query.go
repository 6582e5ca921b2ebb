package engine

import (
	"net/url"
	"strconv"
	"strings"
)

// Clause is a named engine clause: a filter query, a facet query or a stats field.
type Clause struct {
	Key   string
	Value string
}

// Sort is one engine sort criterion.
type Sort struct {
	Field     string
	Direction string
}

// Query is the engine-native select request.
type Query struct {
	Text         string
	Start        int
	Rows         int
	Fields       []string
	Filters      []Clause
	FacetQueries []Clause
	StatsFields  []Clause
	Sorts        []Sort

	// Params are passed to the engine untouched, after the structured parts.
	Params url.Values
}

// Values encodes the query as select handler parameters.
func (q *Query) Values() url.Values {
	v := url.Values{}
	if q.Text != "" {
		v.Set("q", q.Text)
	}
	if q.Start > 0 || q.Rows > 0 {
		v.Set("start", strconv.Itoa(q.Start))
	}
	if q.Rows > 0 {
		v.Set("rows", strconv.Itoa(q.Rows))
	}
	if len(q.Fields) > 0 {
		v.Set("fl", strings.Join(q.Fields, ","))
	}
	for _, c := range q.Filters {
		v.Add("fq", c.Value)
	}
	if len(q.FacetQueries) > 0 {
		v.Set("facet", "true")
		for _, c := range q.FacetQueries {
			v.Add("facet.query", keyed(c))
		}
	}
	if len(q.StatsFields) > 0 {
		v.Set("stats", "true")
		for _, c := range q.StatsFields {
			v.Add("stats.field", keyed(c))
		}
	}
	if len(q.Sorts) > 0 {
		parts := make([]string, len(q.Sorts))
		for i, s := range q.Sorts {
			parts[i] = s.Field + " " + s.Direction
		}
		v.Set("sort", strings.Join(parts, ","))
	}
	for k, vals := range q.Params {
		for _, val := range vals {
			v.Add(k, val)
		}
	}
	v.Set("wt", "json")
	return v
}

// keyed prefixes the clause with a key local param so the engine reports its result
// under the clause key.
func keyed(c Clause) string {
	if c.Key == "" {
		return c.Value
	}
	return "{!key=" + c.Key + "}" + c.Value
}

// SplitKeyed is the inverse of the key local param prefix.
func SplitKeyed(s string) (key, value string) {
	if !strings.HasPrefix(s, "{!key=") {
		return "", s
	}
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return "", s
	}
	return s[len("{!key="):end], s[end+1:]
}
