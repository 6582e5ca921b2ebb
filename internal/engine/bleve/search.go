package bleve

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/mscatalog/internal/codec"
	"github.com/kailas-cloud/mscatalog/internal/engine"
)

const defaultRows = 10

// Execute implements engine.Transport. It evaluates the same parameters a select
// handler receives: q, fq, start, rows, fl, sort, facet.query and stats.field.
func (t *Transport) Execute(ctx context.Context, q *engine.Query) (*engine.RawResult, error) {
	started := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(ctx, engine.OpSelect); err != nil {
		return nil, err
	}

	params := q.Values()
	base, err := t.baseQuery(params)
	if err != nil {
		raw, terr := errorResult(engine.OpSelect, http.StatusBadRequest, err.Error())
		raw.Query = q
		return raw, terr
	}

	start := intParam(params, "start", 0)
	rows := intParam(params, "rows", defaultRows)
	req := bleve.NewSearchRequestOptions(base, rows, start, false)
	if s := params.Get("sort"); s != "" {
		req.SortBy(sortOrder(s))
	}
	res, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, &engine.TransportError{Op: engine.OpSelect, StatusCode: http.StatusInternalServerError, Err: err}
	}

	fields := splitFields(params.Get("fl"))
	docs := make([]engine.Doc, 0, len(res.Hits))
	for _, hit := range res.Hits {
		d, err := t.stored(hit.ID)
		if err != nil {
			return nil, &engine.TransportError{Op: engine.OpSelect, StatusCode: http.StatusInternalServerError, Err: err}
		}
		if d == nil {
			continue
		}
		d = append(engine.Doc(nil), d...)
		d.Set("score", hit.Score)
		docs = append(docs, d.Project(fields))
	}

	var facets map[string]int64
	if params.Get("facet") == "true" {
		facets, err = t.facetCounts(ctx, base, params["facet.query"])
		if err != nil {
			return nil, &engine.TransportError{Op: engine.OpSelect, StatusCode: http.StatusBadRequest, Err: err}
		}
	}

	var stats map[string]map[string]any
	if params.Get("stats") == "true" {
		stats, err = t.fieldStats(ctx, base, params["stats.field"])
		if err != nil {
			return nil, &engine.TransportError{Op: engine.OpSelect, StatusCode: http.StatusInternalServerError, Err: err}
		}
	}

	echo := make(map[string]any, len(params))
	for k, v := range params {
		if len(v) == 1 {
			echo[k] = v[0]
		} else {
			echo[k] = v
		}
	}
	return okResult(q, header(started, echo), func(p *engine.Payload) {
		p.Response = &engine.DocList{NumFound: int64(res.Total), Start: int64(start), Docs: docs}
		if facets != nil {
			p.FacetCounts = &engine.FacetCounts{FacetQueries: facets}
		}
		if stats != nil {
			p.Stats = &engine.StatsBlock{StatsFields: stats}
		}
	})
}

// baseQuery combines q with every fq into one conjunction.
func (t *Transport) baseQuery(params url.Values) (query.Query, error) {
	main, err := parseQuery(params.Get("q"))
	if err != nil {
		return nil, err
	}
	fqs := params["fq"]
	if len(fqs) == 0 {
		return main, nil
	}
	parts := []query.Query{main}
	for _, fq := range fqs {
		fq = strings.TrimSpace(fq)
		if neg, ok := strings.CutPrefix(fq, "-"); ok {
			inner, err := parseQuery(neg)
			if err != nil {
				return nil, err
			}
			exclude := bleve.NewBooleanQuery()
			exclude.AddMust(bleve.NewMatchAllQuery())
			exclude.AddMustNot(inner)
			parts = append(parts, exclude)
			continue
		}
		inner, err := parseQuery(fq)
		if err != nil {
			return nil, err
		}
		parts = append(parts, inner)
	}
	return bleve.NewConjunctionQuery(parts...), nil
}

// parseQuery maps match-all to a match-all query and everything else to query string
// syntax. A space after the field separator is dropped, as in "brand_s: Acme".
func parseQuery(s string) (query.Query, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*:*" || s == "*" {
		return bleve.NewMatchAllQuery(), nil
	}
	if name, value, ok := strings.Cut(s, ": "); ok && !strings.ContainsAny(name, " ") {
		s = name + ":" + strings.TrimSpace(value)
	}
	if dq, ok := datetimeTerm(s); ok {
		return dq, nil
	}
	qs := bleve.NewQueryStringQuery(s)
	if _, err := qs.Parse(); err != nil {
		return nil, err
	}
	return qs, nil
}

// datetimeTerm matches one timestamp, quoted or bare, on a datetime field. The dynamic
// mapping indexes those values as dates, so they need a date query instead of text.
func datetimeTerm(s string) (query.Query, bool) {
	name, value, ok := strings.Cut(s, ":")
	if !ok || strings.ContainsAny(name, " ") {
		return nil, false
	}
	if !strings.HasSuffix(name, "_dt") && !strings.HasSuffix(name, "_dts") {
		return nil, false
	}
	ts, err := time.Parse(codec.DatetimeLayout, strings.Trim(value, `"`))
	if err != nil {
		return nil, false
	}
	inclusive := true
	dq := bleve.NewDateRangeInclusiveQuery(ts, ts, &inclusive, &inclusive)
	dq.SetField(name)
	return dq, true
}

func (t *Transport) facetCounts(ctx context.Context, base query.Query, clauses []string) (map[string]int64, error) {
	out := make(map[string]int64, len(clauses))
	for _, c := range clauses {
		key, value := engine.SplitKeyed(c)
		if key == "" {
			key = value
		}
		fq, err := parseQuery(value)
		if err != nil {
			return nil, err
		}
		req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(base, fq), 0, 0, false)
		res, err := t.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, err
		}
		out[key] = int64(res.Total)
	}
	return out, nil
}

// fieldStats aggregates the stored values of each stats field over every match.
func (t *Transport) fieldStats(ctx context.Context, base query.Query, clauses []string) (map[string]map[string]any, error) {
	total, err := t.index.DocCount()
	if err != nil {
		return nil, err
	}
	req := bleve.NewSearchRequestOptions(base, int(total), 0, false)
	res, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}
	docs := make([]engine.Doc, 0, len(res.Hits))
	for _, hit := range res.Hits {
		d, err := t.stored(hit.ID)
		if err != nil {
			return nil, err
		}
		if d != nil {
			docs = append(docs, d)
		}
	}

	out := make(map[string]map[string]any, len(clauses))
	for _, c := range clauses {
		key, name := engine.SplitKeyed(c)
		if key == "" {
			key = name
		}
		var acc accumulator
		for _, d := range docs {
			v, ok := d.Get(name)
			if !ok || v == nil {
				acc.missing++
				continue
			}
			for _, item := range flatten(v) {
				acc.add(item)
			}
		}
		out[key] = acc.block()
	}
	return out, nil
}

type accumulator struct {
	count, missing   int64
	sum, sumSq       float64
	minNum, maxNum   float64
	minText, maxText string
	numeric, textual bool
}

func (a *accumulator) add(v any) {
	a.count++
	if f, ok := toFloat(v); ok {
		if !a.numeric || f < a.minNum {
			a.minNum = f
		}
		if !a.numeric || f > a.maxNum {
			a.maxNum = f
		}
		a.numeric = true
		a.sum += f
		a.sumSq += f * f
		return
	}
	s, _ := v.(string)
	if !a.textual || s < a.minText {
		a.minText = s
	}
	if !a.textual || s > a.maxText {
		a.maxText = s
	}
	a.textual = true
}

func (a *accumulator) block() map[string]any {
	b := map[string]any{"count": a.count, "missing": a.missing}
	switch {
	case a.numeric:
		mean := a.sum / float64(a.count)
		variance := 0.0
		if a.count > 1 {
			variance = (a.sumSq - a.sum*a.sum/float64(a.count)) / float64(a.count-1)
		}
		b["min"], b["max"] = a.minNum, a.maxNum
		b["sum"], b["sumOfSquares"] = a.sum, a.sumSq
		b["mean"], b["stddev"] = mean, math.Sqrt(math.Max(variance, 0))
	case a.textual:
		b["min"], b["max"] = a.minText, a.maxText
	default:
		b["min"], b["max"] = nil, nil
	}
	return b
}

func flatten(v any) []any {
	if items, ok := v.([]any); ok {
		return items
	}
	return []any{v}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// sortOrder converts "a asc,b desc" into bleve sort keys.
func sortOrder(s string) []string {
	var order []string
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		key := fields[0]
		if key == "score" {
			key = "_score"
		}
		if len(fields) > 1 && strings.EqualFold(fields[1], "desc") {
			key = "-" + key
		}
		order = append(order, key)
	}
	return order
}

func splitFields(fl string) []string {
	if fl == "" {
		return nil
	}
	parts := strings.Split(fl, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intParam(v url.Values, name string, def int) int {
	n, err := strconv.Atoi(v.Get(name))
	if err != nil || n < 0 {
		return def
	}
	return n
}
