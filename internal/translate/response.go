package translate

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mscatalog/internal/codec"
	"github.com/kailas-cloud/mscatalog/internal/domain/document"
	"github.com/kailas-cloud/mscatalog/internal/domain/response"
	"github.com/kailas-cloud/mscatalog/internal/engine"
)

// ResponseTranslator builds catalog responses from raw engine results. Missing optional
// sections default to empty values; it never fails.
type ResponseTranslator struct {
	logger *zap.Logger
}

// NewResponseTranslator creates a ResponseTranslator. A nil logger disables logging.
func NewResponseTranslator(logger *zap.Logger) *ResponseTranslator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseTranslator{logger: logger}
}

// FromQuery performs the full reconstruction: documents, total count, facets, stats and page.
func (t *ResponseTranslator) FromQuery(raw *engine.RawResult) *response.Response {
	resp := t.base(raw)
	if raw == nil || raw.Payload == nil {
		return resp
	}
	p := raw.Payload

	var start int64
	if p.Response != nil {
		resp.NumFound = p.Response.NumFound
		start = p.Response.Start
		resp.Documents = make([]document.Document, 0, len(p.Response.Docs))
		for _, d := range p.Response.Docs {
			resp.Documents = append(resp.Documents, codec.DecodeDocument(d))
		}
	}
	resp.CurrentPage = currentPage(start, rows(raw))

	if p.FacetCounts != nil && p.FacetCounts.FacetQueries != nil {
		resp.Facets = make(map[string]int64, len(p.FacetCounts.FacetQueries))
		for k, v := range p.FacetCounts.FacetQueries {
			resp.Facets[k] = v
		}
	}

	if p.Stats != nil && p.Stats.StatsFields != nil {
		resp.Stats = make(map[string]response.Stats, len(p.Stats.StatsFields))
		for k, block := range p.Stats.StatsFields {
			resp.Stats[k] = statsFrom(block)
		}
	}

	t.logger.Debug("query response translated",
		zap.Int64("num_found", resp.NumFound),
		zap.Int("documents", len(resp.Documents)),
		zap.Int("status", resp.StatusCode),
	)
	return resp
}

// FromGet is the raw passthrough: documents keep their engine names and NumFound is the
// number of documents returned.
func (t *ResponseTranslator) FromGet(raw *engine.RawResult) *response.Response {
	resp := t.base(raw)
	if raw == nil || raw.Payload == nil || raw.Payload.Response == nil {
		return resp
	}
	docs := raw.Payload.Response.Docs
	resp.Documents = make([]document.Document, 0, len(docs))
	for _, d := range docs {
		resp.Documents = append(resp.Documents, codec.DecodeRawDocument(d))
	}
	resp.NumFound = int64(len(docs))
	resp.CurrentPage = 1
	return resp
}

// FromUpdate keeps only the status of an update request.
func (t *ResponseTranslator) FromUpdate(raw *engine.RawResult) *response.Response {
	return t.base(raw)
}

func (t *ResponseTranslator) base(raw *engine.RawResult) *response.Response {
	resp := &response.Response{CurrentPage: 1}
	if raw == nil {
		return resp
	}
	resp.StatusCode = raw.Status.Code
	resp.StatusMessage = raw.Status.Message
	if resp.StatusMessage == "" && resp.StatusCode != 0 {
		resp.StatusMessage = http.StatusText(resp.StatusCode)
	}
	if raw.Payload != nil && raw.Payload.Error != nil && raw.Payload.Error.Msg != "" {
		resp.StatusMessage = raw.Payload.Error.Msg
	}
	return resp
}

func rows(raw *engine.RawResult) int64 {
	if raw.Query != nil && raw.Query.Rows > 0 {
		return int64(raw.Query.Rows)
	}
	if raw.Payload != nil {
		if v, ok := raw.Payload.ResponseHeader.Params["rows"]; ok {
			if n, ok := number(v); ok && n > 0 {
				return int64(n)
			}
		}
	}
	return 0
}

// currentPage is the 1-based page containing start.
func currentPage(start, rows int64) int {
	if rows <= 0 || start <= 0 {
		return 1
	}
	return int(start/rows) + 1
}

func statsFrom(block map[string]any) response.Stats {
	var s response.Stats
	s.Min = scalar(block["min"])
	s.Max = scalar(block["max"])
	if n, ok := number(block["count"]); ok {
		s.Count = int64(n)
	}
	if n, ok := number(block["missing"]); ok {
		s.Missing = int64(n)
	}
	s.Sum, _ = number(block["sum"])
	s.SumOfSquares, _ = number(block["sumOfSquares"])
	s.Mean, _ = number(block["mean"])
	s.Stddev, _ = number(block["stddev"])
	return s
}

// scalar turns JSON numbers into float64 and leaves everything else alone.
func scalar(v any) any {
	if n, ok := number(v); ok {
		return n
	}
	return v
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
