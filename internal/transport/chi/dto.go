package chi

import (
	"fmt"

	"github.com/kailas-cloud/mscatalog/internal/source"
	"github.com/kailas-cloud/mscatalog/pkg/catalog"
)

// ErrorCode is the machine-readable error kind in ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeNotFound          ErrorCode = "not_found"
	ErrorCodeConflict          ErrorCode = "conflict"
	ErrorCodeMethodNotAllowed  ErrorCode = "method_not_allowed"
	ErrorCodeEngineRejected    ErrorCode = "engine_rejected"
	ErrorCodeEngineError       ErrorCode = "engine_error"
	ErrorCodeEngineUnavailable ErrorCode = "engine_unavailable"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// FilterRequest is one keyed filter of a query.
type FilterRequest struct {
	Field    *source.FieldJSON `json:"field"`
	Negative bool              `json:"negative,omitempty"`
}

// SortRequest orders results by a field.
type SortRequest struct {
	Field     source.FieldJSON `json:"field"`
	Direction string           `json:"direction,omitempty"`
}

// QueryRequest is the JSON form of a query spec.
type QueryRequest struct {
	Q       string                      `json:"q,omitempty"`
	Start   int                         `json:"start,omitempty"`
	Rows    int                         `json:"rows,omitempty"`
	Fields  []source.FieldJSON          `json:"fields,omitempty"`
	Filters map[string]FilterRequest    `json:"filters,omitempty"`
	Facets  map[string]source.FieldJSON `json:"facets,omitempty"`
	Stats   map[string]source.FieldJSON `json:"stats,omitempty"`
	Sort    []SortRequest               `json:"sort,omitempty"`
}

// StatsResponse is the aggregate block of one stats key.
type StatsResponse struct {
	Min          any     `json:"min"`
	Max          any     `json:"max"`
	Count        int64   `json:"count"`
	Missing      int64   `json:"missing"`
	Sum          float64 `json:"sum"`
	SumOfSquares float64 `json:"sum_of_squares"`
	Mean         float64 `json:"mean"`
	Stddev       float64 `json:"stddev"`
}

// QueryResponse is the body of a successful query or select.
type QueryResponse struct {
	Documents     []source.DocumentJSON    `json:"documents"`
	NumFound      int64                    `json:"num_found"`
	Facets        map[string]int64         `json:"facets,omitempty"`
	Stats         map[string]StatsResponse `json:"stats,omitempty"`
	CurrentPage   int                      `json:"current_page"`
	StatusCode    int                      `json:"status_code"`
	StatusMessage string                   `json:"status_message,omitempty"`
}

// UpdateResponse is the body of a successful update.
type UpdateResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message,omitempty"`
}

// AddDocumentsRequest is the body of POST /documents.
type AddDocumentsRequest struct {
	Documents []source.DocumentJSON `json:"documents"`
}

// DeleteDocumentsRequest is the body of POST /documents/delete.
type DeleteDocumentsRequest struct {
	IDs []string `json:"ids"`
}

// ClearRequest is the optional body of POST /clear.
type ClearRequest struct {
	Query string `json:"query,omitempty"`
}

// PushResponse summarizes a push. Error is set when the push stopped early.
type PushResponse struct {
	Batches       int            `json:"batches"`
	Committed     int            `json:"committed"`
	Consumed      int            `json:"consumed"`
	Skipped       map[string]int `json:"skipped"`
	LastUniqueID  string         `json:"last_unique_id,omitempty"`
	DurationMS    int64          `json:"duration_ms"`
	StatusCode    int            `json:"status_code,omitempty"`
	StatusMessage string         `json:"status_message,omitempty"`
	Error         *ErrorResponse `json:"error,omitempty"`
}

func specFromRequest(req *QueryRequest) (*catalog.QuerySpec, error) {
	spec := catalog.NewQuerySpec().SetText(req.Q)
	if req.Start != 0 || req.Rows != 0 {
		spec.SetPage(req.Start, req.Rows)
	}
	for _, f := range req.Fields {
		spec.AddField(f.Field())
	}
	for key, f := range req.Filters {
		var fld catalog.Field
		if f.Field != nil {
			fld = f.Field.Field()
		}
		spec.AddFilter(key, catalog.Filter{Field: fld, Negative: f.Negative})
	}
	for key, f := range req.Facets {
		spec.AddFacet(key, f.Field())
	}
	for key, f := range req.Stats {
		spec.AddStat(key, f.Field())
	}
	for _, s := range req.Sort {
		dir, err := parseDirection(s.Direction)
		if err != nil {
			return nil, err
		}
		spec.AddSort(s.Field.Field(), dir)
	}
	return spec, nil
}

func parseDirection(s string) (catalog.Direction, error) {
	switch catalog.Direction(s) {
	case "", catalog.Asc:
		return catalog.Asc, nil
	case catalog.Desc:
		return catalog.Desc, nil
	default:
		return "", fmt.Errorf("sort direction must be asc or desc, got %q", s)
	}
}

func queryResponseFrom(r *catalog.Response) QueryResponse {
	out := QueryResponse{
		Documents:     make([]source.DocumentJSON, 0, len(r.Documents)),
		NumFound:      r.NumFound,
		Facets:        r.Facets,
		CurrentPage:   r.CurrentPage,
		StatusCode:    r.StatusCode,
		StatusMessage: r.StatusMessage,
	}
	for i := range r.Documents {
		out.Documents = append(out.Documents, source.FromDocument(&r.Documents[i]))
	}
	if len(r.Stats) > 0 {
		out.Stats = make(map[string]StatsResponse, len(r.Stats))
		for k, s := range r.Stats {
			out.Stats[k] = StatsResponse(s)
		}
	}
	return out
}

func updateResponseFrom(r *catalog.Response) UpdateResponse {
	return UpdateResponse{StatusCode: r.StatusCode, StatusMessage: r.StatusMessage}
}

func pushResponseFrom(res *catalog.PushResult) PushResponse {
	out := PushResponse{
		Batches:      res.Batches,
		Committed:    res.Committed,
		Consumed:     res.Consumed,
		Skipped:      res.Skipped,
		LastUniqueID: res.LastUniqueID,
		DurationMS:   res.Duration.Milliseconds(),
	}
	if res.Response != nil {
		out.StatusCode = res.Response.StatusCode
		out.StatusMessage = res.Response.StatusMessage
	}
	return out
}
