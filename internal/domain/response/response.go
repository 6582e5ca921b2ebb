package response

import "github.com/kailas-cloud/mscatalog/internal/domain/document"

// Stats is the aggregate block the engine returns for one stats field.
// Min and Max keep the engine's type (numbers for numeric fields, strings for dates).
type Stats struct {
	Min          any
	Max          any
	Count        int64
	Missing      int64
	Sum          float64
	SumOfSquares float64
	Mean         float64
	Stddev       float64
}

// Response is the outcome of one query or update call. It is created per call and
// never shared between calls.
type Response struct {
	Documents     []document.Document
	NumFound      int64
	Facets        map[string]int64
	Stats         map[string]Stats
	CurrentPage   int
	StatusCode    int
	StatusMessage string
}

// OK reports whether the engine answered with a success status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
