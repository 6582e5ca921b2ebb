package engine

import (
	"encoding/json"
	"fmt"
)

// Status is the transport-level outcome of a request.
type Status struct {
	Code    int
	Message string
}

// RawResult is what the engine returned for one request.
type RawResult struct {
	Status Status
	// Query is the select request that produced the result; nil for updates.
	Query *Query
	// Body is the undecoded response body.
	Body []byte
	// Payload is the decoded body, nil when the body was empty.
	Payload *Payload
}

// Payload is the JSON response body of the engine.
type Payload struct {
	ResponseHeader ResponseHeader `json:"responseHeader"`
	Response       *DocList       `json:"response,omitempty"`
	FacetCounts    *FacetCounts   `json:"facet_counts,omitempty"`
	Stats          *StatsBlock    `json:"stats,omitempty"`
	Error          *ErrorBlock    `json:"error,omitempty"`
}

// ResponseHeader echoes request metadata.
type ResponseHeader struct {
	Status int            `json:"status"`
	QTime  int            `json:"QTime"`
	Params map[string]any `json:"params,omitempty"`
}

// DocList is the matched documents page.
type DocList struct {
	NumFound int64 `json:"numFound"`
	Start    int64 `json:"start"`
	Docs     []Doc `json:"docs"`
}

// FacetCounts holds facet query counts keyed by facet key.
type FacetCounts struct {
	FacetQueries map[string]int64 `json:"facet_queries"`
}

// StatsBlock holds per-field statistics. Field blocks stay loosely typed because their
// value types depend on the field type (dates report min/max/mean as strings).
type StatsBlock struct {
	StatsFields map[string]map[string]any `json:"stats_fields"`
}

// ErrorBlock is the engine error body.
type ErrorBlock struct {
	Msg  string `json:"msg"`
	Code int    `json:"code"`
}

// ParsePayload decodes an engine response body. An empty body yields a nil payload.
func ParsePayload(body []byte) (*Payload, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode engine response: %w", err)
	}
	return &p, nil
}

// NewRawResult builds a result from a status and body, decoding the body.
func NewRawResult(status Status, q *Query, body []byte) (*RawResult, error) {
	p, err := ParsePayload(body)
	if err != nil {
		return nil, err
	}
	return &RawResult{Status: status, Query: q, Body: body, Payload: p}, nil
}
