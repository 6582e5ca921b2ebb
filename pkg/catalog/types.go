package catalog

import (
	"io"
	"iter"

	"github.com/kailas-cloud/mscatalog/internal/domain/checkpoint"
	"github.com/kailas-cloud/mscatalog/internal/domain/document"
	"github.com/kailas-cloud/mscatalog/internal/domain/field"
	"github.com/kailas-cloud/mscatalog/internal/domain/query"
	"github.com/kailas-cloud/mscatalog/internal/domain/response"
	"github.com/kailas-cloud/mscatalog/internal/engine/solr"
	"github.com/kailas-cloud/mscatalog/internal/pusher"
	"github.com/kailas-cloud/mscatalog/internal/source"
)

// Data model.
type (
	Field      = field.Field
	FieldType  = field.Type
	Document   = document.Document
	QuerySpec  = query.Spec
	Filter     = query.Filter
	Direction  = query.Direction
	Response   = response.Response
	Stats      = response.Stats
	Checkpoint = checkpoint.Checkpoint
)

// Push types.
type (
	PushResult   = pusher.Result
	PushError    = pusher.Error
	PushOption   = pusher.PushOption
	PushObserver = pusher.Observer
	BatchEvent   = pusher.BatchEvent
	SkipEvent    = pusher.SkipEvent
	Pusher       = pusher.Pusher
)

// BreakerConfig configures the circuit breaker around the Solr transport.
type BreakerConfig = solr.BreakerConfig

// Field types.
const (
	String   = field.String
	Int      = field.Int
	Long     = field.Long
	Float    = field.Float
	Double   = field.Double
	Boolean  = field.Boolean
	Text     = field.Text
	Datetime = field.Datetime
	Location = field.Location
)

// Sort directions.
const (
	Asc  = query.Asc
	Desc = query.Desc
)

// Skip reasons reported in PushResult.Skipped.
const (
	SkipEmptyUniqueID = pusher.SkipEmptyUniqueID
	SkipZeroObjectID  = pusher.SkipZeroObjectID
	SkipInvalidField  = pusher.SkipInvalidField
)

// NewField creates an indexable single-valued field.
func NewField(name string, value any, ft FieldType) Field {
	return field.New(name, value, ft, true, false, nil)
}

// NewMultiField creates an indexable multi-valued field.
func NewMultiField(name string, value any, ft FieldType) Field {
	return field.New(name, value, ft, true, true, nil)
}

// NewDocument creates a document. Fields keep the given order.
func NewDocument(uniqueID string, objectID int64, objectType string, fields ...Field) Document {
	return document.New(uniqueID, objectID, objectType, fields...)
}

// NewQuerySpec creates an empty query spec: match-all, first page of 20 rows.
func NewQuerySpec() *QuerySpec {
	return query.NewSpec()
}

// WithResumeFrom skips the first n source documents of a push.
func WithResumeFrom(n int) PushOption {
	return pusher.WithResumeFrom(n)
}

// WithCheckpoint records push progress under name after every commit. With resume set,
// the push continues from the stored position. Requires WithRedis.
func WithCheckpoint(name string, resume bool) PushOption {
	return pusher.WithCheckpoint(name, resume)
}

// JSONLines reads a stream of JSON documents for Push. The sequence is single-pass and
// stops at the first malformed document.
func JSONLines(r io.Reader) iter.Seq2[Document, error] {
	return source.JSONLines(r)
}
