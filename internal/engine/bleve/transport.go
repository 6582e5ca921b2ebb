// Package bleve is an embedded engine transport backed by a bleve index. It speaks the
// same select parameters and update commands as the Solr transport, so local runs and
// tests need no external engine.
package bleve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mscatalog/internal/codec"
	"github.com/kailas-cloud/mscatalog/internal/engine"
)

const docKeyPrefix = "doc:"

// Transport implements engine.Transport on a bleve index. Updates are queued until a
// commit operation and applied as one batch, so uncommitted documents stay invisible.
type Transport struct {
	mu      sync.Mutex
	index   bleve.Index
	pending []engine.Op
	logger  *zap.Logger
	closed  bool
}

// New opens the index at path, creating it when missing. An empty path creates an
// in-memory index.
func New(path string, logger *zap.Logger) (*Transport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := bleve.NewIndexMapping()

	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
		idx, err = bleve.Open(path)
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			idx, err = bleve.New(path, m)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open bleve index: %w", err)
	}
	return &Transport{index: idx, logger: logger}, nil
}

// Close closes the index.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.index.Close(); err != nil {
		return fmt.Errorf("close bleve index: %w", err)
	}
	return nil
}

// Ping implements engine.Transport.
func (t *Transport) Ping(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(ctx, engine.OpPing); err != nil {
		return err
	}
	if _, err := t.index.DocCount(); err != nil {
		return &engine.TransportError{Op: engine.OpPing, Err: err}
	}
	return nil
}

// Update implements engine.Transport.
func (t *Transport) Update(ctx context.Context, u *engine.Update) (*engine.RawResult, error) {
	started := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(ctx, engine.OpUpdate); err != nil {
		return nil, err
	}

	for _, op := range u.Ops() {
		if op.Kind != engine.OpAdd {
			continue
		}
		if _, ok := uniqueKey(op.Doc); !ok {
			return errorResult(engine.OpUpdate, http.StatusBadRequest, "Document is missing mandatory uniqueKey field: "+codec.KeyUniqueID)
		}
	}

	for _, op := range u.Ops() {
		if op.Kind != engine.OpCommit {
			t.pending = append(t.pending, op)
			continue
		}
		if err := t.commit(ctx); err != nil {
			return nil, &engine.TransportError{Op: engine.OpUpdate, StatusCode: http.StatusInternalServerError, Err: err}
		}
	}
	return okResult(nil, header(started, nil), nil)
}

// commit applies the pending operations in order. A delete by query sees every
// operation queued before it.
func (t *Transport) commit(ctx context.Context) error {
	ops := t.pending
	t.pending = nil

	batch := t.index.NewBatch()
	for _, op := range ops {
		switch op.Kind {
		case engine.OpAdd:
			id, _ := uniqueKey(op.Doc)
			body, err := json.Marshal(op.Doc)
			if err != nil {
				return fmt.Errorf("encode document %s: %w", id, err)
			}
			if err := batch.Index(id, op.Doc.Map()); err != nil {
				return fmt.Errorf("index document %s: %w", id, err)
			}
			batch.SetInternal([]byte(docKeyPrefix+id), body)
		case engine.OpDeleteByID:
			for _, id := range op.IDs {
				batch.Delete(id)
				batch.DeleteInternal([]byte(docKeyPrefix + id))
			}
		case engine.OpDeleteByQuery:
			if err := t.index.Batch(batch); err != nil {
				return fmt.Errorf("apply batch: %w", err)
			}
			batch = t.index.NewBatch()
			ids, err := t.matchingIDs(ctx, op.Query)
			if err != nil {
				return err
			}
			for _, id := range ids {
				batch.Delete(id)
				batch.DeleteInternal([]byte(docKeyPrefix + id))
			}
		}
	}
	if err := t.index.Batch(batch); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	t.logger.Debug("bleve commit", zap.Int("ops", len(ops)))
	return nil
}

func (t *Transport) matchingIDs(ctx context.Context, q string) ([]string, error) {
	bq, err := parseQuery(q)
	if err != nil {
		return nil, err
	}
	total, err := t.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	req := bleve.NewSearchRequestOptions(bq, int(total), 0, false)
	res, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("delete query %q: %w", q, err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func (t *Transport) stored(id string) (engine.Doc, error) {
	body, err := t.index.GetInternal([]byte(docKeyPrefix + id))
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	if body == nil {
		return nil, nil
	}
	var d engine.Doc
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return d, nil
}

func (t *Transport) check(ctx context.Context, op string) error {
	if t.closed {
		return &engine.TransportError{Op: op, Message: "index is closed"}
	}
	if err := ctx.Err(); err != nil {
		return &engine.TransportError{Op: op, Err: err}
	}
	return nil
}

func uniqueKey(d engine.Doc) (string, bool) {
	v, ok := d.Get(codec.KeyUniqueID)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func header(started time.Time, params map[string]any) engine.ResponseHeader {
	return engine.ResponseHeader{QTime: int(time.Since(started).Milliseconds()), Params: params}
}

// okResult renders the payload the way the engine would and parses it back, so callers
// see exactly what a remote engine returns.
func okResult(q *engine.Query, h engine.ResponseHeader, fill func(*engine.Payload)) (*engine.RawResult, error) {
	p := &engine.Payload{ResponseHeader: h}
	if fill != nil {
		fill(p)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, &engine.TransportError{Op: engine.OpSelect, Err: fmt.Errorf("encode response: %w", err)}
	}
	return engine.NewRawResult(engine.Status{Code: http.StatusOK, Message: http.StatusText(http.StatusOK)}, q, body)
}

func errorResult(op string, code int, msg string) (*engine.RawResult, error) {
	p := &engine.Payload{
		ResponseHeader: engine.ResponseHeader{Status: code},
		Error:          &engine.ErrorBlock{Msg: msg, Code: code},
	}
	body, _ := json.Marshal(p)
	raw := &engine.RawResult{Status: engine.Status{Code: code, Message: http.StatusText(code)}, Body: body, Payload: p}
	return raw, &engine.TransportError{Op: op, StatusCode: code, Message: msg}
}
