// Package pusher streams catalog documents into the engine in bounded batches, one
// commit per batch.
package pusher

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mscatalog/internal/codec"
	"github.com/kailas-cloud/mscatalog/internal/domain"
	"github.com/kailas-cloud/mscatalog/internal/domain/checkpoint"
	"github.com/kailas-cloud/mscatalog/internal/domain/document"
	"github.com/kailas-cloud/mscatalog/internal/domain/query"
	"github.com/kailas-cloud/mscatalog/internal/domain/response"
	"github.com/kailas-cloud/mscatalog/internal/engine"
	"github.com/kailas-cloud/mscatalog/internal/translate"
)

// Skip reasons reported in Result.Skipped.
const (
	SkipEmptyUniqueID = "empty_unique_id"
	SkipZeroObjectID  = "zero_object_id"
	SkipInvalidField  = "invalid_field"
)

// CheckpointStore persists push progress by name.
type CheckpointStore interface {
	Load(ctx context.Context, name string) (checkpoint.Checkpoint, error)
	Save(ctx context.Context, cp checkpoint.Checkpoint) error
}

// Result summarizes a push. On failure it describes everything committed before the
// failing batch.
type Result struct {
	Batches   int
	Committed int
	// Consumed is the source position just after the last committed batch; pass it to
	// WithResumeFrom to continue a failed push.
	Consumed     int
	Skipped      map[string]int
	LastUniqueID string
	Duration     time.Duration
	// Response carries the status of the last commit.
	Response *response.Response
}

// SkippedTotal returns the number of skipped documents over all reasons.
func (r *Result) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// Error is returned when a push stops early. Committed batches stay in the engine.
type Error struct {
	Batch     int
	Committed int
	Consumed  int
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("push stopped at batch %d (%d documents committed, resume from %d): %v",
		e.Batch, e.Committed, e.Consumed, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Pusher is the indexing pipeline. One Pusher runs one push at a time.
type Pusher struct {
	transport   engine.Transport
	cfg         Config
	logger      *zap.Logger
	responses   *translate.ResponseTranslator
	observers   []Observer
	checkpoints CheckpointStore
	running     atomic.Bool
}

// Option configures a Pusher.
type Option func(*Pusher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pusher) { p.logger = l }
}

// WithObserver adds a progress observer.
func WithObserver(o Observer) Option {
	return func(p *Pusher) { p.observers = append(p.observers, o) }
}

// WithCheckpointStore enables named checkpoints.
func WithCheckpointStore(s CheckpointStore) Option {
	return func(p *Pusher) { p.checkpoints = s }
}

// New creates a Pusher. Zero config values fall back to the defaults.
func New(transport engine.Transport, cfg Config, opts ...Option) (*Pusher, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pusher{transport: transport, cfg: cfg, logger: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.responses = translate.NewResponseTranslator(p.logger)
	return p, nil
}

// Config returns the effective configuration.
func (p *Pusher) Config() Config { return p.cfg }

type pushOptions struct {
	resumeFrom int
	checkpoint string
	resume     bool
}

// PushOption configures a single push.
type PushOption func(*pushOptions)

// WithResumeFrom skips the first n source documents.
func WithResumeFrom(n int) PushOption {
	return func(o *pushOptions) {
		if n > 0 {
			o.resumeFrom = n
		}
	}
}

// WithCheckpoint records progress under name after every commit. With resume set, the
// push starts from the stored position.
func WithCheckpoint(name string, resume bool) PushOption {
	return func(o *pushOptions) {
		o.checkpoint = name
		o.resume = resume
	}
}

type run struct {
	opts      pushOptions
	res       *Result
	batch     *engine.Update
	position  int
	lastID    string
	lastStart time.Time
}

// Push consumes src once, in order, committing every PageSize accepted documents and a
// final commit for the remainder. Documents with an empty unique id, a zero object id
// or a field that cannot be encoded are skipped and counted by reason.
//
// A source error, context cancellation or failed commit stops the push: the pending
// batch is dropped and the returned *Error tells how far the committed data reaches.
func (p *Pusher) Push(ctx context.Context, src iter.Seq2[document.Document, error], opts ...PushOption) (*Result, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, domain.ErrPushInProgress
	}
	defer p.running.Store(false)

	r := &run{
		res:   &Result{Skipped: make(map[string]int)},
		batch: engine.NewUpdate(),
	}
	for _, o := range opts {
		o(&r.opts)
	}
	if err := p.loadCheckpoint(ctx, r); err != nil {
		return r.res, err
	}
	r.res.Consumed = r.opts.resumeFrom

	started := time.Now()
	defer func() { r.res.Duration = time.Since(started) }()

	for doc, err := range src {
		if err != nil {
			return r.res, p.stop(r, fmt.Errorf("read source: %w", err))
		}
		r.position++
		if r.position <= r.opts.resumeFrom {
			continue
		}
		if err := ctx.Err(); err != nil {
			return r.res, p.stop(r, err)
		}

		p.accept(r, &doc)

		if r.batch.DocumentCount() >= p.cfg.PageSize {
			if err := p.commit(ctx, r); err != nil {
				return r.res, err
			}
		}
	}

	if r.batch.DocumentCount() > 0 {
		if err := p.commit(ctx, r); err != nil {
			return r.res, err
		}
	}
	r.res.Consumed = r.position
	p.saveCheckpoint(ctx, r, true)

	p.logger.Info("push finished",
		zap.Int("batches", r.res.Batches),
		zap.Int("committed", r.res.Committed),
		zap.Int("skipped", r.res.SkippedTotal()),
		zap.Duration("duration", time.Since(started)),
	)
	return r.res, nil
}

func (p *Pusher) accept(r *run, doc *document.Document) {
	if doc.UniqueID() == "" {
		p.skip(r, doc, SkipEmptyUniqueID, nil)
		return
	}
	if doc.ObjectID() == 0 {
		p.skip(r, doc, SkipZeroObjectID, nil)
		return
	}
	rec, err := codec.EncodeDocument(doc)
	if err != nil {
		p.skip(r, doc, SkipInvalidField, err)
		return
	}
	r.batch.AddDocument(rec)
	r.lastID = doc.UniqueID()
}

func (p *Pusher) skip(r *run, doc *document.Document, reason string, err error) {
	r.res.Skipped[reason]++
	ev := SkipEvent{Position: r.position, UniqueID: doc.UniqueID(), Reason: reason, Err: err}
	for _, o := range p.observers {
		o.OnSkip(ev)
	}
}

func (p *Pusher) commit(ctx context.Context, r *run) error {
	size := r.batch.DocumentCount()
	index := r.res.Batches + 1
	r.batch.AddCommit()

	cctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	began := time.Now()
	raw, err := p.transport.Update(cctx, r.batch)
	if err == nil && raw != nil && (raw.Status.Code < 200 || raw.Status.Code >= 300) {
		err = &engine.TransportError{Op: engine.OpUpdate, StatusCode: raw.Status.Code, Message: raw.Status.Message}
	}

	ev := BatchEvent{Index: index, Size: size, Elapsed: time.Since(began), Err: err}
	if raw != nil {
		ev.Status = raw.Status.Code
	}
	for _, o := range p.observers {
		o.OnBatch(ev)
	}
	if err != nil {
		if raw != nil {
			r.res.Response = p.responses.FromUpdate(raw)
		}
		return &Error{Batch: index, Committed: r.res.Committed, Consumed: r.res.Consumed, Err: err}
	}

	r.res.Response = p.responses.FromUpdate(raw)
	r.res.Batches = index
	r.res.Committed += size
	r.res.Consumed = r.position
	r.res.LastUniqueID = r.lastID
	r.batch = engine.NewUpdate()
	p.saveCheckpoint(ctx, r, false)
	return nil
}

func (p *Pusher) stop(r *run, err error) error {
	if pending := r.batch.DocumentCount(); pending > 0 {
		p.logger.Warn("push stopped, pending batch dropped",
			zap.Int("pending", pending),
			zap.Int("committed", r.res.Committed),
			zap.Error(err),
		)
	}
	return &Error{Batch: r.res.Batches + 1, Committed: r.res.Committed, Consumed: r.res.Consumed, Err: err}
}

func (p *Pusher) loadCheckpoint(ctx context.Context, r *run) error {
	if r.opts.checkpoint == "" || !r.opts.resume || p.checkpoints == nil {
		return nil
	}
	cp, err := p.checkpoints.Load(ctx, r.opts.checkpoint)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load checkpoint %q: %w", r.opts.checkpoint, err)
	}
	if cp.Done {
		p.logger.Info("checkpoint already complete, pushing from start", zap.String("checkpoint", cp.Name))
		return nil
	}
	if cp.Consumed > r.opts.resumeFrom {
		r.opts.resumeFrom = cp.Consumed
	}
	p.logger.Info("resuming push", zap.String("checkpoint", cp.Name), zap.Int("from", r.opts.resumeFrom))
	return nil
}

// saveCheckpoint never fails the push: the batch is already committed.
func (p *Pusher) saveCheckpoint(ctx context.Context, r *run, done bool) {
	if r.opts.checkpoint == "" || p.checkpoints == nil {
		return
	}
	cp := checkpoint.Checkpoint{
		Name:         r.opts.checkpoint,
		Consumed:     r.res.Consumed,
		Committed:    r.res.Committed,
		Batches:      r.res.Batches,
		LastUniqueID: r.res.LastUniqueID,
		Done:         done,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := p.checkpoints.Save(ctx, cp); err != nil {
		p.logger.Warn("save checkpoint failed", zap.String("checkpoint", cp.Name), zap.Error(err))
	}
}

// ClearIndex deletes every document matching deleteQuery, all documents when it is
// empty, and commits.
func (p *Pusher) ClearIndex(ctx context.Context, deleteQuery string) (*response.Response, error) {
	if deleteQuery == "" {
		deleteQuery = query.MatchAll
	}
	u := engine.NewUpdate().AddDeleteQuery(deleteQuery).AddCommit()

	cctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	raw, err := p.transport.Update(cctx, u)
	if err != nil {
		return nil, fmt.Errorf("clear index %q: %w", deleteQuery, err)
	}
	p.logger.Info("index cleared", zap.String("query", deleteQuery))
	return p.responses.FromUpdate(raw), nil
}
