package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mscatalog/internal/codec"
	"github.com/kailas-cloud/mscatalog/internal/db"
	dbRedis "github.com/kailas-cloud/mscatalog/internal/db/redis"
	"github.com/kailas-cloud/mscatalog/internal/domain"
	"github.com/kailas-cloud/mscatalog/internal/engine"
	"github.com/kailas-cloud/mscatalog/internal/engine/bleve"
	"github.com/kailas-cloud/mscatalog/internal/engine/solr"
	"github.com/kailas-cloud/mscatalog/internal/metrics"
	"github.com/kailas-cloud/mscatalog/internal/pusher"
	checkpointrepo "github.com/kailas-cloud/mscatalog/internal/repository/checkpoint"
	"github.com/kailas-cloud/mscatalog/internal/repository/querycache"
	"github.com/kailas-cloud/mscatalog/internal/translate"
)

const defaultReadinessTimeout = 10 * time.Second

// Engine drivers.
const (
	DriverSolr  = "solr"
	DriverBleve = "bleve"
)

// Config locates the engine and sets the push batching. Zero values fall back to
// documented defaults: Solr on http://<Host>:8983/solr/<Core>, a 5s request timeout,
// 100 documents per commit and a 60s commit timeout.
type Config struct {
	Driver string // solr (default) or bleve

	Scheme  string
	Host    string
	Port    int
	Path    string
	Core    string
	Timeout time.Duration
	Breaker BreakerConfig

	// BlevePath is the embedded index directory; empty keeps the index in memory.
	BlevePath string

	PusherPageSize int
	PusherTimeout  time.Duration
}

// Client is the catalog entry point. It is safe for concurrent use: every engine request
// is serialized on one lock, and a push holds the lock only while a batch is in flight.
type Client struct {
	transport   engine.Transport
	queries     *translate.QueryTranslator
	responses   *translate.ResponseTranslator
	pusher      *pusher.Pusher
	checkpoints *checkpointrepo.Repo
	store       db.Store
	closers     []func() error
	logger      *zap.Logger
	obs         *observer
}

// Open creates a Client for the configured engine. With WithRedis the provided context
// bounds the initial readiness check of the store.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}
	if cc.logger == nil {
		cc.logger = zap.NewNop()
	}
	if cc.engineMetrics {
		metrics.RegisterCatalogMetrics()
	}

	base, closeEngine, err := openEngine(cfg, cc.logger)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if len(cc.redisAddrs) > 0 {
		store, err = openStore(ctx, cc)
		if err != nil {
			_ = closeEngine()
			return nil, err
		}
	}

	c, err := newClient(base, store, cfg, cc)
	if err != nil {
		if store != nil {
			store.Close()
		}
		_ = closeEngine()
		return nil, err
	}
	c.closers = append(c.closers, closeEngine)
	if store != nil {
		c.closers = append(c.closers, func() error { store.Close(); return nil })
	}
	return c, nil
}

func openEngine(cfg Config, logger *zap.Logger) (engine.Transport, func() error, error) {
	switch cfg.Driver {
	case "", DriverSolr:
		if cfg.Host == "" || cfg.Core == "" {
			return nil, nil, fmt.Errorf("catalog: %w: solr host and core are required", domain.ErrInvalidConfig)
		}
		t, err := solr.New(solr.Config{
			BaseURL: solr.BaseURL(cfg.Scheme, cfg.Host, defaultPort(cfg.Port), cfg.Path, cfg.Core),
			Timeout: cfg.Timeout,
			Breaker: cfg.Breaker,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: create solr transport: %w", err)
		}
		return t, func() error { return nil }, nil
	case DriverBleve:
		t, err := bleve.New(cfg.BlevePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: create bleve transport: %w", err)
		}
		return t, t.Close, nil
	default:
		return nil, nil, fmt.Errorf("catalog: %w: unknown driver %q", domain.ErrInvalidConfig, cfg.Driver)
	}
}

func defaultPort(p int) int {
	if p == 0 {
		return 8983
	}
	return p
}

func openStore(ctx context.Context, cc *clientConfig) (db.Store, error) {
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cc.redisAddrs,
		Password: cc.redisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: create redis store: %w", err)
	}
	timeout := cc.redisReady
	if timeout <= 0 {
		timeout = defaultReadinessTimeout
	}
	if err := s.WaitForReady(ctx, timeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("catalog: redis not ready: %w", err)
	}
	return s, nil
}

// newClient assembles the transport chain: engine -> instrumented -> cached -> locked.
func newClient(base engine.Transport, store db.Store, cfg Config, cc *clientConfig) (*Client, error) {
	logger := cc.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	t := base
	if cc.engineMetrics {
		t = engine.NewInstrumentedTransport(t, logger)
	}
	if cc.cache {
		if store == nil {
			return nil, fmt.Errorf("catalog: %w: query cache requires WithRedis", domain.ErrInvalidConfig)
		}
		var cacheTotal *prometheus.CounterVec
		if cc.engineMetrics {
			cacheTotal = metrics.QueryCacheTotal
		}
		t = querycache.New(t, store, cc.cacheTTL, cacheTotal, logger)
	}
	t = &lockedTransport{inner: t}

	obs, err := newObserver(logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		transport: t,
		queries:   translate.NewQueryTranslator(logger),
		responses: translate.NewResponseTranslator(logger),
		logger:    logger,
		obs:       obs,
	}

	popts := []pusher.Option{pusher.WithLogger(logger), pusher.WithObserver(pusher.LogObserver{Logger: logger})}
	if cc.engineMetrics {
		popts = append(popts, pusher.WithObserver(pusher.NewMetricsObserver()))
	}
	for _, o := range cc.observers {
		popts = append(popts, pusher.WithObserver(o))
	}
	if store != nil {
		c.store = store
		c.checkpoints = checkpointrepo.New(store)
		popts = append(popts, pusher.WithCheckpointStore(c.checkpoints))
	}

	pcfg := pusher.Config{PageSize: cfg.PusherPageSize, Timeout: cfg.PusherTimeout}
	if cc.pusherPageSize != 0 {
		pcfg.PageSize = cc.pusherPageSize
	}
	if cc.pusherTimeout != 0 {
		pcfg.Timeout = cc.pusherTimeout
	}
	c.pusher, err = pusher.New(t, pcfg, popts...)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return c, nil
}

// Close releases the engine and store. Safe to call once.
func (c *Client) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ping checks engine connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, nil, err) }()

	if err = c.transport.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// HasStore reports whether a Redis store is configured.
func (c *Client) HasStore() bool {
	return c.store != nil
}

// PingStore checks Redis connectivity. Requires WithRedis.
func (c *Client) PingStore(ctx context.Context) error {
	if c.store == nil {
		return fmt.Errorf("ping store: %w: no store configured", domain.ErrInvalidConfig)
	}
	return c.store.Ping(ctx)
}

// Query translates spec, executes it and reconstructs the response.
// An engine error status yields both the response and a *TransportError.
func (c *Client) Query(ctx context.Context, spec *QuerySpec) (resp *Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query", start, resp, err) }()

	q := c.queries.Translate(spec)
	raw, err := c.transport.Execute(ctx, q)
	if raw == nil && err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return c.responses.FromQuery(raw), wrap("query", err)
}

// Get passes params untouched to the engine select handler. Documents keep their engine
// field names and NumFound is the number of documents returned.
func (c *Client) Get(ctx context.Context, params url.Values) (resp *Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get", start, resp, err) }()

	raw, err := c.transport.Execute(ctx, &engine.Query{Params: params})
	if raw == nil && err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	return c.responses.FromGet(raw), wrap("get", err)
}

// Add encodes and indexes docs in one update with a trailing commit. A document that
// cannot be encoded fails the whole call before anything is sent.
func (c *Client) Add(ctx context.Context, docs ...Document) (resp *Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("add", start, resp, err) }()

	u := engine.NewUpdate()
	for i := range docs {
		rec, err := codec.EncodeDocument(&docs[i])
		if err != nil {
			return nil, fmt.Errorf("add %q: %w", docs[i].UniqueID(), err)
		}
		u.AddDocument(rec)
	}
	return c.update(ctx, "add", u.AddCommit())
}

// DeleteByID deletes one document by unique id and commits.
func (c *Client) DeleteByID(ctx context.Context, id string) (resp *Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_by_id", start, resp, err) }()

	return c.update(ctx, "delete by id", engine.NewUpdate().AddDeleteByID(id).AddCommit())
}

// DeleteByIDs deletes documents by unique id and commits.
func (c *Client) DeleteByIDs(ctx context.Context, ids []string) (resp *Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_by_ids", start, resp, err) }()

	return c.update(ctx, "delete by ids", engine.NewUpdate().AddDeleteByIDs(ids).AddCommit())
}

// DeleteByField deletes every document whose field matches f and commits.
func (c *Client) DeleteByField(ctx context.Context, f Field) (resp *Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_by_field", start, resp, err) }()

	clause, err := translate.FieldClause(f)
	if err != nil {
		return nil, fmt.Errorf("delete by field %q: %w", f.Name(), err)
	}
	return c.update(ctx, "delete by field", engine.NewUpdate().AddDeleteQuery(clause).AddCommit())
}

// Push indexes src in batches. See Pusher for the stop and skip semantics.
func (c *Client) Push(
	ctx context.Context, src iter.Seq2[Document, error], opts ...PushOption,
) (res *PushResult, err error) {
	start := time.Now()
	defer func() {
		var resp *Response
		if res != nil {
			resp = res.Response
		}
		c.obs.observe("push", start, resp, err)
	}()

	return c.pusher.Push(ctx, src, opts...)
}

// ClearIndex deletes every document matching deleteQuery, or all documents when it is
// empty, and commits.
func (c *Client) ClearIndex(ctx context.Context, deleteQuery string) (resp *Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("clear_index", start, resp, err) }()

	return c.pusher.ClearIndex(ctx, deleteQuery)
}

// Pusher returns the client's pusher, bound to the client's transport and timeout.
func (c *Client) Pusher() *Pusher {
	return c.pusher
}

// Checkpoints lists stored push checkpoints. Requires WithRedis.
func (c *Client) Checkpoints(ctx context.Context) ([]Checkpoint, error) {
	if c.checkpoints == nil {
		return nil, fmt.Errorf("checkpoints: %w: no store configured", domain.ErrInvalidConfig)
	}
	return c.checkpoints.List(ctx)
}

// Checkpoint returns one stored checkpoint or ErrNotFound. Requires WithRedis.
func (c *Client) Checkpoint(ctx context.Context, name string) (Checkpoint, error) {
	if c.checkpoints == nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: %w: no store configured", domain.ErrInvalidConfig)
	}
	return c.checkpoints.Load(ctx, name)
}

// DeleteCheckpoint removes a stored checkpoint. Requires WithRedis.
func (c *Client) DeleteCheckpoint(ctx context.Context, name string) error {
	if c.checkpoints == nil {
		return fmt.Errorf("delete checkpoint: %w: no store configured", domain.ErrInvalidConfig)
	}
	return c.checkpoints.Delete(ctx, name)
}

func (c *Client) update(ctx context.Context, op string, u *engine.Update) (*Response, error) {
	raw, err := c.transport.Update(ctx, u)
	if raw == nil && err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.responses.FromUpdate(raw), wrap(op, err)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// lockedTransport serializes every engine request.
type lockedTransport struct {
	mu    sync.Mutex
	inner engine.Transport
}

func (t *lockedTransport) Execute(ctx context.Context, q *engine.Query) (*engine.RawResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inner.Execute(ctx, q)
}

func (t *lockedTransport) Update(ctx context.Context, u *engine.Update) (*engine.RawResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inner.Update(ctx, u)
}

func (t *lockedTransport) Ping(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inner.Ping(ctx)
}
