package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mscatalog/internal/db"
	"github.com/kailas-cloud/mscatalog/internal/domain"
	"github.com/kailas-cloud/mscatalog/internal/engine"
)

var (
	cacheKeyPrefix = domain.KeyPrefix + "qcache:"
	generationKey  = cacheKeyPrefix + "gen"
)

// DefaultTTL bounds how long a cached select body is served.
const DefaultTTL = 60 * time.Second

// store is the consumer interface for the query cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// CachedTransport caches successful select bodies in a key-value store.
// Every successful update bumps a generation counter that is part of the cache key,
// so entries written before the update are never served again.
type CachedTransport struct {
	inner      engine.Transport
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"error"), passed explicitly.
func New(
	inner engine.Transport,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedTransport {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedTransport{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Execute returns a cached select result or calls the inner transport.
func (c *CachedTransport) Execute(ctx context.Context, q *engine.Query) (*engine.RawResult, error) {
	gen, ok := c.generation(ctx)
	if !ok {
		c.incCache("error")
		return c.inner.Execute(ctx, q)
	}
	key := c.cacheKey(gen, q)

	if res, ok := c.getFromCache(ctx, key, q); ok {
		c.incCache("hit")
		return res, nil
	}

	c.incCache("miss")

	res, err := c.inner.Execute(ctx, q)
	if err != nil {
		return res, err
	}
	if res.Status.Code >= 200 && res.Status.Code < 300 && len(res.Body) > 0 {
		c.putToCache(ctx, key, res.Body)
	}
	return res, nil
}

// Update forwards to the inner transport and invalidates the cache on success.
func (c *CachedTransport) Update(ctx context.Context, u *engine.Update) (*engine.RawResult, error) {
	res, err := c.inner.Update(ctx, u)
	if err != nil {
		return res, err
	}
	if _, err := c.store.IncrBy(ctx, generationKey, 1); err != nil {
		c.logger.Warn("Failed to invalidate query cache", zap.Error(err))
	}
	return res, nil
}

// Ping forwards to the inner transport.
func (c *CachedTransport) Ping(ctx context.Context) error {
	return c.inner.Ping(ctx)
}

func (c *CachedTransport) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedTransport) generation(ctx context.Context) (string, bool) {
	data, err := c.store.Get(ctx, generationKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "0", true
		}
		c.logger.Warn("Failed to read query cache generation", zap.Error(err))
		return "", false
	}
	return string(data), true
}

func (c *CachedTransport) cacheKey(gen string, q *engine.Query) string {
	h := sha256.Sum256([]byte(q.Values().Encode()))
	return fmt.Sprintf("%s%s:%s", cacheKeyPrefix, gen, hex.EncodeToString(h[:]))
}

func (c *CachedTransport) getFromCache(ctx context.Context, key string, q *engine.Query) (*engine.RawResult, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached query", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	res, err := engine.NewRawResult(engine.Status{Code: http.StatusOK, Message: http.StatusText(http.StatusOK)}, q, data)
	if err != nil {
		c.logger.Warn("Failed to parse cached query", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return res, true
}

func (c *CachedTransport) putToCache(ctx context.Context, key string, body []byte) {
	if err := c.store.SetWithTTL(ctx, key, body, c.ttl); err != nil {
		c.logger.Warn("Failed to cache query", zap.String("key", key), zap.Error(err))
	}
}
