package catalog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	logger     *zap.Logger
	metricsReg prometheus.Registerer

	engineMetrics bool

	pusherPageSize int
	pusherTimeout  time.Duration
	observers      []PushObserver

	redisAddrs    []string
	redisPassword string
	redisReady    time.Duration
	cacheTTL      time.Duration
	cache         bool
}

// WithLogger enables structured logging. Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// WithEngineMetrics records per-request engine metrics, breaker state and push batch
// metrics in the default Prometheus registry.
func WithEngineMetrics() Option {
	return optionFunc(func(c *clientConfig) {
		c.engineMetrics = true
	})
}

// WithPusherPageSize overrides Config.PusherPageSize.
func WithPusherPageSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.pusherPageSize = n
	})
}

// WithPusherTimeout overrides Config.PusherTimeout.
func WithPusherTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.pusherTimeout = d
	})
}

// WithPushObserver receives batch and skip events of every push.
func WithPushObserver(o PushObserver) Option {
	return optionFunc(func(c *clientConfig) {
		c.observers = append(c.observers, o)
	})
}

// WithRedis connects a Redis store used for push checkpoints and the query cache.
func WithRedis(addrs []string, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = addrs
		c.redisPassword = password
	})
}

// WithRedisReadinessTimeout bounds how long Open waits for Redis. Default: 10s.
func WithRedisReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisReady = d
	})
}

// WithQueryCache caches select results in Redis for ttl. Requires WithRedis.
func WithQueryCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cache = true
		c.cacheTTL = ttl
	})
}
