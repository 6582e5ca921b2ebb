package db

import (
	"context"
	"time"
)

// Store is everything mscatalog keeps in Redis: push checkpoints (hashes) and the
// query cache (plain keys). Consumers declare the narrow subset they need.
type Store interface {
	Pinger
	HashStore
	KVStore
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore holds one hash per checkpoint.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	// Scan returns every key matching pattern, each once.
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVStore holds cached select bodies and the cache generation counter.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}
