package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/mscatalog/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	defaultClientName  = "mscatalog"
	defaultDialTimeout = 5 * time.Second

	readyBackoffMin = 50 * time.Millisecond
	readyBackoffMax = time.Second
)

// Config holds connection parameters for the checkpoint and cache store.
type Config struct {
	Addrs       []string
	Username    string
	Password    string
	DB          int
	ClientName  string
	DialTimeout time.Duration
}

// Store is the rueidis-backed db.Store. Client-side caching stays off: cached select
// bodies and checkpoints are written by other catalogd replicas too.
type Store struct {
	client rueidis.Client
}

// NewStore connects to Redis. At least one address is required.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis store: no addresses configured")
	}
	name := cfg.ClientName
	if name == "" {
		name = defaultClientName
	}
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   name,
		Dialer:       net.Dialer{Timeout: dial},
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis store: connect %v: %w", cfg.Addrs, err)
	}
	return newStore(client), nil
}

func newStore(c rueidis.Client) *Store {
	return &Store{client: c}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.exec(ctx, db.OpPing, "", s.client.B().Ping().Build())
	return err
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings with exponential backoff until Redis answers or timeout passes.
// The returned error carries the last ping failure.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := readyBackoffMin
	for attempt := 1; ; attempt++ {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("redis not ready after %d attempts: %w", attempt, errors.Join(ctx.Err(), err))
		case <-t.C:
		}
		backoff = min(backoff*2, readyBackoffMax)
	}
}

// exec runs cmd and wraps any failure, including a nil reply, in *db.Error.
func (s *Store) exec(ctx context.Context, op, key string, cmd rueidis.Completed) (rueidis.RedisResult, error) {
	res := s.client.Do(ctx, cmd)
	if err := res.Error(); err != nil {
		return res, &db.Error{Op: op, Key: key, Err: err}
	}
	return res, nil
}
