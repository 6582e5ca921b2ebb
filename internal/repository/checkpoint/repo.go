package checkpoint

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/mscatalog/internal/domain"
	domcp "github.com/kailas-cloud/mscatalog/internal/domain/checkpoint"
)

// store is the consumer interface for checkpoints (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo persists push checkpoints as Redis hashes. Implements pusher.CheckpointStore.
type Repo struct {
	store store
}

// New creates a checkpoint repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Load returns the checkpoint stored under name, or domain.ErrNotFound.
func (r *Repo) Load(ctx context.Context, name string) (domcp.Checkpoint, error) {
	m, err := r.store.HGetAll(ctx, key(name))
	if err != nil {
		return domcp.Checkpoint{}, fmt.Errorf("hgetall checkpoint %s: %w", name, err)
	}
	if len(m) == 0 {
		return domcp.Checkpoint{}, domain.ErrNotFound
	}
	return checkpointFromHash(m)
}

// Save overwrites the checkpoint fields for cp.Name.
func (r *Repo) Save(ctx context.Context, cp domcp.Checkpoint) error {
	if cp.Name == "" {
		return fmt.Errorf("checkpoint name: %w", domain.ErrInvalidConfig)
	}
	if err := r.store.HSet(ctx, key(cp.Name), checkpointToHash(cp)); err != nil {
		return fmt.Errorf("hset checkpoint %s: %w", cp.Name, err)
	}
	return nil
}

// List returns all checkpoints sorted by name.
func (r *Repo) List(ctx context.Context) ([]domcp.Checkpoint, error) {
	keys, err := r.store.Scan(ctx, key("*"))
	if err != nil {
		return nil, fmt.Errorf("scan checkpoints: %w", err)
	}
	if len(keys) == 0 {
		return []domcp.Checkpoint{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi checkpoints: %w", err)
	}

	out := make([]domcp.Checkpoint, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue // expired or deleted between SCAN and HGETALL
		}
		cp, err := checkpointFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse checkpoint %s: %w", keys[i], err)
		}
		out = append(out, cp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a checkpoint. Deleting a missing checkpoint is not an error.
func (r *Repo) Delete(ctx context.Context, name string) error {
	if err := r.store.Del(ctx, key(name)); err != nil {
		return fmt.Errorf("del checkpoint %s: %w", name, err)
	}
	return nil
}

// Key pattern: mscatalog:checkpoint:{name}

func key(name string) string {
	return fmt.Sprintf("%scheckpoint:%s", domain.KeyPrefix, name)
}
