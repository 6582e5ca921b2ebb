package checkpoint

import (
	"fmt"
	"strconv"
	"time"

	domcp "github.com/kailas-cloud/mscatalog/internal/domain/checkpoint"
)

func checkpointToHash(cp domcp.Checkpoint) map[string]string {
	updated := cp.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return map[string]string{
		"name":           cp.Name,
		"consumed":       strconv.Itoa(cp.Consumed),
		"committed":      strconv.Itoa(cp.Committed),
		"batches":        strconv.Itoa(cp.Batches),
		"last_unique_id": cp.LastUniqueID,
		"done":           strconv.FormatBool(cp.Done),
		"updated_at":     strconv.FormatInt(updated.UnixMilli(), 10),
	}
}

func checkpointFromHash(m map[string]string) (domcp.Checkpoint, error) {
	cp := domcp.Checkpoint{Name: m["name"], LastUniqueID: m["last_unique_id"]}

	ints := []struct {
		field string
		dst   *int
	}{
		{"consumed", &cp.Consumed},
		{"committed", &cp.Committed},
		{"batches", &cp.Batches},
	}
	for _, f := range ints {
		s, ok := m[f.field]
		if !ok || s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return domcp.Checkpoint{}, fmt.Errorf("invalid %s: %w", f.field, err)
		}
		*f.dst = n
	}

	if s := m["done"]; s != "" {
		done, err := strconv.ParseBool(s)
		if err != nil {
			return domcp.Checkpoint{}, fmt.Errorf("invalid done: %w", err)
		}
		cp.Done = done
	}

	if s := m["updated_at"]; s != "" {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return domcp.Checkpoint{}, fmt.Errorf("invalid updated_at: %w", err)
		}
		cp.UpdatedAt = time.UnixMilli(ms)
	}

	return cp, nil
}
