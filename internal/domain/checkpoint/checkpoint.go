package checkpoint

import "time"

// Checkpoint is the progress of a named push after its last committed batch.
// Consumed is the source position a restarted push resumes from.
type Checkpoint struct {
	Name         string    `json:"name"`
	Consumed     int       `json:"consumed"`
	Committed    int       `json:"committed"`
	Batches      int       `json:"batches"`
	LastUniqueID string    `json:"last_unique_id,omitempty"`
	Done         bool      `json:"done"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsZero reports whether nothing was recorded yet.
func (c Checkpoint) IsZero() bool {
	return c.Consumed == 0 && c.Batches == 0 && c.UpdatedAt.IsZero()
}
