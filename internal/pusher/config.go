package pusher

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/mscatalog/internal/domain"
)

// Defaults applied to an unset Config.
const (
	DefaultPageSize = 100
	DefaultTimeout  = 60 * time.Second
)

// Config controls batching. PageSize is the number of accepted documents per commit;
// Timeout bounds each update request sent to the engine.
type Config struct {
	PageSize int
	Timeout  time.Duration
}

// WithDefaults returns c with zero values replaced by the defaults.
func (c Config) WithDefaults() Config {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate rejects non-positive values.
func (c Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: pusher page size must be positive, got %d", domain.ErrInvalidConfig, c.PageSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: pusher timeout must be positive, got %s", domain.ErrInvalidConfig, c.Timeout)
	}
	return nil
}
