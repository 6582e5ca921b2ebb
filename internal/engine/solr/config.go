package solr

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/mscatalog/internal/domain"
)

// DefaultTimeout bounds a request whose context carries no deadline.
const DefaultTimeout = 5 * time.Second

// Config holds the Solr core location and client settings.
type Config struct {
	// BaseURL is the core URL, e.g. http://localhost:8983/solr/catalog.
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig
	// HTTPClient overrides the default pooled client.
	HTTPClient *http.Client
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	Name string
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32
	// Interval clears the failure counts while closed; 0 never clears.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// FailureRatio trips the breaker once MinRequests have been seen.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// BaseURL assembles a core URL from its parts. Empty path defaults to /solr.
func BaseURL(scheme, host string, port int, path, core string) string {
	if scheme == "" {
		scheme = "http"
	}
	if path == "" {
		path = "/solr"
	}
	hostport := host
	if port > 0 {
		hostport = host + ":" + strconv.Itoa(port)
	}
	u := url.URL{Scheme: scheme, Host: hostport, Path: strings.TrimRight(path, "/") + "/" + strings.Trim(core, "/")}
	return strings.TrimRight(u.String(), "/")
}

func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Breaker == (BreakerConfig{}) {
		c.Breaker = DefaultBreakerConfig("solr")
	}
	if c.Breaker.Name == "" {
		c.Breaker.Name = "solr"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

func (c Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: solr base url %q", domain.ErrInvalidConfig, c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: solr timeout must not be negative", domain.ErrInvalidConfig)
	}
	if c.Breaker.FailureRatio < 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("%w: breaker failure ratio must be in [0,1]", domain.ErrInvalidConfig)
	}
	return nil
}
