package health

import (
	"context"
	"sync"
	"time"
)

// Status is the aggregated health of the daemon.
type Status string

const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded" // an optional component is failing
	Unhealthy Status = "error"    // a required component is failing
)

// CheckResult is the outcome of one component check.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// DefaultCheckTimeout bounds each component ping.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates check results by component name.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type component struct {
	name     string
	pinger   Pinger
	required bool
}

// Service pings the search engine and, when configured, the Redis store.
type Service struct {
	components []component
	timeout    time.Duration
}

// New creates a Service. The engine is required. store may be nil; when set, its failure
// only degrades the report since queries and pushes work without checkpoints and cache.
func New(engine, store Pinger) *Service {
	s := &Service{
		components: []component{{name: "engine", pinger: engine, required: true}},
		timeout:    DefaultCheckTimeout,
	}
	if store != nil {
		s.components = append(s.components, component{name: "store", pinger: store})
	}
	return s
}

// WithTimeout returns s with a different per-check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check pings all components concurrently.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.components))

	var wg sync.WaitGroup
	for i, c := range s.components {
		wg.Go(func() {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			results[i] = CheckOK
			if err := c.pinger.Ping(cctx); err != nil {
				results[i] = CheckError
			}
		})
	}
	wg.Wait()

	report := Report{Status: Healthy, Checks: make(map[string]CheckResult, len(s.components))}
	for i, c := range s.components {
		report.Checks[c.name] = results[i]
		if results[i] == CheckOK {
			continue
		}
		switch {
		case c.required:
			report.Status = Unhealthy
		case report.Status == Healthy:
			report.Status = Degraded
		}
	}
	return report
}
