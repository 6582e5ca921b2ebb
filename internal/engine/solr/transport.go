// Package solr is the engine transport for Apache Solr: select and JSON update requests
// over HTTP, guarded by a circuit breaker.
package solr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mscatalog/internal/engine"
	"github.com/kailas-cloud/mscatalog/internal/metrics"
)

// Transport implements engine.Transport against one Solr core.
type Transport struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*engine.RawResult]
	logger  *zap.Logger
}

// New creates a Solr transport.
func New(cfg Config, logger *zap.Logger) (*Transport, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}}
	}

	t := &Transport{cfg: cfg, client: client, logger: logger}
	bc := cfg.Breaker
	t.breaker = gobreaker.NewCircuitBreaker[*engine.RawResult](gobreaker.Settings{
		Name:        bc.Name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bc.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	metrics.BreakerState.WithLabelValues(bc.Name).Set(0)
	return t, nil
}

// BaseURL returns the core URL.
func (t *Transport) BaseURL() string { return t.cfg.BaseURL }

// State returns the circuit breaker state.
func (t *Transport) State() gobreaker.State { return t.breaker.State() }

// Execute posts the query to the select handler.
func (t *Transport) Execute(ctx context.Context, q *engine.Query) (*engine.RawResult, error) {
	body := q.Values().Encode()
	return t.do(ctx, engine.OpSelect, q, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/select", strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
}

// Update posts the update commands as JSON to the update handler.
func (t *Transport) Update(ctx context.Context, u *engine.Update) (*engine.RawResult, error) {
	body, err := json.Marshal(u)
	if err != nil {
		return nil, &engine.TransportError{Op: engine.OpUpdate, Err: fmt.Errorf("encode update: %w", err)}
	}
	return t.do(ctx, engine.OpUpdate, nil, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/update?wt=json", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

// Ping calls the core ping handler.
func (t *Transport) Ping(ctx context.Context) error {
	_, err := t.do(ctx, engine.OpPing, nil, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.BaseURL+"/admin/ping?wt=json", http.NoBody)
	})
	return err
}

// do runs one request through the breaker. Network errors and 5xx count as breaker
// failures; 4xx responses come back with a TransportError but leave the breaker alone.
func (t *Transport) do(
	ctx context.Context, op string, q *engine.Query,
	build func(context.Context) (*http.Request, error),
) (*engine.RawResult, error) {
	if _, ok := ctx.Deadline(); !ok && t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	raw, err := t.breaker.Execute(func() (*engine.RawResult, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := t.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		status := engine.Status{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		raw, perr := engine.NewRawResult(status, q, body)
		if perr != nil {
			// keep the body for the error message, engines answer some failures in HTML
			raw = &engine.RawResult{Status: status, Query: q, Body: body}
		}
		if resp.StatusCode >= 500 {
			return raw, statusError(op, raw)
		}
		if perr != nil && resp.StatusCode < 300 {
			return raw, perr
		}
		return raw, nil
	})

	if err != nil {
		var te *engine.TransportError
		if errors.As(err, &te) {
			return raw, te
		}
		return raw, &engine.TransportError{Op: op, Err: err}
	}
	if raw.Status.Code < 200 || raw.Status.Code >= 300 {
		return raw, statusError(op, raw)
	}
	return raw, nil
}

func statusError(op string, raw *engine.RawResult) *engine.TransportError {
	te := &engine.TransportError{Op: op, StatusCode: raw.Status.Code, Message: raw.Status.Message}
	if raw.Payload != nil && raw.Payload.Error != nil && raw.Payload.Error.Msg != "" {
		te.Message = raw.Payload.Error.Msg
	} else if len(raw.Body) > 0 && raw.Payload == nil {
		te.Message = truncate(strings.TrimSpace(string(raw.Body)), 200)
	}
	return te
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// stateToFloat maps breaker states to gauge values.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
