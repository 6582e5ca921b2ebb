package engine

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mscatalog/internal/metrics"
)

// InstrumentedTransport records request metrics and logs failures of the inner transport.
type InstrumentedTransport struct {
	inner  Transport
	logger *zap.Logger
}

// NewInstrumentedTransport wraps inner. Metrics must be registered by the caller.
func NewInstrumentedTransport(inner Transport, logger *zap.Logger) *InstrumentedTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedTransport{inner: inner, logger: logger}
}

// Execute implements Transport.
func (t *InstrumentedTransport) Execute(ctx context.Context, q *Query) (*RawResult, error) {
	start := time.Now()
	res, err := t.inner.Execute(ctx, q)
	t.observe(OpSelect, start, res, err)
	return res, err
}

// Update implements Transport.
func (t *InstrumentedTransport) Update(ctx context.Context, u *Update) (*RawResult, error) {
	start := time.Now()
	res, err := t.inner.Update(ctx, u)
	t.observe(OpUpdate, start, res, err)
	if err == nil {
		t.logger.Debug("engine update",
			zap.Int("ops", u.Len()),
			zap.Int("documents", u.DocumentCount()),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return res, err
}

// Ping implements Transport.
func (t *InstrumentedTransport) Ping(ctx context.Context) error {
	start := time.Now()
	err := t.inner.Ping(ctx)
	t.observe(OpPing, start, nil, err)
	return err
}

func (t *InstrumentedTransport) observe(op string, start time.Time, res *RawResult, err error) {
	duration := time.Since(start)
	metrics.EngineRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
	metrics.EngineRequestsTotal.WithLabelValues(op, statusLabel(res, err)).Inc()
	if err != nil {
		t.logger.Error("engine request failed",
			zap.String("op", op),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	}
}

func statusLabel(res *RawResult, err error) string {
	var te *TransportError
	switch {
	case errors.As(err, &te) && te.StatusCode != 0:
		return strconv.Itoa(te.StatusCode)
	case err != nil:
		return "error"
	case res != nil && res.Status.Code != 0:
		return strconv.Itoa(res.Status.Code)
	}
	return "ok"
}
