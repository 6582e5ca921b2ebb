package pusher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mscatalog/internal/metrics"
)

// BatchEvent describes one commit attempt.
type BatchEvent struct {
	Index   int
	Size    int
	Elapsed time.Duration
	Status  int
	Err     error
}

// SkipEvent describes one document left out of the batch.
type SkipEvent struct {
	Position int
	UniqueID string
	Reason   string
	Err      error
}

// Observer receives push progress. Calls happen on the pushing goroutine, in stream order.
type Observer interface {
	OnBatch(BatchEvent)
	OnSkip(SkipEvent)
}

// LogObserver logs batches at Info and skips at Debug.
type LogObserver struct {
	Logger *zap.Logger
}

// OnBatch implements Observer.
func (o LogObserver) OnBatch(e BatchEvent) {
	if e.Err != nil {
		o.Logger.Error("push batch failed",
			zap.Int("batch", e.Index),
			zap.Int("size", e.Size),
			zap.Duration("elapsed", e.Elapsed),
			zap.Int("status", e.Status),
			zap.Error(e.Err),
		)
		return
	}
	o.Logger.Info("push batch committed",
		zap.Int("batch", e.Index),
		zap.Int("size", e.Size),
		zap.Duration("elapsed", e.Elapsed),
		zap.Int("status", e.Status),
	)
}

// OnSkip implements Observer.
func (o LogObserver) OnSkip(e SkipEvent) {
	fields := []zap.Field{
		zap.Int("position", e.Position),
		zap.String("unique_id", e.UniqueID),
		zap.String("reason", e.Reason),
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}
	o.Logger.Debug("push document skipped", fields...)
}

// MetricsObserver records batch and document outcomes in Prometheus.
// Counters are passed explicitly so tests can use their own registry.
type MetricsObserver struct {
	Batches   *prometheus.CounterVec // label "status": "ok" / "error"
	Duration  prometheus.Observer
	Documents *prometheus.CounterVec // label "outcome": "committed" or a skip reason
}

// NewMetricsObserver returns an observer backed by the package-level catalog metrics.
func NewMetricsObserver() MetricsObserver {
	return MetricsObserver{
		Batches:   metrics.PushBatchesTotal,
		Duration:  metrics.PushBatchDuration,
		Documents: metrics.PushDocumentsTotal,
	}
}

// OnBatch implements Observer.
func (o MetricsObserver) OnBatch(e BatchEvent) {
	status := "ok"
	if e.Err != nil {
		status = "error"
	}
	if o.Batches != nil {
		o.Batches.WithLabelValues(status).Inc()
	}
	if o.Duration != nil {
		o.Duration.Observe(e.Elapsed.Seconds())
	}
	if e.Err == nil && o.Documents != nil {
		o.Documents.WithLabelValues("committed").Add(float64(e.Size))
	}
}

// OnSkip implements Observer.
func (o MetricsObserver) OnSkip(e SkipEvent) {
	if o.Documents != nil {
		o.Documents.WithLabelValues(e.Reason).Inc()
	}
}
