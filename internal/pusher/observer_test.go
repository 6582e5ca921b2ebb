package pusher

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/mscatalog/internal/domain/document"
)

func TestMetricsObserver(t *testing.T) {
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_push_batches_total"}, []string{"status"})
	docs := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_push_documents_total"}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_push_batch_duration_seconds"})
	obs := MetricsObserver{Batches: batches, Duration: duration, Documents: docs}

	input := append(products(3), document.New("p-x", 0, "product"))
	tr := &fakeTransport{failAt: 2}
	if _, err := newPusher(t, tr, 2, WithObserver(obs)).Push(context.Background(), seq(input)); err == nil {
		t.Fatal("expected second batch to fail")
	}

	if got := testutil.ToFloat64(batches.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok batches = %v", got)
	}
	if got := testutil.ToFloat64(batches.WithLabelValues("error")); got != 1 {
		t.Errorf("error batches = %v", got)
	}
	if got := testutil.ToFloat64(docs.WithLabelValues("committed")); got != 2 {
		t.Errorf("committed docs = %v", got)
	}
	if got := testutil.ToFloat64(docs.WithLabelValues(SkipZeroObjectID)); got != 1 {
		t.Errorf("skipped docs = %v", got)
	}
	if got := testutil.CollectAndCount(duration); got != 1 {
		t.Errorf("duration series = %d", got)
	}
}

func TestMetricsObserver_NilCollectors(t *testing.T) {
	var obs MetricsObserver
	obs.OnBatch(BatchEvent{Size: 1})
	obs.OnSkip(SkipEvent{Reason: SkipEmptyUniqueID})
}

func TestNewMetricsObserver_UsesCatalogMetrics(t *testing.T) {
	obs := NewMetricsObserver()
	if obs.Batches == nil || obs.Duration == nil || obs.Documents == nil {
		t.Fatalf("unset collectors: %+v", obs)
	}
}
