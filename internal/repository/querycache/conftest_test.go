package querycache

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mscatalog/internal/db"
	"github.com/kailas-cloud/mscatalog/internal/engine"
)

const selectBody = `{"responseHeader":{"status":0,"QTime":1},"response":{"numFound":1,"start":0,"docs":[{"solr_id":"p-1"}]}}`

type mockTransport struct {
	executeCalls int
	updateCalls  int
	status       int
	err          error
	// withResult returns the raw result alongside err, as the engine does for 4xx/5xx.
	withResult bool
}

func (m *mockTransport) Execute(_ context.Context, q *engine.Query) (*engine.RawResult, error) {
	m.executeCalls++
	if m.err != nil && !m.withResult {
		return nil, m.err
	}
	code := m.status
	if code == 0 {
		code = http.StatusOK
	}
	res, err := engine.NewRawResult(engine.Status{Code: code}, q, []byte(selectBody))
	if err != nil {
		return nil, err
	}
	return res, m.err
}

func (m *mockTransport) Update(_ context.Context, _ *engine.Update) (*engine.RawResult, error) {
	m.updateCalls++
	if m.err != nil {
		return nil, m.err
	}
	return &engine.RawResult{Status: engine.Status{Code: http.StatusOK}}, nil
}

func (m *mockTransport) Ping(_ context.Context) error { return m.err }

// memStore is an in-memory KV store; getErr, when set, fails every Get.
type memStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	var n int64
	for _, c := range m.data[key] {
		n = n*10 + int64(c-'0')
	}
	n += val
	m.data[key] = []byte(formatInt(n))
	return n, nil
}

func formatInt(n int64) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for ; n > 0; n /= 10 {
		b = append([]byte{byte('0' + n%10)}, b...)
	}
	return string(b)
}

func newTestCache(t *testing.T) (*CachedTransport, *mockTransport, *memStore, *prometheus.CounterVec) {
	t.Helper()
	inner := &mockTransport{}
	ms := newMemStore()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_query_cache_total"}, []string{"result"})
	return New(inner, ms, time.Minute, counter, zap.NewNop()), inner, ms, counter
}

func testQuery() *engine.Query {
	return &engine.Query{Text: "*:*", Rows: 10, Filters: []engine.Clause{{Value: "color_s:red"}}}
}
