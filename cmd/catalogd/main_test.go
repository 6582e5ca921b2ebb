package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/mscatalog/internal/config"
	logpkg "github.com/kailas-cloud/mscatalog/internal/logger"
	chiTransport "github.com/kailas-cloud/mscatalog/internal/transport/chi"
	"github.com/kailas-cloud/mscatalog/pkg/catalog"
)

func TestRecoverPanics(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(recoverPanics(zap.New(core)))
	r.Get("/query", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/query", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("got %d", rr.Code)
	}
	var body chiTransport.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != chiTransport.ErrorCodeInternalError {
		t.Errorf("code: %s", body.Code)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one panic log, got %d", logs.Len())
	}
	if id, _ := logs.All()[0].ContextMap()["request_id"].(string); id == "" {
		t.Error("panic log without request_id")
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(accessLog(zap.New(core)))
	r.Delete("/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		logpkg.FromContext(r.Context()).Info("deleting")
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("DELETE", "/documents/product-1", http.NoBody))

	reqID := rr.Header().Get("X-Request-ID")
	if reqID == "" {
		t.Fatal("missing X-Request-ID")
	}
	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected handler log and access line, got %d", len(entries))
	}
	for _, e := range entries {
		if e.ContextMap()["request_id"] != reqID {
			t.Errorf("%s: request_id %v", e.Message, e.ContextMap()["request_id"])
		}
	}
	line := entries[1].ContextMap()
	if line["route"] != "/documents/{id}" || line["status"] != int64(http.StatusOK) {
		t.Errorf("access line: %v", line)
	}
}

func TestAccessLevel(t *testing.T) {
	tests := []struct {
		route  string
		status int
		want   zapcore.Level
	}{
		{"/query", http.StatusOK, zapcore.InfoLevel},
		{"/health", http.StatusOK, zapcore.DebugLevel},
		{"/metrics", http.StatusOK, zapcore.DebugLevel},
		{"/health", http.StatusServiceUnavailable, zapcore.ErrorLevel},
		{"/push", http.StatusConflict, zapcore.WarnLevel},
		{"/query", http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		if got := accessLevel(tt.route, tt.status); got != tt.want {
			t.Errorf("accessLevel(%s, %d) = %s, want %s", tt.route, tt.status, got, tt.want)
		}
	}
}

func TestCatalogConfig(t *testing.T) {
	cfg := config.Config{
		Engine: config.EngineConfig{Driver: config.DriverSolr, Host: "solr", Core: "catalog", TimeoutMS: 2500},
		Breaker: config.BreakerConfig{
			MaxRequests: 2, IntervalSec: 10, TimeoutSec: 5, FailureRatio: 0.25, MinRequests: 4,
		},
		Pusher: config.PusherConfig{PageSize: 50, TimeoutMS: 1000},
	}
	cfg.ApplyDefaults()

	got := catalogConfig(cfg)
	if got.Timeout != 2500*time.Millisecond || got.PusherPageSize != 50 || got.PusherTimeout != time.Second {
		t.Errorf("timeouts/page size: %+v", got)
	}
	want := catalog.BreakerConfig{
		Name: "solr", MaxRequests: 2, Interval: 10 * time.Second, Timeout: 5 * time.Second,
		FailureRatio: 0.25, MinRequests: 4,
	}
	if got.Breaker != want {
		t.Errorf("breaker: %+v", got.Breaker)
	}
}

func TestCatalogOptions(t *testing.T) {
	base := len(catalogOptions(config.Config{}, zap.NewNop()))

	cfg := config.Config{
		Database: config.DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Cache:    config.CacheConfig{Enabled: true, TTLSec: 30},
	}
	if n := len(catalogOptions(cfg, zap.NewNop())); n != base+3 {
		t.Errorf("expected redis, readiness and cache options, got %d extra", n-base)
	}
}
