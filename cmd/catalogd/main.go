package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mscatalog/internal/config"
	logpkg "github.com/kailas-cloud/mscatalog/internal/logger"
	"github.com/kailas-cloud/mscatalog/internal/metrics"
	chiTransport "github.com/kailas-cloud/mscatalog/internal/transport/chi"
	healthuc "github.com/kailas-cloud/mscatalog/internal/usecase/health"
	"github.com/kailas-cloud/mscatalog/internal/version"
	"github.com/kailas-cloud/mscatalog/pkg/catalog"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting catalogd",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("engine_driver", cfg.Engine.Driver),
		zap.String("engine_host", cfg.Engine.Host),
		zap.String("engine_core", cfg.Engine.Core),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Register metrics explicitly (no init())
	metrics.Register()

	ctx := context.Background()
	client, err := catalog.Open(ctx, catalogConfig(cfg), catalogOptions(cfg, logger)...)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("Error closing catalog", zap.Error(err))
		}
	}()

	if err := client.Ping(ctx); err != nil {
		// The engine may come up after us; /health reports it until then.
		logger.Warn("Engine not reachable at startup", zap.Error(err))
	} else {
		logger.Info("Connected to engine")
	}

	var store healthuc.Pinger
	if client.HasStore() {
		store = healthuc.PingerFunc(client.PingStore)
	}
	healthSvc := healthuc.New(client, store)

	server := chiTransport.NewServer(client, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(recoverPanics(logger))
	r.Use(accessLog(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func catalogConfig(cfg config.Config) catalog.Config {
	return catalog.Config{
		Driver:    cfg.Engine.Driver,
		Scheme:    cfg.Engine.Scheme,
		Host:      cfg.Engine.Host,
		Port:      cfg.Engine.Port,
		Path:      cfg.Engine.Path,
		Core:      cfg.Engine.Core,
		Timeout:   cfg.Engine.Timeout(),
		BlevePath: cfg.Engine.BlevePath,
		Breaker: catalog.BreakerConfig{
			Name:         "solr",
			MaxRequests:  cfg.Breaker.MaxRequests,
			Interval:     time.Duration(cfg.Breaker.IntervalSec) * time.Second,
			Timeout:      time.Duration(cfg.Breaker.TimeoutSec) * time.Second,
			FailureRatio: cfg.Breaker.FailureRatio,
			MinRequests:  cfg.Breaker.MinRequests,
		},
		PusherPageSize: cfg.Pusher.PageSize,
		PusherTimeout:  cfg.Pusher.Timeout(),
	}
}

func catalogOptions(cfg config.Config, logger *zap.Logger) []catalog.Option {
	opts := []catalog.Option{
		catalog.WithLogger(logger),
		catalog.WithPrometheus(prometheus.DefaultRegisterer),
		catalog.WithEngineMetrics(),
	}
	if cfg.Database.Enabled() {
		opts = append(opts,
			catalog.WithRedis(cfg.Database.Addrs, cfg.Database.Password),
			catalog.WithRedisReadinessTimeout(time.Duration(cfg.Database.ReadinessTimeout)*time.Second),
		)
		if cfg.Cache.Enabled {
			opts = append(opts, catalog.WithQueryCache(cfg.Cache.TTL()))
		}
	}
	return opts
}
