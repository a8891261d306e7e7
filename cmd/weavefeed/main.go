package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/permaloom/weavefeed/internal/config"
	"github.com/permaloom/weavefeed/internal/db"
	dbRedis "github.com/permaloom/weavefeed/internal/db/redis"
	"github.com/permaloom/weavefeed/internal/gateway"
	logpkg "github.com/permaloom/weavefeed/internal/logger"
	"github.com/permaloom/weavefeed/internal/metrics"
	"github.com/permaloom/weavefeed/internal/repository/contentcache"
	chiTransport "github.com/permaloom/weavefeed/internal/transport/chi"
	feeduc "github.com/permaloom/weavefeed/internal/usecase/feed"
	healthuc "github.com/permaloom/weavefeed/internal/usecase/health"
	hydrateuc "github.com/permaloom/weavefeed/internal/usecase/hydrate"
	"github.com/permaloom/weavefeed/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting weavefeed API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("gateway_url", cfg.Gateway.URL),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	gw, err := gateway.NewClient(&gateway.Config{
		BaseURL:        cfg.Gateway.URL,
		RequestTimeout: time.Duration(cfg.Gateway.RequestTimeoutSec) * time.Second,
		RateLimit:      cfg.Gateway.RateLimitRPS,
		RateBurst:      cfg.Gateway.RateBurst,
		MaxBodyBytes:   int64(cfg.Gateway.MaxBodyMB) << 20,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("Failed to create gateway client", zap.Error(err))
	}

	// Content cache is optional — without it every payload request hits the
	// gateway. store stays a nil interface when disabled, which also disables
	// the cache health check.
	ctx := context.Background()
	var store db.Store
	var fetcher hydrateuc.ContentFetcher = gw
	if cfg.Cache.Enabled {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))

		fetcher = contentcache.New(gw, store,
			time.Duration(cfg.Cache.TTLHours)*time.Hour,
			metrics.ContentCacheTotal, logger)
	}

	// Create use case services
	hydSvc := hydrateuc.New(fetcher, logger).
		WithConcurrency(cfg.Hydrate.Concurrency).
		WithItemTimeout(time.Duration(cfg.Hydrate.ItemTimeoutSec) * time.Second)
	feedSvc := feeduc.New(gw, hydSvc)
	healthSvc := healthuc.New(gw, store)

	// Create chi server
	server := chiTransport.NewServer(feedSvc, hydSvc, gw, healthSvc, logger).
		WithPageLimits(cfg.Feed.DefaultPageSize, cfg.Feed.MaxPageSize)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
