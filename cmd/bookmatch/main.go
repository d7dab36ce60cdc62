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

	"github.com/kailas-cloud/bookmatch/internal/catalog"
	"github.com/kailas-cloud/bookmatch/internal/config"
	logpkg "github.com/kailas-cloud/bookmatch/internal/logger"
	"github.com/kailas-cloud/bookmatch/internal/metrics"
	chiTransport "github.com/kailas-cloud/bookmatch/internal/transport/chi"
	"github.com/kailas-cloud/bookmatch/internal/transport/groq"
	healthuc "github.com/kailas-cloud/bookmatch/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/bookmatch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/bookmatch/internal/usecase/search"
	"github.com/kailas-cloud/bookmatch/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting bookmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_base_url", cfg.Catalog.BaseURL),
		zap.String("llm_model", cfg.LLM.Model),
	)

	// Register upstream metrics explicitly (no init())
	metrics.RegisterUpstreamMetrics()

	// Upstream clients — composition root
	catalogClient := catalog.NewClient(&catalog.Config{
		BaseURL:            cfg.Catalog.BaseURL,
		CoversBaseURL:      cfg.Catalog.CoversBaseURL,
		Timeout:            time.Duration(cfg.Catalog.TimeoutSec) * time.Second,
		ExcludedTitleTerms: cfg.Recommend.ExcludedTitleTerms,
		Logger:             logger,
	})

	modelClient := groq.NewClient(&groq.Config{
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Logger:    logger,
	})

	// Create use case services
	recommendSvc := recommenduc.New(catalogClient, modelClient, recommenduc.Options{
		SimilarityThreshold:  cfg.Recommend.SimilarityThreshold,
		MaxResults:           cfg.Recommend.MaxResults,
		MaxKeywords:          cfg.Recommend.MaxKeywords,
		LookupLimit:          cfg.Catalog.SearchLimit,
		KeywordSearchLimit:   cfg.Recommend.KeywordSearchLimit,
		MinDescriptionLength: cfg.Recommend.MinDescriptionLength,
	})
	searchSvc := searchuc.New(catalogClient, cfg.Catalog.SearchLimit)
	healthSvc := healthuc.New(catalogClient, modelClient)

	// Create chi server
	server := chiTransport.NewServer(recommendSvc, searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
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

// jsonRecoverer is a recovery middleware that returns the generic JSON error
// instead of a plain text stacktrace.
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
						"error": "Failed to search books",
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
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
