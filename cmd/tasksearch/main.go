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

	"github.com/taskmaster-cloud/tasksearch/internal/config"
	dbRedis "github.com/taskmaster-cloud/tasksearch/internal/db/redis"
	logpkg "github.com/taskmaster-cloud/tasksearch/internal/logger"
	"github.com/taskmaster-cloud/tasksearch/internal/metrics"
	embeddingrepo "github.com/taskmaster-cloud/tasksearch/internal/repository/embedding"
	projectrepo "github.com/taskmaster-cloud/tasksearch/internal/repository/project"
	searchrepo "github.com/taskmaster-cloud/tasksearch/internal/repository/search"
	taskrepo "github.com/taskmaster-cloud/tasksearch/internal/repository/task"
	userrepo "github.com/taskmaster-cloud/tasksearch/internal/repository/user"
	chiTransport "github.com/taskmaster-cloud/tasksearch/internal/transport/chi"
	openaiTransport "github.com/taskmaster-cloud/tasksearch/internal/transport/openai"
	assistantuc "github.com/taskmaster-cloud/tasksearch/internal/usecase/assistant"
	healthuc "github.com/taskmaster-cloud/tasksearch/internal/usecase/health"
	indexeruc "github.com/taskmaster-cloud/tasksearch/internal/usecase/indexer"
	searchuc "github.com/taskmaster-cloud/tasksearch/internal/usecase/search"
	taskuc "github.com/taskmaster-cloud/tasksearch/internal/usecase/task"
	"github.com/taskmaster-cloud/tasksearch/internal/version"
)

func main() {
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

	logger.Info("Starting tasksearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Store not ready", zap.Error(err))
	}
	logger.Info("Connected to store")

	metrics.Register()

	// Repositories and their FT indexes.
	tasks := taskrepo.New(store)
	embeddings := embeddingrepo.New(store, cfg.Embedding.Dimensions)
	projects := projectrepo.New(store)
	users := userrepo.New(store)
	candidates := searchrepo.New(store)

	if err := tasks.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create task index", zap.Error(err))
	}
	if err := embeddings.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create embedding index", zap.Error(err))
	}

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:  cfg.Chat.APIKey,
		BaseURL: cfg.Chat.BaseURL,
		Model:   cfg.Chat.Model,
		Logger:  logger,
	})
	logger.Info("Providers created",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("chat_model", cfg.Chat.Model),
	)

	// Use case services.
	searchSvc := searchuc.New(candidates, tasks, embeddings, projects, users, embedder, logger)
	indexSvc := indexeruc.New(embedder, embeddings, logger)

	queue := indexeruc.NewQueue(
		indexSvc,
		cfg.Indexer.Workers,
		time.Duration(cfg.Indexer.EmbedTimeout)*time.Second,
		logger,
	)
	queue.Start()
	defer queue.Stop()

	taskSvc := taskuc.New(tasks, projects, queue, indexSvc, logger)
	assistantSvc := assistantuc.New(searchSvc, completer, logger)
	healthSvc := healthuc.New(store, embedder)

	server := chiTransport.NewServer(taskSvc, searchSvc, assistantSvc, healthSvc, projects, users, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.Tokens, users))
	r.Use(metrics.Middleware())
	server.Mount(r)

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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWith(r.Context(), reqLogger)

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
