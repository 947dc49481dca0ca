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

	"github.com/kailas-cloud/vecsync/internal/config"
	dbRedis "github.com/kailas-cloud/vecsync/internal/db/redis"
	"github.com/kailas-cloud/vecsync/internal/domain/account"
	logpkg "github.com/kailas-cloud/vecsync/internal/logger"
	"github.com/kailas-cloud/vecsync/internal/metrics"
	connectionrepo "github.com/kailas-cloud/vecsync/internal/repository/connection"
	credentialrepo "github.com/kailas-cloud/vecsync/internal/repository/credential"
	staterepo "github.com/kailas-cloud/vecsync/internal/repository/syncstate"
	userrepo "github.com/kailas-cloud/vecsync/internal/repository/user"
	chiTransport "github.com/kailas-cloud/vecsync/internal/transport/chi"
	"github.com/kailas-cloud/vecsync/internal/transport/chroma"
	"github.com/kailas-cloud/vecsync/internal/transport/connector"
	openaiEmb "github.com/kailas-cloud/vecsync/internal/transport/openai"
	batchuc "github.com/kailas-cloud/vecsync/internal/usecase/batch"
	chunkuc "github.com/kailas-cloud/vecsync/internal/usecase/chunk"
	healthuc "github.com/kailas-cloud/vecsync/internal/usecase/health"
	normalizeuc "github.com/kailas-cloud/vecsync/internal/usecase/normalize"
	predicateuc "github.com/kailas-cloud/vecsync/internal/usecase/predicate"
	syncuc "github.com/kailas-cloud/vecsync/internal/usecase/sync"
	"github.com/kailas-cloud/vecsync/internal/version"
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

	logger.Info("Starting vecsync server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("embedding_enabled", cfg.Embedding.Enabled()),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterSyncMetrics()
	metrics.RegisterEmbeddingMetrics()

	// Repositories
	users := userrepo.New(store, cfg.Storage.KeyPrefix)
	connections := connectionrepo.New(store, cfg.Storage.KeyPrefix)
	credentials := credentialrepo.New(store, connections, cfg.Storage.KeyPrefix)
	states := staterepo.New(store, cfg.Storage.KeyPrefix)

	// Collaborator clients
	records := connector.NewClient(&connector.Config{
		BaseURL:   cfg.Connector.BaseURL,
		SecretKey: cfg.Connector.SecretKey,
		Timeout:   time.Duration(cfg.Connector.TimeoutSec) * time.Second,
		Logger:    logger,
	})
	vectorStore := chroma.NewClient(&chroma.Config{
		BaseURL: cfg.VectorStore.BaseURL,
		Timeout: time.Duration(cfg.VectorStore.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	// Sync orchestrator with configured pipeline sizing
	orchestrator := syncuc.New(
		records,
		credentials,
		&collectionProvider{client: vectorStore},
		users,
		connections,
	).WithPipeline(
		normalizeuc.New(),
		chunkuc.New().
			WithChunkSize(cfg.Sync.ChunkSize).
			WithDocumentBatchSize(cfg.Sync.DocumentBatchSize),
		batchuc.New().WithBatchSize(cfg.Sync.UpsertBatchSize),
		predicateuc.New().
			WithMaxPredicates(cfg.Sync.MaxPredicates).
			WithDeleteKeysPerBatch(cfg.Sync.DeleteKeysPerBatch),
	).WithCollectionName(cfg.VectorStore.CollectionName).
		WithPageLimit(cfg.Connector.PageLimit).
		WithStateRecorder(states)

	healthSvc := healthuc.New(store)

	if cfg.Embedding.Enabled() {
		embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
		orchestrator.WithEmbedder(embedder)
		healthSvc.WithEmbedding(embedder)
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	// Dispatcher decouples webhook acknowledgment from processing
	dispatcher := syncuc.NewDispatcher(orchestrator, logger).
		WithQueueSize(cfg.Sync.QueueSize).
		WithWorkers(cfg.Sync.Workers)
	dispatcher.Start(ctx)

	server := chiTransport.NewServer(dispatcher, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
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

	// Drain accepted deliveries after intake has stopped.
	dispatcher.Stop()

	logger.Info("Server stopped gracefully")
}

// collectionProvider adapts the chroma client to the orchestrator's
// CollectionProvider interface (concrete *chroma.Collection vs the
// sync.Collection interface).
type collectionProvider struct {
	client *chroma.Client
}

func (p *collectionProvider) GetOrCreate(
	ctx context.Context, creds account.Credentials, name string,
) (syncuc.Collection, error) {
	col, err := p.client.GetOrCreate(ctx, creds, name)
	if err != nil {
		return nil, err
	}
	return col, nil
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
