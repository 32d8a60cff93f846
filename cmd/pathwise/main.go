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

	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/chunker"
	"github.com/pathwise-ai/pathwise/internal/config"
	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/indexer"
	"github.com/pathwise-ai/pathwise/internal/ingest"
	logpkg "github.com/pathwise-ai/pathwise/internal/logger"
	"github.com/pathwise-ai/pathwise/internal/metrics"
	ratingsrepo "github.com/pathwise-ai/pathwise/internal/repository/ratings"
	"github.com/pathwise-ai/pathwise/internal/store"
	storeRedis "github.com/pathwise-ai/pathwise/internal/store/redis"
	chiTransport "github.com/pathwise-ai/pathwise/internal/transport/chi"
	"github.com/pathwise-ai/pathwise/internal/transport/openai"
	answeruc "github.com/pathwise-ai/pathwise/internal/usecase/answer"
	planneruc "github.com/pathwise-ai/pathwise/internal/usecase/planner"
	professorsuc "github.com/pathwise-ai/pathwise/internal/usecase/professors"
	retrievaluc "github.com/pathwise-ai/pathwise/internal/usecase/retrieval"
	"github.com/pathwise-ai/pathwise/internal/version"
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

	logger.Info("Starting pathwise advisor server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Int("indexes", len(cfg.Indexes)),
	)

	if len(cfg.Indexes) == 0 {
		logger.Fatal("No indexes configured")
	}

	// Register upstream metrics explicitly (no init())
	metrics.RegisterUpstreamMetrics()

	ctx := context.Background()
	catalog := store.NewCatalog()

	// Index store target based on driver
	var target indexer.Target
	var health chiTransport.HealthChecker
	switch cfg.Database.Driver {
	case "memory":
		target = indexer.NewMemoryTarget(catalog, cfg.Embedding.Dimensions)
	case "redis":
		client, err := storeRedis.NewClient(storeRedis.Config{
			Addrs:     cfg.Database.Addrs,
			Password:  cfg.Database.Password,
			KeyPrefix: cfg.Database.KeyPrefix,
		})
		if err != nil {
			logger.Fatal("Failed to create redis client", zap.Error(err))
		}
		defer client.Close()

		readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := client.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis")

		target = indexer.NewRedisTarget(client, catalog, cfg.Embedding.Dimensions, logger)
		health = client
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}

	embedder := openai.NewEmbedder(&openai.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	generator := openai.NewGenerator(&openai.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		Timeout:     time.Duration(cfg.Generation.TimeoutSec) * time.Second,
		MaxAttempts: cfg.Generation.MaxAttempts,
		Logger:      logger,
	})
	logger.Info("Upstream clients created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("generation_model", cfg.Generation.Model),
	)

	chk, err := chunker.New(chunker.Config{
		ChunkSize: cfg.Chunking.ChunkSize,
		Overlap:   cfg.Chunking.Overlap,
	})
	if err != nil {
		logger.Fatal("Failed to create chunker", zap.Error(err))
	}

	builder, err := indexer.New(indexer.Config{
		Loader:    ingest.New(logger),
		Chunker:   chk,
		Embedder:  embedder,
		Target:    target,
		BatchSize: cfg.Embedding.MaxBatchSize,
		Workers:   cfg.Embedding.Workers,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("Failed to create index builder", zap.Error(err))
	}

	// Publish each index: attach a previously built one, build otherwise.
	for _, idx := range cfg.Indexes {
		if err := target.Attach(ctx, idx.Name); err == nil {
			logger.Info("Attached existing index", zap.String("index", idx.Name))
			continue
		} else if !errors.Is(err, domain.ErrIndexNotFound) {
			logger.Fatal("Failed to attach index", zap.String("index", idx.Name), zap.Error(err))
		}

		summary, err := builder.Build(ctx, idx)
		if err != nil {
			logger.Fatal("Failed to build index", zap.String("index", idx.Name), zap.Error(err))
		}
		logger.Info("Built index",
			zap.String("index", summary.Index),
			zap.Int("sources", summary.Sources),
			zap.Int("chunks", summary.Chunks),
			zap.Int("skipped", len(summary.Skipped)),
		)
	}

	// Professor ratings (optional)
	var ratings *ratingsrepo.Repo
	if cfg.Ratings.Path != "" {
		ratings, err = ratingsrepo.Load(cfg.Ratings.Path, cfg.Ratings.Columns, logger)
		if err != nil {
			logger.Fatal("Failed to load professor ratings", zap.Error(err))
		}
		logger.Info("Loaded professor ratings", zap.Int("courses", len(ratings.Courses())))
	} else {
		ratings = ratingsrepo.New(nil)
	}

	// Use case services
	retrievalSvc, err := retrievaluc.New(retrievaluc.Config{
		Catalog:       catalog,
		Embedder:      embedder,
		TopK:          cfg.Retrieval.TopK,
		MinSimilarity: cfg.Retrieval.MinSimilarity,
	})
	if err != nil {
		logger.Fatal("Failed to create retrieval service", zap.Error(err))
	}
	professorsSvc := professorsuc.New(ratings)

	// The advisor answers from the first configured index.
	primaryIndex := cfg.Indexes[0].Name
	answerSvc, err := answeruc.New(retrievalSvc, generator, primaryIndex, logger)
	if err != nil {
		logger.Fatal("Failed to create answer service", zap.Error(err))
	}
	plannerSvc, err := planneruc.New(retrievalSvc, generator, professorsSvc, primaryIndex, logger)
	if err != nil {
		logger.Fatal("Failed to create planner service", zap.Error(err))
	}

	server := chiTransport.NewServer(answerSvc, plannerSvc, professorsSvc, health, logger)
	router := chiTransport.NewRouter(server, logger, cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
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
