// Command pathwise-indexer builds the configured indexes offline, so the
// server can attach them at startup instead of re-embedding every source.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/chunker"
	"github.com/pathwise-ai/pathwise/internal/config"
	"github.com/pathwise-ai/pathwise/internal/indexer"
	"github.com/pathwise-ai/pathwise/internal/ingest"
	logpkg "github.com/pathwise-ai/pathwise/internal/logger"
	"github.com/pathwise-ai/pathwise/internal/metrics"
	"github.com/pathwise-ai/pathwise/internal/store"
	storeRedis "github.com/pathwise-ai/pathwise/internal/store/redis"
	"github.com/pathwise-ai/pathwise/internal/transport/openai"
)

func main() {
	envFlag := flag.String("env", "", "config environment (default: ENV or local)")
	indexFlag := flag.String("index", "", "build only the named index (default: all)")
	flag.Parse()

	env := *envFlag
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	indexes := cfg.Indexes
	if *indexFlag != "" {
		indexes = nil
		for _, idx := range cfg.Indexes {
			if idx.Name == *indexFlag {
				indexes = append(indexes, idx)
			}
		}
		if len(indexes) == 0 {
			logger.Fatal("Index not found in config", zap.String("index", *indexFlag))
		}
	}
	if len(indexes) == 0 {
		logger.Fatal("No indexes configured")
	}

	metrics.RegisterUpstreamMetrics()

	ctx := context.Background()
	catalog := store.NewCatalog()

	var target indexer.Target
	switch cfg.Database.Driver {
	case "memory":
		// A memory build dies with the process; only useful as a dry run.
		logger.Warn("Building into the memory driver; the result will not outlive this process")
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
		target = indexer.NewRedisTarget(client, catalog, cfg.Embedding.Dimensions, logger)
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

	summaries, err := builder.BuildAll(ctx, indexes)
	for _, s := range summaries {
		logger.Info("Built index",
			zap.String("index", s.Index),
			zap.Int("sources", s.Sources),
			zap.Int("chunks", s.Chunks),
			zap.Int("skipped", len(s.Skipped)),
		)
		for _, sk := range s.Skipped {
			logger.Warn("Skipped source",
				zap.String("index", s.Index),
				zap.String("path", sk.Path),
				zap.String("reason", sk.Reason),
			)
		}
	}
	if err != nil {
		logger.Error("Index build failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("All indexes built", zap.Int("count", len(summaries)))
}
