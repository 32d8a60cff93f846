package indexer

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/config"
	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/store"
)

// DocumentLoader reads one source document with its provenance attached.
type DocumentLoader interface {
	Load(path string, prov domain.Provenance) (domain.SourceDocument, error)
}

// Chunker splits a source document into retrievable chunks.
type Chunker interface {
	Chunks(doc domain.SourceDocument) iter.Seq[domain.Chunk]
}

// Target provisions a fresh build store for an index and publishes it for
// reads once the build succeeds.
type Target interface {
	// Open returns an empty store the build writes into.
	Open(ctx context.Context, index string) (store.Store, error)
	// Commit publishes the built store; readers switch atomically.
	Commit(ctx context.Context, index string, s store.Store) error
	// Attach publishes a previously built store without rebuilding.
	// Returns domain.ErrIndexNotFound when nothing was ever built.
	Attach(ctx context.Context, index string) error
}

// Config wires a Builder.
type Config struct {
	Loader    DocumentLoader
	Chunker   Chunker
	Embedder  domain.BatchEmbedder
	Target    Target
	BatchSize int
	Workers   int
	Logger    *zap.Logger
}

// Builder turns a declarative source list into an embedded, queryable index.
// One build per index name runs at a time.
type Builder struct {
	loader    DocumentLoader
	chunker   Chunker
	embedder  domain.BatchEmbedder
	target    Target
	batchSize int
	workers   int
	log       *zap.Logger

	mu       sync.Mutex
	building map[string]bool
}

// New creates a Builder.
func New(cfg Config) (*Builder, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if cfg.Chunker == nil {
		return nil, fmt.Errorf("chunker is required")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if cfg.Target == nil {
		return nil, fmt.Errorf("target is required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Builder{
		loader:    cfg.Loader,
		chunker:   cfg.Chunker,
		embedder:  cfg.Embedder,
		target:    cfg.Target,
		batchSize: cfg.BatchSize,
		workers:   cfg.Workers,
		log:       cfg.Logger,
		building:  make(map[string]bool),
	}, nil
}

// SkippedSource records a source that failed to load during a build.
type SkippedSource struct {
	Path   string
	Reason string
}

// Summary reports what a build did.
type Summary struct {
	Index   string
	Sources int
	Chunks  int
	Skipped []SkippedSource
}

// Build loads, chunks, embeds and stores every source of an index, then
// commits the result. Sources that fail to load are skipped and reported;
// embedding or store failures abort the whole build without committing.
func (b *Builder) Build(ctx context.Context, idx config.IndexConfig) (Summary, error) {
	if err := b.begin(idx.Name); err != nil {
		return Summary{}, err
	}
	defer b.end(idx.Name)

	log := b.log.With(zap.String("index", idx.Name))
	log.Info("index build started", zap.Int("sources", len(idx.Sources)))

	st, err := b.target.Open(ctx, idx.Name)
	if err != nil {
		return Summary{}, fmt.Errorf("open build target for %s: %w", idx.Name, err)
	}

	summary := Summary{Index: idx.Name}

	var (
		chunkCount atomic.Int64
		buildErr   error
		errOnce    sync.Once
		wg         sync.WaitGroup
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fail := func(err error) {
		errOnce.Do(func() {
			buildErr = err
			cancel()
		})
	}

	batches := make(chan []domain.Chunk)
	for range b.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunks := range batches {
				if err := b.embedAndStore(ctx, st, chunks); err != nil {
					fail(err)
					continue
				}
				chunkCount.Add(int64(len(chunks)))
			}
		}()
	}

	buf := make([]domain.Chunk, 0, b.batchSize)
	send := func(chunks []domain.Chunk) bool {
		select {
		case batches <- chunks:
			return true
		case <-ctx.Done():
			return false
		}
	}

produce:
	for _, src := range idx.Sources {
		doc, err := b.loader.Load(src.Path, domain.Provenance{
			SourceID:    src.Path,
			SourceURL:   src.SourceURL,
			Program:     src.Program,
			Degree:      src.Degree,
			CatalogYear: src.CatalogYear,
		})
		if err != nil {
			log.Warn("source skipped", zap.String("path", src.Path), zap.Error(err))
			summary.Skipped = append(summary.Skipped, SkippedSource{Path: src.Path, Reason: err.Error()})
			continue
		}
		summary.Sources++

		for chunk := range b.chunker.Chunks(doc) {
			buf = append(buf, chunk)
			if len(buf) == b.batchSize {
				if !send(buf) {
					break produce
				}
				buf = make([]domain.Chunk, 0, b.batchSize)
			}
		}
	}
	if len(buf) > 0 {
		send(buf)
	}
	close(batches)
	wg.Wait()

	if buildErr != nil {
		return summary, fmt.Errorf("build %s: %w", idx.Name, buildErr)
	}
	summary.Chunks = int(chunkCount.Load())

	if err := b.target.Commit(ctx, idx.Name, st); err != nil {
		return summary, fmt.Errorf("commit %s: %w", idx.Name, err)
	}

	log.Info("index build finished",
		zap.Int("sources", summary.Sources),
		zap.Int("chunks", summary.Chunks),
		zap.Int("skipped", len(summary.Skipped)),
	)
	return summary, nil
}

// BuildAll builds every configured index in order.
func (b *Builder) BuildAll(ctx context.Context, indexes []config.IndexConfig) ([]Summary, error) {
	summaries := make([]Summary, 0, len(indexes))
	for _, idx := range indexes {
		summary, err := b.Build(ctx, idx)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (b *Builder) embedAndStore(ctx context.Context, st store.Store, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	res, err := b.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(res.Embeddings) != len(chunks) {
		return fmt.Errorf("embed batch: got %d vectors for %d chunks", len(res.Embeddings), len(chunks))
	}

	entries := make([]store.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = store.Entry{
			Key:         c.Key(),
			Text:        c.Text,
			Vector:      res.Embeddings[i],
			Provenance:  c.Provenance,
			CourseCodes: c.CourseCodes,
		}
	}
	return st.UpsertBatch(ctx, entries)
}

func (b *Builder) begin(index string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.building[index] {
		return fmt.Errorf("%w: %s", domain.ErrBuildInProgress, index)
	}
	b.building[index] = true
	return nil
}

func (b *Builder) end(index string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.building, index)
}
