package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/store"
	"github.com/pathwise-ai/pathwise/internal/store/memory"
	"github.com/pathwise-ai/pathwise/internal/store/redis"
)

// MemoryTarget builds each index into a fresh in-memory store and publishes
// it through the catalog. Nothing persists, so Attach always reports the
// index missing and callers rebuild at startup.
type MemoryTarget struct {
	catalog *store.Catalog
	dims    int
}

// NewMemoryTarget creates a memory-backed build target.
func NewMemoryTarget(catalog *store.Catalog, dims int) *MemoryTarget {
	return &MemoryTarget{catalog: catalog, dims: dims}
}

func (t *MemoryTarget) Open(_ context.Context, _ string) (store.Store, error) {
	return memory.New(t.dims)
}

func (t *MemoryTarget) Commit(_ context.Context, index string, s store.Store) error {
	if prev := t.catalog.Set(index, s); prev != nil {
		prev.Close()
	}
	return nil
}

func (t *MemoryTarget) Attach(_ context.Context, index string) error {
	return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, index)
}

// RedisTarget builds each index into the next Redis store generation and
// repoints the active-generation key on commit. The superseded generation
// is dropped best-effort after the swap.
type RedisTarget struct {
	client  *redis.Client
	catalog *store.Catalog
	dims    int
	log     *zap.Logger

	mu     sync.Mutex
	opened map[string]openBuild
}

type openBuild struct {
	gen     int
	prevGen int
}

// NewRedisTarget creates a Redis-backed build target.
func NewRedisTarget(client *redis.Client, catalog *store.Catalog, dims int, log *zap.Logger) *RedisTarget {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisTarget{
		client:  client,
		catalog: catalog,
		dims:    dims,
		log:     log,
		opened:  make(map[string]openBuild),
	}
}

func (t *RedisTarget) Open(ctx context.Context, index string) (store.Store, error) {
	prevGen, err := t.client.ActiveGeneration(ctx, index)
	if err != nil && !errors.Is(err, domain.ErrIndexNotFound) {
		return nil, err
	}
	gen := prevGen + 1

	// A crashed build may have left partial documents at this generation.
	if err := t.client.DropGeneration(ctx, index, gen); err != nil {
		return nil, err
	}

	s, err := t.client.OpenGeneration(ctx, index, gen, t.dims)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.opened[index] = openBuild{gen: gen, prevGen: prevGen}
	t.mu.Unlock()
	return s, nil
}

func (t *RedisTarget) Commit(ctx context.Context, index string, s store.Store) error {
	t.mu.Lock()
	build, ok := t.opened[index]
	delete(t.opened, index)
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("no open build for index %s", index)
	}

	if err := t.client.SetActiveGeneration(ctx, index, build.gen); err != nil {
		return err
	}
	if prev := t.catalog.Set(index, s); prev != nil {
		prev.Close()
	}

	if build.prevGen > 0 {
		if err := t.client.DropGeneration(ctx, index, build.prevGen); err != nil {
			t.log.Warn("failed to drop superseded generation",
				zap.String("index", index), zap.Int("generation", build.prevGen), zap.Error(err))
		}
	}
	return nil
}

func (t *RedisTarget) Attach(ctx context.Context, index string) error {
	gen, err := t.client.ActiveGeneration(ctx, index)
	if err != nil {
		return err
	}
	s, err := t.client.OpenGeneration(ctx, index, gen, t.dims)
	if err != nil {
		return err
	}
	if prev := t.catalog.Set(index, s); prev != nil {
		prev.Close()
	}
	return nil
}
