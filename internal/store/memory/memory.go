// Package memory provides a brute-force in-memory index store backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/store"
)

// Compile-time check: Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store keeps entries in insertion order and ranks queries by exact cosine
// similarity. Suitable for small indexes and tests; semantics match the
// redis backend.
type Store struct {
	mu      sync.RWMutex
	dim     int
	entries []store.Entry
	byKey   map[string]int // key -> position in entries
}

// New creates an empty in-memory store for the given dimensionality.
func New(dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dim)
	}
	return &Store{dim: dim, byKey: make(map[string]int)}, nil
}

// Dimensions returns the vector dimensionality of the index.
func (s *Store) Dimensions() int { return s.dim }

// Upsert inserts or overwrites an entry by key. Overwriting keeps the
// original insertion position, so tie-breaking by insertion order is stable
// across rebuilds.
func (s *Store) Upsert(_ context.Context, entry store.Entry) error {
	if entry.Key == "" {
		return fmt.Errorf("entry key is required")
	}
	if err := store.ValidateVector(entry.Vector, s.dim); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if pos, ok := s.byKey[entry.Key]; ok {
		s.entries[pos] = entry
		return nil
	}
	s.byKey[entry.Key] = len(s.entries)
	s.entries = append(s.entries, entry)
	return nil
}

// UpsertBatch inserts or overwrites entries one by one under a single lock
// acquisition per entry; the batch form exists for interface parity, not
// atomicity.
func (s *Store) UpsertBatch(ctx context.Context, entries []store.Entry) error {
	for i := range entries {
		if err := s.Upsert(ctx, entries[i]); err != nil {
			return fmt.Errorf("upsert %q: %w", entries[i].Key, err)
		}
	}
	return nil
}

// Query ranks all matching entries by cosine similarity, non-increasing,
// ties broken by insertion order.
func (s *Store) Query(
	_ context.Context, vector []float32, topK int, filter domain.Filter,
) (domain.RetrievalResult, error) {
	if topK <= 0 {
		return domain.RetrievalResult{}, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if err := store.ValidateVector(vector, s.dim); err != nil {
		return domain.RetrievalResult{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]domain.Evidence, 0, topK)
	for _, entry := range s.entries {
		if !filter.Matches(entry.Provenance) {
			continue
		}
		hits = append(hits, domain.Evidence{
			Key:         entry.Key,
			Text:        entry.Text,
			Provenance:  entry.Provenance,
			CourseCodes: entry.CourseCodes,
			Score:       store.Cosine(vector, entry.Vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return domain.RetrievalResult{Evidence: hits}, nil
}

// DeleteBySource removes all entries originating from one source document.
func (s *Store) DeleteBySource(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, entry := range s.entries {
		if entry.Provenance.SourceID != sourceID {
			kept = append(kept, entry)
		}
	}
	s.entries = kept

	s.byKey = make(map[string]int, len(s.entries))
	for i, entry := range s.entries {
		s.byKey[entry.Key] = i
	}
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close is a no-op for the in-memory backend.
func (s *Store) Close() {}
