// Package store defines the index store contract shared by backends.
//
// A store persists (chunk text, embedding, provenance) entries for one named
// index and answers cosine nearest-neighbor queries with optional provenance
// filtering. Backends must be observably interchangeable: same ranking
// semantics modulo floating-point tolerance.
package store

import (
	"context"
	"fmt"
	"math"

	"github.com/pathwise-ai/pathwise/internal/domain"
)

// Entry is one persisted index entry. Key is stable across rebuilds of
// unchanged sources, so re-upserting overwrites instead of duplicating.
type Entry struct {
	Key         string
	Text        string
	Vector      []float32
	Provenance  domain.Provenance
	CourseCodes []string
}

// Store is the index store contract. Writes to the same key are serialized
// by the backend (last writer wins); writes to distinct keys are safe
// concurrently.
type Store interface {
	Upsert(ctx context.Context, entry Entry) error
	UpsertBatch(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float32, topK int, filter domain.Filter) (domain.RetrievalResult, error)
	DeleteBySource(ctx context.Context, sourceID string) error
	Count(ctx context.Context) (int, error)
	Dimensions() int
	Close()
}

// ValidateVector rejects vectors that cannot be ranked by cosine similarity:
// wrong dimensionality or zero norm.
func ValidateVector(vec []float32, dim int) error {
	if len(vec) != dim {
		return fmt.Errorf("%w: got %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(vec), dim)
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return domain.ErrZeroVector
	}
	return nil
}

// Cosine returns the cosine similarity of two equal-length vectors, clamped
// to [0, 1] to match the distance-derived scores of the FT backend.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return math.Max(0, dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}
