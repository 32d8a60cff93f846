package retrieval

import (
	"context"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/store"
)

// Catalog resolves a published index by name.
type Catalog interface {
	Get(name string) (*store.Handle, bool)
	Names() []string
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	Dimensions() int
}
