package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pathwise-ai/pathwise/internal/domain"
)

// NoEvidenceContext is handed to the generator when retrieval finds nothing,
// so the model declines instead of inventing requirements.
const NoEvidenceContext = "No relevant information was found in the indexed degree catalogs."

// overfetchFactor widens the KNN candidate set so the min-similarity cut
// still leaves topK survivors when borderline hits dominate.
const overfetchFactor = 2

// Service answers "which chunks back this question" over the published indexes.
type Service struct {
	catalog       Catalog
	embed         Embedder
	defaultTopK   int
	minSimilarity float64
}

// Config wires a retrieval service.
type Config struct {
	Catalog       Catalog
	Embedder      Embedder
	TopK          int
	MinSimilarity float64
}

// New creates a retrieval service.
func New(cfg Config) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Service{
		catalog:       cfg.Catalog,
		embed:         cfg.Embedder,
		defaultTopK:   cfg.TopK,
		minSimilarity: cfg.MinSimilarity,
	}, nil
}

// Retrieve embeds the query and returns the topK best chunks from the named
// index, scoped by filter and cut at the min-similarity threshold. topK <= 0
// falls back to the configured default.
func (s *Service) Retrieve(
	ctx context.Context, index, query string, filter domain.Filter, topK int,
) (domain.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return domain.RetrievalResult{}, fmt.Errorf("query is required")
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	handle, ok := s.catalog.Get(index)
	if !ok {
		return domain.RetrievalResult{}, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, index)
	}
	st := handle.Load()

	embRes, err := s.embed.Embed(ctx, query)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("vectorize query: %w", err)
	}

	res, err := st.Query(ctx, embRes.Embedding, topK*overfetchFactor, filter)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("query index %s: %w", index, err)
	}

	if s.minSimilarity > 0 {
		kept := res.Evidence[:0]
		for _, ev := range res.Evidence {
			if ev.Score >= s.minSimilarity {
				kept = append(kept, ev)
			}
		}
		res.Evidence = kept
	}

	return res.TruncatedTo(topK), nil
}

// Indexes lists the queryable index names.
func (s *Service) Indexes() []string {
	return s.catalog.Names()
}

// FormatContext renders evidence as a numbered, source-attributed context
// block for the generator prompt.
func FormatContext(res domain.RetrievalResult) string {
	if res.IsEmpty() {
		return NoEvidenceContext
	}

	var b strings.Builder
	for i, ev := range res.Evidence {
		fmt.Fprintf(&b, "[Source %d: %s]\n%s\n\n", i+1, sourceLabel(ev.Provenance), ev.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Citations maps evidence to its rank-ordered attribution list.
func Citations(res domain.RetrievalResult) []domain.Citation {
	if res.IsEmpty() {
		return nil
	}
	citations := make([]domain.Citation, len(res.Evidence))
	for i, ev := range res.Evidence {
		citations[i] = domain.Citation{
			SourceID:    ev.Provenance.SourceID,
			Program:     ev.Provenance.Program,
			CatalogYear: ev.Provenance.CatalogYear,
			Score:       ev.Score,
		}
	}
	return citations
}

func sourceLabel(p domain.Provenance) string {
	var parts []string
	if p.Program != "" {
		parts = append(parts, p.Program)
	}
	if p.CatalogYear != 0 {
		parts = append(parts, strconv.Itoa(p.CatalogYear))
	}
	if p.SourceID != "" {
		parts = append(parts, p.SourceID)
	}
	if len(parts) == 0 {
		return "unknown source"
	}
	return strings.Join(parts, ", ")
}
