package domain

import "errors"

var (
	// ErrIngestion signals an unreadable or unparseable source document.
	ErrIngestion = errors.New("ingestion failed")
	// ErrEmbeddingProvider signals an embedding service failure after retries.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrDimensionMismatch signals a query embedder incompatible with the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrZeroVector signals a zero-norm vector, which cosine similarity cannot rank.
	ErrZeroVector = errors.New("zero vector")
	// ErrIndexNotFound signals a missing or unconfigured index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrEntryNotFound signals a missing index entry.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrUpstreamTimeout signals a generation or embedding call that exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUpstreamService signals a generation service failure after retries.
	ErrUpstreamService = errors.New("upstream service error")
	// ErrGenerationParse signals model output that did not match the expected structure.
	ErrGenerationParse = errors.New("generation output parse error")
	// ErrBuildInProgress signals a concurrent rebuild of the same index name.
	ErrBuildInProgress = errors.New("index build already in progress")
)
