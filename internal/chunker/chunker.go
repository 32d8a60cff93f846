// Package chunker splits source documents into overlapping passages.
package chunker

import (
	"fmt"
	"iter"
	"strings"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/domain/course"
)

// Config holds chunking settings. Sizes are in whitespace-delimited tokens.
type Config struct {
	ChunkSize int
	Overlap   int
}

// Chunker produces overlapping chunks from cleaned document text.
// Consecutive chunks share exactly Overlap tokens; the final chunk may be
// shorter than ChunkSize. Tokens are never split.
type Chunker struct {
	size    int
	overlap int
}

// New validates the configuration and creates a Chunker.
func New(cfg Config) (*Chunker, error) {
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.Overlap < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %d", cfg.Overlap)
	}
	if cfg.Overlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("overlap (%d) must be smaller than chunk size (%d)", cfg.Overlap, cfg.ChunkSize)
	}
	return &Chunker{size: cfg.ChunkSize, overlap: cfg.Overlap}, nil
}

// Chunks returns a lazy, restartable sequence of chunks for the document.
// Empty or whitespace-only input yields an empty sequence. Each chunk
// inherits the document provenance and carries the course codes extracted
// from its text.
func (c *Chunker) Chunks(doc domain.SourceDocument) iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		tokens := strings.Fields(doc.Text)
		if len(tokens) == 0 {
			return
		}

		step := c.size - c.overlap
		for start := 0; start < len(tokens); start += step {
			end := min(start+c.size, len(tokens))
			text := strings.Join(tokens[start:end], " ")

			chunk := domain.Chunk{
				Text:        text,
				Offset:      start,
				Length:      end - start,
				Provenance:  doc.Provenance,
				CourseCodes: course.Extract(text),
			}
			if !yield(chunk) {
				return
			}
			if end == len(tokens) {
				return
			}
		}
	}
}

// Count returns the number of chunks the document produces. Deterministic
// for a fixed configuration and input.
func (c *Chunker) Count(doc domain.SourceDocument) int {
	n := 0
	for range c.Chunks(doc) {
		n++
	}
	return n
}
