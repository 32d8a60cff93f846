package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Provenance identifies the originating document and scope of a chunk.
type Provenance struct {
	SourceID    string
	SourceURL   string
	Program     string
	Degree      string
	CatalogYear int
}

// SourceDocument is a raw ingested document with its provenance.
// Immutable once created.
type SourceDocument struct {
	Text       string
	Provenance Provenance
}

// Chunk is an ordered substring of a SourceDocument. Offset and Length are in
// tokens of the tokenized document, so the chunker can reconstruct the source
// by stripping overlaps.
type Chunk struct {
	Text        string
	Offset      int
	Length      int
	Provenance  Provenance
	CourseCodes []string
}

// Key returns the stable entry key for this chunk, derived from source id and
// offset. Rebuilding with unchanged inputs reproduces the same key.
func (c Chunk) Key() string {
	sum := sha256.Sum256([]byte(c.Provenance.SourceID))
	return fmt.Sprintf("%s-%d", hex.EncodeToString(sum[:6]), c.Offset)
}
