// Package ingest loads raw source documents and normalizes their text.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/domain"
)

// Loader reads source files into SourceDocuments. Supported formats: plain
// text, PDF and HTML, dispatched by file extension.
type Loader struct {
	logger *zap.Logger
}

// New creates a Loader.
func New(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads and cleans one source file. Unreadable or unsupported sources
// are reported as domain.ErrIngestion so the build can skip them.
func (l *Loader) Load(path string, prov domain.Provenance) (domain.SourceDocument, error) {
	var (
		text string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		text, err = l.loadText(path)
	case ".pdf":
		text, err = l.loadPDF(path)
	case ".html", ".htm":
		text, err = l.loadHTML(path)
	default:
		return domain.SourceDocument{}, fmt.Errorf(
			"%w: unsupported file type %q for %s", domain.ErrIngestion, filepath.Ext(path), path)
	}
	if err != nil {
		return domain.SourceDocument{}, fmt.Errorf("%w: %s: %w", domain.ErrIngestion, path, err)
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return domain.SourceDocument{}, fmt.Errorf("%w: %s: no extractable text", domain.ErrIngestion, path)
	}

	l.logger.Debug("loaded source",
		zap.String("path", path),
		zap.String("program", prov.Program),
		zap.Int("chars", len(cleaned)),
	)

	if prov.SourceID == "" {
		prov.SourceID = path
	}
	return domain.SourceDocument{Text: cleaned, Provenance: prov}, nil
}

func (l *Loader) loadText(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	softHyphen      = "­"
)

// CleanText collapses runs of whitespace to single spaces and removes soft
// hyphens left by PDF extraction. Chunk reconstruction relies on the single
// space between tokens.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, softHyphen, "")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
