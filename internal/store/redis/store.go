package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/store"
)

// Compile-time check: Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store serves one generation of one named index. Chunks live as JSON
// documents under a generation-scoped key prefix, so a rebuild writes a
// fresh generation and repoints readers without touching the old one.
type Store struct {
	client    *Client
	index     string
	gen       int
	dims      int
	docPrefix string
	ftIndex   string
}

// OpenGeneration opens generation gen of the named index, creating its
// FT index if missing.
func (c *Client) OpenGeneration(ctx context.Context, index string, gen, dims int) (*Store, error) {
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if dims <= 0 {
		return nil, fmt.Errorf("dims must be positive")
	}

	s := &Store{
		client:    c,
		index:     index,
		gen:       gen,
		dims:      dims,
		docPrefix: fmt.Sprintf("%s%s:%d:", c.prefix, index, gen),
		ftIndex:   fmt.Sprintf("%s%s:%d:idx", c.prefix, index, gen),
	}
	if err := s.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// document is the JSON shape stored per chunk. CourseCodes is a
// pipe-joined TAG field so the separator never collides with a code.
type document struct {
	Text        string    `json:"text"`
	Vector      []float32 `json:"vector"`
	SourceID    string    `json:"source_id"`
	SourceURL   string    `json:"source_url,omitempty"`
	Program     string    `json:"program,omitempty"`
	Degree      string    `json:"degree,omitempty"`
	CatalogYear int       `json:"catalog_year,omitempty"`
	CourseCodes string    `json:"course_codes,omitempty"`
}

func (s *Store) docKey(entryKey string) string {
	return s.docPrefix + entryKey
}

func (s *Store) upsertCmd(e store.Entry) (rueidis.Completed, error) {
	doc := document{
		Text:        e.Text,
		Vector:      e.Vector,
		SourceID:    e.Provenance.SourceID,
		SourceURL:   e.Provenance.SourceURL,
		Program:     e.Provenance.Program,
		Degree:      e.Provenance.Degree,
		CatalogYear: e.Provenance.CatalogYear,
		CourseCodes: strings.Join(e.CourseCodes, "|"),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return rueidis.Completed{}, fmt.Errorf("marshal document: %w", err)
	}
	return s.client.b().Arbitrary("JSON.SET").
		Keys(s.docKey(e.Key)).Args("$", string(data)).Build(), nil
}

// Upsert writes a single entry, replacing any previous document at its key.
func (s *Store) Upsert(ctx context.Context, e store.Entry) error {
	if err := store.ValidateVector(e.Vector, s.dims); err != nil {
		return err
	}
	cmd, err := s.upsertCmd(e)
	if err != nil {
		return err
	}
	if err := s.client.do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("upsert %s: %w", e.Key, err)
	}
	return nil
}

// UpsertBatch pipelines the whole batch in one round trip.
func (s *Store) UpsertBatch(ctx context.Context, entries []store.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	// Validate the whole batch before touching the client, so a bad entry
	// anywhere rejects the batch without a partial write.
	for _, e := range entries {
		if err := store.ValidateVector(e.Vector, s.dims); err != nil {
			return fmt.Errorf("entry %s: %w", e.Key, err)
		}
	}

	cmds := make(rueidis.Commands, 0, len(entries))
	for _, e := range entries {
		cmd, err := s.upsertCmd(e)
		if err != nil {
			return err
		}
		cmds = append(cmds, cmd)
	}

	for _, res := range s.client.rc.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
	}
	return nil
}

// DeleteBySource removes every chunk ingested from the given source.
// Pages through matching keys so large catalogs do not need one huge reply.
func (s *Store) DeleteBySource(ctx context.Context, sourceID string) error {
	query := fmt.Sprintf("@source_id:{%s}", tagEscaper.Replace(sourceID))

	for {
		cmd := s.client.b().Arbitrary("FT.SEARCH").
			Args(s.ftIndex, query, "NOCONTENT", "LIMIT", "0", "1000", "DIALECT", "2").
			Build()
		raw, err := s.client.do(ctx, cmd).ToArray()
		if err != nil {
			return s.searchErr(err)
		}
		if len(raw) < 2 {
			return nil
		}

		keys := make([]string, 0, len(raw)-1)
		for _, msg := range raw[1:] {
			key, err := msg.ToString()
			if err != nil {
				continue
			}
			keys = append(keys, key)
		}
		if len(keys) == 0 {
			return nil
		}

		del := s.client.b().Del().Key(keys...).Build()
		if err := s.client.do(ctx, del).Error(); err != nil {
			return fmt.Errorf("delete by source %s: %w", sourceID, err)
		}
	}
}

// Count returns the number of chunks in this generation.
func (s *Store) Count(ctx context.Context) (int, error) {
	cmd := s.client.b().Arbitrary("FT.SEARCH").
		Args(s.ftIndex, "*", "LIMIT", "0", "0").Build()
	raw, err := s.client.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, s.searchErr(err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// Dimensions reports the vector dimensionality this generation was created with.
func (s *Store) Dimensions() int {
	return s.dims
}

// Close is a no-op: the underlying client is shared across generations
// and closed by its owner.
func (s *Store) Close() {}

func (s *Store) searchErr(err error) error {
	if isRedisErr(err, "unknown index name") {
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, s.index)
	}
	return fmt.Errorf("search %s: %w", s.ftIndex, err)
}

func (s *Store) ensureIndex(ctx context.Context) error {
	args := []string{
		s.ftIndex,
		"ON", "JSON",
		"PREFIX", "1", s.docPrefix,
		"SCHEMA",
		"$.text", "AS", "text", "TEXT",
		"$.source_id", "AS", "source_id", "TAG",
		"$.source_url", "AS", "source_url", "TAG",
		"$.program", "AS", "program", "TAG",
		"$.degree", "AS", "degree", "TAG",
		"$.catalog_year", "AS", "catalog_year", "NUMERIC",
		"$.course_codes", "AS", "course_codes", "TAG", "SEPARATOR", "|",
		"$.vector", "AS", "vector", "VECTOR", "FLAT", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.dims),
		"DISTANCE_METRIC", "COSINE",
	}

	cmd := s.client.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.client.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return fmt.Errorf("create index %s: %w", s.ftIndex, err)
	}
	return nil
}
