package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/store"
)

var returnFields = []string{
	"__vector_score", "text", "source_id", "source_url",
	"program", "degree", "catalog_year", "course_codes",
}

// Query runs a KNN vector search via FT.SEARCH, pre-filtered by provenance.
func (s *Store) Query(
	ctx context.Context, vector []float32, topK int, filter domain.Filter,
) (domain.RetrievalResult, error) {
	if err := store.ValidateVector(vector, s.dims); err != nil {
		return domain.RetrievalResult{}, err
	}
	if topK <= 0 {
		return domain.RetrievalResult{}, fmt.Errorf("topK must be positive")
	}

	knnPart := fmt.Sprintf("[KNN %d @vector $BLOB]", topK)
	var queryStr string
	if filterStr := buildFilter(filter); filterStr != "" {
		queryStr = fmt.Sprintf("(%s)=>%s", filterStr, knnPart)
	} else {
		queryStr = fmt.Sprintf("*=>%s", knnPart)
	}

	args := []string{s.ftIndex, queryStr}
	args = append(args, "RETURN", strconv.Itoa(len(returnFields)))
	args = append(args, returnFields...)
	args = append(args,
		"SORTBY", "__vector_score",
		"LIMIT", "0", strconv.Itoa(topK),
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	)

	cmd := s.client.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.client.do(ctx, cmd).ToArray()
	if err != nil {
		return domain.RetrievalResult{}, s.searchErr(err)
	}

	evidence, err := parseKNNResult(raw)
	if err != nil {
		return domain.RetrievalResult{}, err
	}

	// Redis already orders by distance; the stable re-sort pins down tie
	// order so both backends rank identically.
	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].Score > evidence[j].Score
	})
	if len(evidence) > topK {
		evidence = evidence[:topK]
	}

	return domain.RetrievalResult{Evidence: evidence}, nil
}

func parseKNNResult(raw []rueidis.RedisMessage) ([]domain.Evidence, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	evidence := make([]domain.Evidence, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		evidence = append(evidence, evidenceFromFields(key, parseFieldPairs(fields)))
	}

	return evidence, nil
}

func evidenceFromFields(docKey string, fields map[string]string) domain.Evidence {
	ev := domain.Evidence{
		// Entry key is the last segment of the generation-scoped doc key.
		Key:  docKey[strings.LastIndexByte(docKey, ':')+1:],
		Text: fields["text"],
		Provenance: domain.Provenance{
			SourceID:  fields["source_id"],
			SourceURL: fields["source_url"],
			Program:   fields["program"],
			Degree:    fields["degree"],
		},
	}

	if year, err := strconv.Atoi(fields["catalog_year"]); err == nil {
		ev.Provenance.CatalogYear = year
	}
	if codes := fields["course_codes"]; codes != "" {
		ev.CourseCodes = strings.Split(codes, "|")
	}
	if scoreStr, ok := fields["__vector_score"]; ok {
		if dist, err := strconv.ParseFloat(scoreStr, 64); err == nil {
			ev.Score = max(0, 1.0-dist) // cosine distance → similarity, clamped to [0,1]
		}
	}

	return ev
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// buildFilter translates a provenance filter into an FT.SEARCH pre-filter.
// All set fields are ANDed, matching the memory backend's conjunction.
func buildFilter(f domain.Filter) string {
	if f.IsEmpty() {
		return ""
	}

	var parts []string
	if f.Program != "" {
		parts = append(parts, buildTagFilter("program", f.Program))
	}
	if f.Degree != "" {
		parts = append(parts, buildTagFilter("degree", f.Degree))
	}
	if f.CatalogYear != 0 {
		parts = append(parts, fmt.Sprintf("@catalog_year:[%d %d]", f.CatalogYear, f.CatalogYear))
	}
	return strings.Join(parts, " ")
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
