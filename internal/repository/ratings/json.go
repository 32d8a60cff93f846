package ratings

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/config"
	"github.com/pathwise-ai/pathwise/internal/domain"
)

func loadJSON(path string, cols config.ColumnAliases, log *zap.Logger) ([]domain.ProfessorRating, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIngestion, path, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrIngestion, path, err)
	}

	rows := make([]domain.ProfessorRating, 0, len(records))
	for i, record := range records {
		row, err := rowFromObject(record, cols)
		if err != nil {
			log.Warn("ratings record skipped",
				zap.String("path", path), zap.Int("record", i), zap.Error(err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func rowFromObject(record map[string]any, cols config.ColumnAliases) (domain.ProfessorRating, error) {
	lower := make(map[string]any, len(record))
	for k, v := range record {
		lower[strings.ToLower(k)] = v
	}

	find := func(aliases []string) any {
		for _, alias := range aliases {
			if v, ok := lower[strings.ToLower(alias)]; ok {
				return v
			}
		}
		return nil
	}

	professor, _ := find(cols.Professor).(string)
	courseCode, _ := find(cols.Course).(string)

	var score float64
	switch v := find(cols.Score).(type) {
	case float64:
		if err := checkScore(v); err != nil {
			return domain.ProfessorRating{}, err
		}
		score = v
	case string:
		parsed, err := parseScore(v)
		if err != nil {
			return domain.ProfessorRating{}, fmt.Errorf("bad score %q: %w", v, err)
		}
		score = parsed
	default:
		return domain.ProfessorRating{}, fmt.Errorf("missing score")
	}

	row := domain.ProfessorRating{
		Professor:  professor,
		CourseCode: courseCode,
		Score:      score,
	}

	if n, ok := find(cols.Reviews).(float64); ok {
		row.ReviewCount = int(n)
	}

	switch tags := find(cols.Tags).(type) {
	case string:
		row.Tags = parseTags(tags)
	case []any:
		for _, t := range tags {
			if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
				row.Tags = append(row.Tags, strings.TrimSpace(s))
			}
		}
	}

	return row, nil
}
