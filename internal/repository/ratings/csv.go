package ratings

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/config"
	"github.com/pathwise-ai/pathwise/internal/domain"
)

// columnMap holds resolved header positions; -1 means absent.
type columnMap struct {
	professor int
	course    int
	score     int
	reviews   int
	tags      int
}

func loadCSV(path string, cols config.ColumnAliases, log *zap.Logger) ([]domain.ProfessorRating, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIngestion, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1 // ragged exports are common, missing cells read as empty

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrIngestion, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrIngestion, path)
	}

	cm, err := resolveColumns(records[0], cols)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIngestion, path, err)
	}

	rows := make([]domain.ProfessorRating, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := rowFromRecord(record, cm)
		if err != nil {
			log.Warn("ratings row skipped",
				zap.String("path", path), zap.Int("line", i+2), zap.Error(err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func resolveColumns(header []string, cols config.ColumnAliases) (columnMap, error) {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		byName[name] = i
	}

	find := func(aliases []string) int {
		for _, alias := range aliases {
			if i, ok := byName[strings.ToLower(alias)]; ok {
				return i
			}
		}
		return -1
	}

	cm := columnMap{
		professor: find(cols.Professor),
		course:    find(cols.Course),
		score:     find(cols.Score),
		reviews:   find(cols.Reviews),
		tags:      find(cols.Tags),
	}
	if cm.professor < 0 {
		return cm, fmt.Errorf("no professor column (tried %v)", cols.Professor)
	}
	if cm.course < 0 {
		return cm, fmt.Errorf("no course column (tried %v)", cols.Course)
	}
	if cm.score < 0 {
		return cm, fmt.Errorf("no score column (tried %v)", cols.Score)
	}
	return cm, nil
}

func rowFromRecord(record []string, cm columnMap) (domain.ProfessorRating, error) {
	at := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return record[i]
	}

	score, err := parseScore(at(cm.score))
	if err != nil {
		return domain.ProfessorRating{}, fmt.Errorf("bad score %q: %w", at(cm.score), err)
	}

	row := domain.ProfessorRating{
		Professor:  at(cm.professor),
		CourseCode: at(cm.course),
		Score:      score,
		Tags:       parseTags(at(cm.tags)),
	}
	if raw := strings.TrimSpace(at(cm.reviews)); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			row.ReviewCount = n
		}
	}
	return row, nil
}
