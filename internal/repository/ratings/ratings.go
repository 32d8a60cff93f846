package ratings

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/config"
	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/domain/course"
)

// Repo holds professor ratings in memory, keyed by normalized course code.
// The dataset is small and read-only, so it loads once at startup.
type Repo struct {
	byCourse map[string][]domain.ProfessorRating
}

// Load reads ratings from a CSV or JSON file. Column names are resolved
// through the configured aliases, case-insensitively.
func Load(path string, cols config.ColumnAliases, log *zap.Logger) (*Repo, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		rows []domain.ProfessorRating
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		rows, err = loadJSON(path, cols, log)
	case ".csv":
		rows, err = loadCSV(path, cols, log)
	default:
		return nil, fmt.Errorf("%w: unsupported ratings format %q", domain.ErrIngestion, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	log.Info("ratings loaded", zap.String("path", path), zap.Int("rows", len(rows)))
	return New(rows), nil
}

// New builds a repo from raw rows: normalizes course codes and professor
// names, collapses duplicate (professor, course) pairs to their best score,
// and sorts each course's ratings best-first.
func New(rows []domain.ProfessorRating) *Repo {
	type pairKey struct {
		professor string
		course    string
	}
	best := make(map[pairKey]domain.ProfessorRating, len(rows))
	order := make([]pairKey, 0, len(rows))

	for _, row := range rows {
		professor := cleanName(row.Professor)
		code := course.Normalize(row.CourseCode)
		if professor == "" || code == "" {
			continue
		}
		row.Professor = professor
		row.CourseCode = code

		key := pairKey{professor: strings.ToLower(professor), course: code}
		prev, ok := best[key]
		if !ok {
			best[key] = row
			order = append(order, key)
			continue
		}
		// Duplicate submissions keep the highest score; review counts are
		// per-submission, so take the larger one rather than summing.
		if row.Score > prev.Score || (row.Score == prev.Score && row.ReviewCount > prev.ReviewCount) {
			best[key] = row
		}
	}

	byCourse := make(map[string][]domain.ProfessorRating)
	for _, key := range order {
		row := best[key]
		byCourse[row.CourseCode] = append(byCourse[row.CourseCode], row)
	}
	for code := range byCourse {
		rs := byCourse[code]
		sort.SliceStable(rs, func(i, j int) bool {
			if rs[i].Score != rs[j].Score {
				return rs[i].Score > rs[j].Score
			}
			return rs[i].Professor < rs[j].Professor
		})
	}

	return &Repo{byCourse: byCourse}
}

// ForCourse returns ratings for a course code, best score first.
// Unknown codes yield an empty slice.
func (r *Repo) ForCourse(code string) []domain.ProfessorRating {
	return r.byCourse[course.Normalize(code)]
}

// Best returns the top-rated professor for a course code.
func (r *Repo) Best(code string) (domain.ProfessorRating, bool) {
	rs := r.ForCourse(code)
	if len(rs) == 0 {
		return domain.ProfessorRating{}, false
	}
	return rs[0], true
}

// Courses lists all course codes with at least one rating, sorted.
func (r *Repo) Courses() []string {
	codes := make([]string, 0, len(r.byCourse))
	for code := range r.byCourse {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func cleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func parseTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseScore(raw string) (float64, error) {
	s, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	return s, checkScore(s)
}

// checkScore rejects scores outside the 0-5 rating scale.
func checkScore(s float64) error {
	if s < 0 || s > 5 {
		return fmt.Errorf("score %v out of range [0, 5]", s)
	}
	return nil
}
