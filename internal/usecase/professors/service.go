package professors

import (
	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/domain/course"
)

// RatingsReader is the consumer interface over the ratings repository.
type RatingsReader interface {
	ForCourse(code string) []domain.ProfessorRating
	Best(code string) (domain.ProfessorRating, bool)
}

// CourseRatings groups a course's ratings, best score first.
type CourseRatings struct {
	CourseCode string
	Ratings    []domain.ProfessorRating
}

// Service answers professor-rating lookups for course codes.
type Service struct {
	ratings RatingsReader
}

// New creates a professors service.
func New(ratings RatingsReader) *Service {
	return &Service{ratings: ratings}
}

// ForCourses returns ratings per requested course code, preserving request
// order and dropping duplicate codes. Unknown codes come back with an empty
// ratings list rather than an error.
func (s *Service) ForCourses(codes []string) []CourseRatings {
	seen := make(map[string]bool, len(codes))
	result := make([]CourseRatings, 0, len(codes))

	for _, raw := range codes {
		code := course.Normalize(raw)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		result = append(result, CourseRatings{
			CourseCode: code,
			Ratings:    s.ratings.ForCourse(code),
		})
	}
	return result
}

// Best returns the top-rated professor for a course code.
func (s *Service) Best(code string) (domain.ProfessorRating, bool) {
	return s.ratings.Best(code)
}
