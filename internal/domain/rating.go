package domain

// ProfessorRating is one (professor, course) rating record. Names and course
// codes are normalized at load time. Score is on a 0-5 scale.
type ProfessorRating struct {
	Professor   string
	CourseCode  string
	Score       float64
	ReviewCount int
	Tags        []string
}
