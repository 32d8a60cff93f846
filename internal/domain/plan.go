package domain

// UserProfile scopes a request to a student's program and history.
// Constructed per request, never persisted.
type UserProfile struct {
	Program          string
	Degree           string
	CatalogYear      int
	TargetGraduation string
	CompletedCourses []string
	Preference       string // e.g. "best_professors", "balanced"
}

// Filter derives the retrieval filter from the profile's scoping fields.
func (p UserProfile) Filter() Filter {
	return Filter{Program: p.Program, Degree: p.Degree, CatalogYear: p.CatalogYear}
}

// PlanRequest asks for a multi-semester course plan.
type PlanRequest struct {
	Profile       UserProfile
	NumSemesters  int
	TargetCredits int // program minimum, a declared input
}

// PlannedCourse is one course slot in a semester.
type PlannedCourse struct {
	CourseCode string  `json:"course_code"`
	CourseName string  `json:"course_name,omitempty"`
	Credits    int     `json:"credits,omitempty"`
	Category   string  `json:"category"` // "core" or "elective"
	Instructor string  `json:"instructor,omitempty"`
	Rating     float64 `json:"rating,omitempty"`
}

// Semester is an ordered grouping of planned courses.
type Semester struct {
	Name    string          `json:"name"`
	Courses []PlannedCourse `json:"courses"`
}

// PlanResponse is the parsed generation output. When the model output could
// not be parsed into the structured shape, Semesters is empty, Notes carries
// the raw text and Degraded is set.
type PlanResponse struct {
	Semesters []Semester `json:"semesters"`
	Notes     []string   `json:"notes"`
	Degraded  bool       `json:"degraded,omitempty"`
}

// Answer is the result of a question-answering request: free text plus the
// ordered citations that backed it.
type Answer struct {
	Text     string
	Sources  []Citation
	Degraded bool
}

// Citation is one attributed evidence source, in rank order.
type Citation struct {
	SourceID    string  `json:"source_id"`
	Program     string  `json:"program"`
	CatalogYear int     `json:"catalog_year"`
	Score       float64 `json:"score"`
}
