package planner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/usecase/professors"
	"github.com/pathwise-ai/pathwise/internal/usecase/retrieval"
)

// Retriever finds requirement evidence for a program.
type Retriever interface {
	Retrieve(ctx context.Context, index, query string, filter domain.Filter, topK int) (domain.RetrievalResult, error)
}

// Generator produces planning text from a system and user message.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// ProfessorFinder looks up ratings for the course codes seen in evidence.
type ProfessorFinder interface {
	ForCourses(codes []string) []professors.CourseRatings
}

const (
	defaultNumSemesters = 4
	// Requirement retrieval for planning casts a wider net than QA: the
	// plan needs the whole requirement picture, not just the best match.
	planningTopK = 10
)

// Service builds multi-semester course plans from retrieved requirements
// and professor ratings.
type Service struct {
	retriever  Retriever
	generator  Generator
	professors ProfessorFinder
	index      string
	log        *zap.Logger
}

// New creates a planner service reading from the named index.
func New(retriever Retriever, generator Generator, profs ProfessorFinder, index string, log *zap.Logger) (*Service, error) {
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if profs == nil {
		return nil, fmt.Errorf("professor finder is required")
	}
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		retriever:  retriever,
		generator:  generator,
		professors: profs,
		index:      index,
		log:        log,
	}, nil
}

const noRequirementsNote = "No degree requirement information was found in the indexed catalogs " +
	"for this program. Please contact your official academic advisor."

// Plan retrieves requirement evidence scoped to the student's program,
// gathers ratings for the courses that evidence mentions, and asks the
// generator for a structured semester plan. Unparseable model output
// degrades to a notes-only response rather than failing the request.
func (s *Service) Plan(ctx context.Context, req domain.PlanRequest) (domain.PlanResponse, error) {
	if req.NumSemesters <= 0 {
		req.NumSemesters = defaultNumSemesters
	}

	query := requirementsQuery(req.Profile)
	res, err := s.retriever.Retrieve(ctx, s.index, query, req.Profile.Filter(), planningTopK)
	if err != nil {
		return domain.PlanResponse{}, err
	}

	if res.IsEmpty() {
		s.log.Info("no requirement evidence for plan",
			zap.String("index", s.index),
			zap.String("program", req.Profile.Program))
		return domain.PlanResponse{Notes: []string{noRequirementsNote}, Degraded: true}, nil
	}

	ratings := s.professors.ForCourses(res.CourseCodes())

	text, err := s.generator.Generate(ctx, planningSystem, buildPlanUser(req, res, ratings))
	if err != nil {
		return domain.PlanResponse{}, fmt.Errorf("generate plan: %w", err)
	}

	plan, err := parsePlan(text)
	if err != nil {
		s.log.Warn("plan output not parseable, degrading to notes", zap.Error(err))
		return domain.PlanResponse{Notes: []string{strings.TrimSpace(text)}, Degraded: true}, nil
	}
	return plan, nil
}

func requirementsQuery(p domain.UserProfile) string {
	program := p.Program
	if program == "" {
		program = "the degree program"
	}
	return fmt.Sprintf("degree requirements, core courses, and electives for %s", program)
}

func buildPlanUser(req domain.PlanRequest, res domain.RetrievalResult, ratings []professors.CourseRatings) string {
	p := req.Profile
	var b strings.Builder

	b.WriteString("User Profile:\n")
	b.WriteString("- Program: " + orNotSpecified(p.Program) + "\n")
	year := ""
	if p.CatalogYear != 0 {
		year = strconv.Itoa(p.CatalogYear)
	}
	b.WriteString("- Catalog Year: " + orNotSpecified(year) + "\n")
	b.WriteString("- Target Graduation: " + orNotSpecified(p.TargetGraduation) + "\n")
	b.WriteString("- Completed Courses: " + orNotSpecified(strings.Join(p.CompletedCourses, ", ")) + "\n")
	pref := p.Preference
	if pref == "" {
		pref = "balanced"
	}
	b.WriteString("- Preferences: " + pref + "\n")

	b.WriteString("\nDegree Requirements:\n")
	b.WriteString(retrieval.FormatContext(res))
	b.WriteString("\n")

	b.WriteString("\nProfessor Ratings:\n")
	b.WriteString(formatRatings(ratings))
	b.WriteString("\n")

	b.WriteString("\nTask:\n")
	fmt.Fprintf(&b, "Create a course plan spanning exactly %d semesters", req.NumSemesters)
	if req.TargetCredits > 0 {
		fmt.Fprintf(&b, " totaling at least %d credits", req.TargetCredits)
	}
	b.WriteString(". Select the best-rated professors when possible.\n")
	b.WriteString("Provide your response in two parts:\n")
	b.WriteString("1. Natural language explanation of your plan\n")
	b.WriteString("2. JSON structure with the detailed plan\n\n")
	b.WriteString("Ensure the plan satisfies all degree requirements.")
	return b.String()
}

// formatRatings renders the professor block of the planning prompt. Courses
// without ratings are listed as such so the model does not invent names.
func formatRatings(ratings []professors.CourseRatings) string {
	if len(ratings) == 0 {
		return "No professor ratings available."
	}

	var b strings.Builder
	for _, cr := range ratings {
		if len(cr.Ratings) == 0 {
			fmt.Fprintf(&b, "- %s: no ratings available\n", cr.CourseCode)
			continue
		}
		fmt.Fprintf(&b, "- %s:", cr.CourseCode)
		for i, r := range cr.Ratings {
			if i > 0 {
				b.WriteString(";")
			}
			fmt.Fprintf(&b, " %s (%.1f/5.0, %d reviews)", r.Professor, r.Score, r.ReviewCount)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func orNotSpecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}
