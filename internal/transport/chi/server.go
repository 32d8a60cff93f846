// Package chi exposes the advisor services over HTTP. Handlers stay thin:
// decode, delegate, encode; orchestration lives in the usecase layer.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/usecase/professors"
)

// Advisor answers degree questions.
type Advisor interface {
	Ask(ctx context.Context, question string, profile domain.UserProfile, topK int) (domain.Answer, error)
}

// Planner builds multi-semester course plans.
type Planner interface {
	Plan(ctx context.Context, req domain.PlanRequest) (domain.PlanResponse, error)
}

// ProfessorFinder looks up professor ratings per course code.
type ProfessorFinder interface {
	ForCourses(codes []string) []professors.CourseRatings
}

// HealthChecker reports backend reachability. Nil checks are skipped.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the advisor API.
type Server struct {
	advisor       Advisor
	planner       Planner
	professors    ProfessorFinder
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	advisor Advisor,
	planner Planner,
	profs ProfessorFinder,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		advisor:    advisor,
		planner:    planner,
		professors: profs,
		health:     health,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, "index_not_found"),
		sentinelHandler(domain.ErrUpstreamTimeout, http.StatusGatewayTimeout, "upstream_timeout"),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrUpstreamService, http.StatusBadGateway, "upstream_error"),
		sentinelHandler(domain.ErrBuildInProgress, http.StatusConflict, "build_in_progress"),
	}
	return s
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type profileRequest struct {
	Program          string   `json:"program"`
	Degree           string   `json:"degree"`
	CatalogYear      int      `json:"catalog_year"`
	TargetGraduation string   `json:"target_graduation"`
	CompletedCourses []string `json:"completed_courses"`
	Preference       string   `json:"preference"`
}

func (p profileRequest) toDomain() domain.UserProfile {
	return domain.UserProfile{
		Program:          p.Program,
		Degree:           p.Degree,
		CatalogYear:      p.CatalogYear,
		TargetGraduation: p.TargetGraduation,
		CompletedCourses: p.CompletedCourses,
		Preference:       p.Preference,
	}
}

type askRequest struct {
	Question string         `json:"question"`
	Profile  profileRequest `json:"profile"`
	TopK     int            `json:"top_k"`
}

type askResponse struct {
	Answer   string            `json:"answer"`
	Sources  []domain.Citation `json:"sources,omitempty"`
	Degraded bool              `json:"degraded,omitempty"`
}

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "question is required")
		return
	}

	answer, err := s.advisor.Ask(r.Context(), req.Question, req.Profile.toDomain(), req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:   answer.Text,
		Sources:  answer.Sources,
		Degraded: answer.Degraded,
	})
}

type planRequest struct {
	Profile       profileRequest `json:"profile"`
	NumSemesters  int            `json:"num_semesters"`
	TargetCredits int            `json:"target_credits"`
}

// Plan handles POST /plan.
func (s *Server) Plan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Profile.Program == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "profile.program is required")
		return
	}
	if req.NumSemesters < 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "num_semesters must not be negative")
		return
	}

	plan, err := s.planner.Plan(r.Context(), domain.PlanRequest{
		Profile:       req.Profile.toDomain(),
		NumSemesters:  req.NumSemesters,
		TargetCredits: req.TargetCredits,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

type professorsRequest struct {
	CourseCodes []string `json:"course_codes"`
}

type professorRating struct {
	Professor   string   `json:"professor"`
	Score       float64  `json:"score"`
	ReviewCount int      `json:"review_count,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type courseRatings struct {
	CourseCode string            `json:"course_code"`
	Ratings    []professorRating `json:"ratings"`
}

type professorsResponse struct {
	Courses []courseRatings `json:"courses"`
}

// Professors handles POST /professors.
func (s *Server) Professors(w http.ResponseWriter, r *http.Request) {
	var req professorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if len(req.CourseCodes) == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "course_codes is required")
		return
	}

	groups := s.professors.ForCourses(req.CourseCodes)

	resp := professorsResponse{Courses: make([]courseRatings, len(groups))}
	for i, g := range groups {
		ratings := make([]professorRating, len(g.Ratings))
		for j, rt := range g.Ratings {
			ratings[j] = professorRating{
				Professor:   rt.Professor,
				Score:       rt.Score,
				ReviewCount: rt.ReviewCount,
				Tags:        rt.Tags,
			}
		}
		resp.Courses[i] = courseRatings{CourseCode: g.CourseCode, Ratings: ratings}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrIndexNotFound,
		domain.ErrUpstreamTimeout,
		domain.ErrEmbeddingProvider,
		domain.ErrUpstreamService,
		domain.ErrBuildInProgress,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
