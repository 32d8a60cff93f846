package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/usecase/professors"
)

type fakeAdvisor struct {
	askFn func(ctx context.Context, question string, profile domain.UserProfile, topK int) (domain.Answer, error)
}

func (f *fakeAdvisor) Ask(
	ctx context.Context, question string, profile domain.UserProfile, topK int,
) (domain.Answer, error) {
	return f.askFn(ctx, question, profile, topK)
}

type fakePlanner struct {
	planFn func(ctx context.Context, req domain.PlanRequest) (domain.PlanResponse, error)
}

func (f *fakePlanner) Plan(ctx context.Context, req domain.PlanRequest) (domain.PlanResponse, error) {
	return f.planFn(ctx, req)
}

type fakeProfessorFinder struct {
	forCoursesFn func(codes []string) []professors.CourseRatings
}

func (f *fakeProfessorFinder) ForCourses(codes []string) []professors.CourseRatings {
	if f.forCoursesFn == nil {
		return nil
	}
	return f.forCoursesFn(codes)
}

type fakeHealth struct {
	err error
}

func (f *fakeHealth) Ping(context.Context) error { return f.err }

func testRouter(t *testing.T, advisor Advisor, planner Planner, profs ProfessorFinder, health HealthChecker) http.Handler {
	t.Helper()
	server := NewServer(advisor, planner, profs, health, zap.NewNop())
	return NewRouter(server, zap.NewNop(), nil)
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAsk_Success(t *testing.T) {
	advisor := &fakeAdvisor{
		askFn: func(_ context.Context, question string, profile domain.UserProfile, topK int) (domain.Answer, error) {
			if question != "what courses are required?" {
				t.Errorf("unexpected question: %q", question)
			}
			if profile.Program != "MS Data Science" || profile.CatalogYear != 2023 {
				t.Errorf("unexpected profile: %+v", profile)
			}
			if topK != 3 {
				t.Errorf("topK = %d, want 3", topK)
			}
			return domain.Answer{
				Text: "STAT GR5701 is required [Source 1].",
				Sources: []domain.Citation{
					{SourceID: "ms_ds.pdf", Program: "MS Data Science", CatalogYear: 2023, Score: 0.91},
				},
			}, nil
		},
	}
	h := testRouter(t, advisor, &fakePlanner{}, &fakeProfessorFinder{}, nil)

	rr := postJSON(t, h, "/ask", `{
		"question": "what courses are required?",
		"profile": {"program": "MS Data Science", "catalog_year": 2023},
		"top_k": 3
	}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp askResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.Answer, "STAT GR5701") {
		t.Errorf("unexpected answer: %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].SourceID != "ms_ds.pdf" {
		t.Errorf("unexpected sources: %+v", resp.Sources)
	}
}

func TestAsk_Validation(t *testing.T) {
	h := testRouter(t, &fakeAdvisor{}, &fakePlanner{}, &fakeProfessorFinder{}, nil)

	cases := map[string]string{
		"malformed body":   `{"question": `,
		"missing question": `{"profile": {"program": "MS"}}`,
		"blank question":   `{"question": "   "}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := postJSON(t, h, "/ask", body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestAsk_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown index", fmt.Errorf("%w: catalogs", domain.ErrIndexNotFound), http.StatusNotFound, "index_not_found"},
		{"embedding down", fmt.Errorf("%w: 503", domain.ErrEmbeddingProvider), http.StatusBadGateway, "embedding_provider_error"},
		{"generation down", fmt.Errorf("%w: 503", domain.ErrUpstreamService), http.StatusBadGateway, "upstream_error"},
		{"upstream timeout", fmt.Errorf("request timed out: %w", domain.ErrUpstreamTimeout), http.StatusGatewayTimeout, "upstream_timeout"},
		{"unexpected", fmt.Errorf("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			advisor := &fakeAdvisor{
				askFn: func(context.Context, string, domain.UserProfile, int) (domain.Answer, error) {
					return domain.Answer{}, tc.err
				},
			}
			h := testRouter(t, advisor, &fakePlanner{}, &fakeProfessorFinder{}, nil)

			rr := postJSON(t, h, "/ask", `{"question": "q"}`)
			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			var resp errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tc.wantCode)
			}
			if tc.wantStatus == http.StatusInternalServerError && resp.Message != "internal error" {
				t.Errorf("internal details leaked: %q", resp.Message)
			}
		})
	}
}

func TestPlan_Success(t *testing.T) {
	planner := &fakePlanner{
		planFn: func(_ context.Context, req domain.PlanRequest) (domain.PlanResponse, error) {
			if req.Profile.Program != "MS Data Science" || req.NumSemesters != 2 || req.TargetCredits != 30 {
				t.Errorf("unexpected request: %+v", req)
			}
			return domain.PlanResponse{
				Semesters: []domain.Semester{
					{Name: "Fall 2026", Courses: []domain.PlannedCourse{
						{CourseCode: "STAT GR5701", Credits: 3, Category: "core", Instructor: "Jane Smith", Rating: 4.5},
					}},
				},
				Notes: []string{"Assumes you pass all courses."},
			}, nil
		},
	}
	h := testRouter(t, &fakeAdvisor{}, planner, &fakeProfessorFinder{}, nil)

	rr := postJSON(t, h, "/plan", `{
		"profile": {"program": "MS Data Science", "catalog_year": 2023},
		"num_semesters": 2,
		"target_credits": 30
	}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp domain.PlanResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Semesters) != 1 || resp.Semesters[0].Courses[0].Instructor != "Jane Smith" {
		t.Errorf("unexpected plan: %+v", resp)
	}
}

func TestPlan_DegradedPassesThrough(t *testing.T) {
	planner := &fakePlanner{
		planFn: func(context.Context, domain.PlanRequest) (domain.PlanResponse, error) {
			return domain.PlanResponse{Notes: []string{"raw model output"}, Degraded: true}, nil
		},
	}
	h := testRouter(t, &fakeAdvisor{}, planner, &fakeProfessorFinder{}, nil)

	rr := postJSON(t, h, "/plan", `{"profile": {"program": "MS Data Science"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp domain.PlanResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Degraded || len(resp.Notes) != 1 {
		t.Errorf("degraded plan not passed through: %+v", resp)
	}
}

func TestPlan_MissingProgram(t *testing.T) {
	h := testRouter(t, &fakeAdvisor{}, &fakePlanner{}, &fakeProfessorFinder{}, nil)

	rr := postJSON(t, h, "/plan", `{"num_semesters": 2}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestProfessors_Success(t *testing.T) {
	profs := &fakeProfessorFinder{
		forCoursesFn: func(codes []string) []professors.CourseRatings {
			if len(codes) != 2 {
				t.Errorf("codes = %v", codes)
			}
			return []professors.CourseRatings{
				{CourseCode: "COMS 4111", Ratings: []domain.ProfessorRating{
					{Professor: "Jane Smith", Score: 4.5, ReviewCount: 31, Tags: []string{"clear lectures", "fair exams"}},
				}},
				{CourseCode: "STAT GR5701", Ratings: []domain.ProfessorRating{}},
			}
		},
	}
	h := testRouter(t, &fakeAdvisor{}, &fakePlanner{}, profs, nil)

	rr := postJSON(t, h, "/professors", `{"course_codes": ["COMS 4111", "STAT GR5701"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp professorsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Courses) != 2 {
		t.Fatalf("courses = %d, want 2", len(resp.Courses))
	}
	if resp.Courses[0].Ratings[0].Professor != "Jane Smith" {
		t.Errorf("unexpected ratings: %+v", resp.Courses[0])
	}
	if tags := resp.Courses[0].Ratings[0].Tags; len(tags) != 2 || tags[0] != "clear lectures" {
		t.Errorf("unexpected tags: %v", tags)
	}
	if len(resp.Courses[1].Ratings) != 0 {
		t.Errorf("unrated course should have empty list: %+v", resp.Courses[1])
	}
}

func TestProfessors_EmptyCodes(t *testing.T) {
	h := testRouter(t, &fakeAdvisor{}, &fakePlanner{}, &fakeProfessorFinder{}, nil)

	rr := postJSON(t, h, "/professors", `{"course_codes": []}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHealthz(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := testRouter(t, &fakeAdvisor{}, &fakePlanner{}, &fakeProfessorFinder{}, &fakeHealth{})
		req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
		}
	})

	t.Run("backend down", func(t *testing.T) {
		h := testRouter(t, &fakeAdvisor{}, &fakePlanner{}, &fakeProfessorFinder{},
			&fakeHealth{err: fmt.Errorf("connection refused")})
		req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
		}
	})

	t.Run("no checker", func(t *testing.T) {
		h := testRouter(t, &fakeAdvisor{}, &fakePlanner{}, &fakeProfessorFinder{}, nil)
		req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
		}
	})
}

func TestRequestIDPropagated(t *testing.T) {
	h := testRouter(t, &fakeAdvisor{}, &fakePlanner{}, &fakeProfessorFinder{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestRecovererReturnsJSON(t *testing.T) {
	advisor := &fakeAdvisor{
		askFn: func(context.Context, string, domain.UserProfile, int) (domain.Answer, error) {
			panic("boom")
		},
	}
	h := testRouter(t, advisor, &fakePlanner{}, &fakeProfessorFinder{}, nil)

	rr := postJSON(t, h, "/ask", `{"question": "q"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("panic response is not JSON: %v", err)
	}
	if resp["code"] != "internal_error" {
		t.Errorf("unexpected panic response: %v", resp)
	}
}
