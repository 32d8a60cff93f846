package professors

import (
	"testing"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/repository/ratings"
)

func testService() *Service {
	return New(ratings.New([]domain.ProfessorRating{
		{Professor: "Jane Smith", CourseCode: "COMS 4111", Score: 4.5, ReviewCount: 120},
		{Professor: "John Doe", CourseCode: "COMS 4111", Score: 3.9, ReviewCount: 45},
		{Professor: "Ada Lopez", CourseCode: "STAT GR5701", Score: 4.8, ReviewCount: 80},
	}))
}

func TestForCourses(t *testing.T) {
	got := testService().ForCourses([]string{"coms4111", "STAT GR5701", "COMS 9999"})

	if len(got) != 3 {
		t.Fatalf("got %d groups, want 3", len(got))
	}
	if got[0].CourseCode != "COMS 4111" {
		t.Errorf("first code = %q, want normalized COMS 4111", got[0].CourseCode)
	}
	if len(got[0].Ratings) != 2 || got[0].Ratings[0].Professor != "Jane Smith" {
		t.Errorf("unexpected COMS 4111 ratings: %+v", got[0].Ratings)
	}
	if len(got[2].Ratings) != 0 {
		t.Errorf("unknown code should have empty ratings, got %+v", got[2].Ratings)
	}
}

func TestForCourses_DropsDuplicatesAndBlanks(t *testing.T) {
	got := testService().ForCourses([]string{"COMS 4111", "coms 4111", "", "coms4111"})
	if len(got) != 1 {
		t.Errorf("got %d groups, want 1", len(got))
	}
}

func TestBest(t *testing.T) {
	best, ok := testService().Best("stat gr5701")
	if !ok || best.Professor != "Ada Lopez" {
		t.Errorf("best = %+v, want Ada Lopez", best)
	}
	if _, ok := testService().Best("COMS 9999"); ok {
		t.Error("expected no best professor for unknown code")
	}
}
