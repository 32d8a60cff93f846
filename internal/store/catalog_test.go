package store

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/pathwise-ai/pathwise/internal/domain"
)

// stubStore satisfies Store with a distinguishing id.
type stubStore struct {
	id string
}

func (s *stubStore) Upsert(context.Context, Entry) error        { return nil }
func (s *stubStore) UpsertBatch(context.Context, []Entry) error { return nil }
func (s *stubStore) Query(context.Context, []float32, int, domain.Filter) (domain.RetrievalResult, error) {
	return domain.RetrievalResult{}, nil
}
func (s *stubStore) DeleteBySource(context.Context, string) error { return nil }
func (s *stubStore) Count(context.Context) (int, error)           { return 0, nil }
func (s *stubStore) Dimensions() int                              { return 3 }
func (s *stubStore) Close()                                       {}

func TestCatalog_SetAndGet(t *testing.T) {
	c := NewCatalog()

	if _, ok := c.Get("catalogs"); ok {
		t.Error("empty catalog should not resolve any index")
	}

	first := &stubStore{id: "first"}
	if prev := c.Set("catalogs", first); prev != nil {
		t.Errorf("first publish should replace nothing, got %v", prev)
	}

	h, ok := c.Get("catalogs")
	if !ok {
		t.Fatal("published index not resolvable")
	}
	if got := h.Load().(*stubStore).id; got != "first" {
		t.Errorf("handle resolves %q, want first", got)
	}
}

func TestCatalog_SetSwapsHandleInPlace(t *testing.T) {
	c := NewCatalog()
	first := &stubStore{id: "first"}
	second := &stubStore{id: "second"}

	c.Set("catalogs", first)

	// A reader that resolved the handle before the rebuild must observe the
	// new store after the swap without re-resolving.
	held, _ := c.Get("catalogs")

	prev := c.Set("catalogs", second)
	if prev != Store(first) {
		t.Errorf("Set returned %v, want the replaced store", prev)
	}
	if got := held.Load().(*stubStore).id; got != "second" {
		t.Errorf("held handle resolves %q, want second", got)
	}
}

func TestCatalog_Names(t *testing.T) {
	c := NewCatalog()
	c.Set("catalogs", &stubStore{id: "a"})
	c.Set("ratings", &stubStore{id: "b"})

	names := c.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "catalogs" || names[1] != "ratings" {
		t.Errorf("Names() = %v", names)
	}
}

func TestValidateVector(t *testing.T) {
	if err := ValidateVector([]float32{1, 0, 0}, 3); err != nil {
		t.Errorf("valid vector rejected: %v", err)
	}
	if err := ValidateVector([]float32{1, 0}, 3); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if err := ValidateVector([]float32{0, 0, 0}, 3); !errors.Is(err, domain.ErrZeroVector) {
		t.Errorf("expected ErrZeroVector, got %v", err)
	}
}
