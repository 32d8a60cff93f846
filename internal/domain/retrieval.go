package domain

// Filter is a conjunction of equality predicates over provenance fields.
// Zero values mean "any".
type Filter struct {
	Program     string
	Degree      string
	CatalogYear int
}

// IsEmpty reports whether the filter has no predicates.
func (f Filter) IsEmpty() bool {
	return f.Program == "" && f.Degree == "" && f.CatalogYear == 0
}

// Matches reports whether a provenance satisfies every set predicate.
func (f Filter) Matches(p Provenance) bool {
	if f.Program != "" && f.Program != p.Program {
		return false
	}
	if f.Degree != "" && f.Degree != p.Degree {
		return false
	}
	if f.CatalogYear != 0 && f.CatalogYear != p.CatalogYear {
		return false
	}
	return true
}

// Evidence is a single retrieval hit: chunk text with provenance and a
// cosine similarity score.
type Evidence struct {
	Key         string
	Text        string
	Provenance  Provenance
	CourseCodes []string
	Score       float64
}

// RetrievalResult is a ranked evidence list. Invariant: scores are
// non-increasing; ties keep insertion order.
type RetrievalResult struct {
	Evidence []Evidence
}

// IsEmpty reports the valid zero-result state ("no evidence found").
func (r RetrievalResult) IsEmpty() bool { return len(r.Evidence) == 0 }

// TruncatedTo returns the result limited to the top k hits.
func (r RetrievalResult) TruncatedTo(k int) RetrievalResult {
	if k < 0 || k >= len(r.Evidence) {
		return r
	}
	return RetrievalResult{Evidence: r.Evidence[:k]}
}

// CourseCodes returns the deduplicated course codes mentioned across all
// evidence, in first-seen order.
func (r RetrievalResult) CourseCodes() []string {
	seen := make(map[string]bool)
	var codes []string
	for _, ev := range r.Evidence {
		for _, code := range ev.CourseCodes {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}
	return codes
}
