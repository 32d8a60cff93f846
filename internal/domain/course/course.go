// Package course handles course-code canonicalization and extraction.
//
// A course code is a department prefix (2-4 letters) plus a 3-4 digit number,
// optionally carrying a department-specific level prefix on the number
// ("STAT GR5701"). The canonical form is "DEPT LEVELNUM", uppercase, single
// space.
package course

import (
	"regexp"
	"sort"
	"strings"
)

// codeRegex splits a compact uppercase code into department and number parts.
// The department group is greedy, so "STATGR5701" resolves to STAT + GR5701.
var codeRegex = regexp.MustCompile(`^([A-Z]{2,4})([A-Z]{0,2}\d{3,4})$`)

// mentionRegex scans free text for course-code mentions. Matches are
// advisory: regex-derived, not guaranteed exhaustive.
var mentionRegex = regexp.MustCompile(`(?i)\b([a-z]{2,4})[ \t]?([a-z]{1,2}\d{4}|\d{3,4})\b`)

// Normalize canonicalizes a course code: "coms4111" -> "COMS 4111",
// "stat gr5701" -> "STAT GR5701". Inputs that do not look like a course code
// are returned trimmed and uppercased. Normalize is idempotent.
func Normalize(code string) string {
	compact := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), " ", ""))
	m := codeRegex.FindStringSubmatch(compact)
	if m == nil {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	return m[1] + " " + m[2]
}

// Extract returns the normalized, deduplicated course codes mentioned in
// text, sorted for determinism.
func Extract(text string) []string {
	matches := mentionRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		code := Normalize(m[1] + m[2])
		seen[code] = true
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
