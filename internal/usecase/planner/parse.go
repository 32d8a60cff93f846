package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pathwise-ai/pathwise/internal/domain"
)

// parsePlan extracts the structured plan from model output. The model is
// asked for prose plus JSON, so the JSON may arrive inside a fenced code
// block or embedded in surrounding text.
func parsePlan(text string) (domain.PlanResponse, error) {
	raw, ok := extractJSON(text)
	if !ok {
		return domain.PlanResponse{}, fmt.Errorf("%w: no JSON object in output", domain.ErrGenerationParse)
	}

	var plan domain.PlanResponse
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return domain.PlanResponse{}, fmt.Errorf("%w: %v", domain.ErrGenerationParse, err)
	}
	if len(plan.Semesters) == 0 {
		return domain.PlanResponse{}, fmt.Errorf("%w: no semesters in output", domain.ErrGenerationParse)
	}
	return plan, nil
}

// extractJSON prefers a ```json fenced block, then falls back to the
// outermost brace-delimited span.
func extractJSON(text string) (string, bool) {
	if block, ok := fencedBlock(text); ok {
		return block, true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func fencedBlock(text string) (string, bool) {
	for _, fence := range []string{"```json", "```"} {
		open := strings.Index(text, fence)
		if open < 0 {
			continue
		}
		body := text[open+len(fence):]
		end := strings.Index(body, "```")
		if end < 0 {
			continue
		}
		block := strings.TrimSpace(body[:end])
		if strings.HasPrefix(block, "{") {
			return block, true
		}
	}
	return "", false
}
