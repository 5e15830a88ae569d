package flows

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxGoalChars = 500
	maxSteps     = 20
	maxStepChars = 1000
)

// Issue describes one rejected input field.
type Issue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError rejects malformed or oversized flow input before any
// analysis runs.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid flow input"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", is.Field, is.Issue))
	}
	return "invalid flow input: " + strings.Join(parts, "; ")
}

// ValidateInput checks goal and step text against size limits.
func ValidateInput(goal string, steps []string) error {
	var issues []Issue
	if strings.TrimSpace(goal) == "" {
		issues = append(issues, Issue{Field: "goal", Issue: "required"})
	} else if utf8.RuneCountInString(goal) > maxGoalChars {
		issues = append(issues, Issue{Field: "goal", Issue: fmt.Sprintf("must be at most %d characters", maxGoalChars)})
	}
	if len(steps) == 0 {
		issues = append(issues, Issue{Field: "steps", Issue: "at least one step is required"})
	} else if len(steps) > maxSteps {
		issues = append(issues, Issue{Field: "steps", Issue: fmt.Sprintf("must be at most %d steps", maxSteps)})
	}
	for i, text := range steps {
		if strings.TrimSpace(text) == "" {
			issues = append(issues, Issue{Field: fmt.Sprintf("steps[%d]", i), Issue: "required"})
			continue
		}
		if utf8.RuneCountInString(text) > maxStepChars {
			issues = append(issues, Issue{Field: fmt.Sprintf("steps[%d]", i), Issue: fmt.Sprintf("must be at most %d characters", maxStepChars)})
		}
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
