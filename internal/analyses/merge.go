package analyses

import (
	"github.com/google/uuid"

	"flowaudit-backend/internal/llm"
)

// Fallback values applied when an AI candidate is missing fields.
const (
	fallbackTitle          = "UX risk identified by AI review"
	fallbackDescription    = "The AI reviewer flagged a risk in this flow but did not describe it."
	fallbackRecommendation = "Review this part of the flow manually."
	fallbackConfidence     = 0.7
)

// NormalizeCandidate converts a raw AI candidate into a Finding, applying
// defaults for missing fields and clamping confidence to [0, 1].
func NormalizeCandidate(c llm.CandidateFinding) Finding {
	severity, ok := ParseSeverity(c.Severity)
	if !ok {
		severity = SeverityMedium
	}
	category, ok := ParseCategory(c.Category)
	if !ok {
		category = CategoryTransparency
	}

	title := c.Title
	if title == "" {
		title = fallbackTitle
	}
	description := c.Description
	if description == "" {
		description = fallbackDescription
	}
	recommendation := c.Recommendation
	if recommendation == "" {
		recommendation = fallbackRecommendation
	}

	confidence := fallbackConfidence
	if c.Confidence != nil {
		confidence = *c.Confidence
		if confidence < 0 {
			confidence = 0
		} else if confidence > 1 {
			confidence = 1
		}
	}

	principleID := c.PrincipleID
	return Finding{
		ID:             uuid.NewString(),
		Severity:       severity,
		Category:       category,
		Title:          title,
		Description:    description,
		Evidence:       c.Evidence,
		Recommendation: recommendation,
		Confidence:     confidence,
		PrincipleID:    principleID,
		Source:         "ai",
	}
}

// MergeFindings reconciles rule findings with AI findings. AI findings take
// precedence per category: every rule finding whose category also appears in
// the AI list is dropped. The combined list is then severity-sorted with
// detection order preserved within each tier.
func MergeFindings(ruleFindings, aiFindings []Finding) []Finding {
	if len(aiFindings) == 0 {
		return SortBySeverity(ruleFindings)
	}

	overridden := make(map[Category]struct{}, len(aiFindings))
	for _, f := range aiFindings {
		overridden[f.Category] = struct{}{}
	}

	merged := make([]Finding, 0, len(aiFindings)+len(ruleFindings))
	merged = append(merged, aiFindings...)
	for _, f := range ruleFindings {
		if _, ok := overridden[f.Category]; ok {
			continue
		}
		merged = append(merged, f)
	}
	return SortBySeverity(merged)
}
