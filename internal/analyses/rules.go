package analyses

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"flowaudit-backend/internal/flows"
)

// Keyword sets for the rule checks. Matching is case-insensitive substring
// over step text; the autonomy set additionally scans the goal.
var (
	recoveryTerms = []string{"error", "fail", "retry", "fallback", "recover", "undo", "rollback"}

	autonomyTerms = []string{
		"automatically", "automatic", "autonomous", "auto-",
		"without asking", "without review", "on behalf",
		"ai executes", "ai generates", "ai sends", "ai posts", "publish",
	}

	approvalTerms    = []string{"approve", "approval", "confirm", "review", "preview", "consent", "permission", "authorize", "sign off"}
	explanationTerms = []string{"explain", "explanation", "reason", "because", "why", "rationale", "justif"}
	progressTerms    = []string{"loading", "progress", "status", "spinner", "indicator", "percent", "wait"}
	memoryTerms      = []string{"remember", "history", "context", "previous", "preference", "recall", "last time", "saved"}
	undoTerms        = []string{"undo", "edit", "revert", "rollback", "modify", "adjust", "dismiss"}
	trustTerms       = []string{"verif", "source", "citation", "credib", "accura", "fact-check", "provenance"}
	confidenceTerms  = []string{"confidence", "confident", "uncertain", "not sure", "probability", "likelihood", "might", "may be"}
)

// Evaluate runs the eight deterministic rule checks over a flow and returns
// findings in detection order. Pure: no I/O, and the same flow always yields
// the same findings apart from freshly generated IDs.
func Evaluate(flow flows.Flow) []Finding {
	steps := flow.StepTexts()
	autonomyEvidence := detectAutonomy(flow.Goal, steps)
	autonomous := len(autonomyEvidence) > 0

	var findings []Finding
	add := func(f Finding) {
		f.ID = uuid.NewString()
		f.Source = "rules"
		findings = append(findings, f)
	}

	if !anyStepMentions(steps, recoveryTerms) {
		add(Finding{
			Severity:       SeverityHigh,
			Category:       CategoryRecovery,
			Title:          "No error recovery path",
			Description:    "The flow never says what happens when a step fails. Users who hit an error have no retry, fallback, or way back.",
			Evidence:       []string{"No step mentions errors, failures, retries, fallbacks, or recovery."},
			Recommendation: "Define an error state for each step that can fail, with a retry or a manual fallback.",
			Confidence:     0.85,
			PrincipleID:    "error-recovery",
		})
	}

	if autonomous && !anyStepMentions(steps, approvalTerms) {
		add(Finding{
			Severity:       SeverityHigh,
			Category:       CategoryControl,
			Title:          "Missing approval before autonomous action",
			Description:    "The system acts on the user's behalf, but no step gives the user a chance to approve, confirm, or preview the action first.",
			Evidence:       autonomyEvidence,
			Recommendation: "Insert an explicit preview and approval step before the autonomous action takes effect.",
			Confidence:     0.95,
			PrincipleID:    "user-control",
		})
	}

	if !anyStepMentions(steps, explanationTerms) {
		add(Finding{
			Severity:       SeverityMedium,
			Category:       CategoryTransparency,
			Title:          "No explanation of system reasoning",
			Description:    "No step explains why the system produces its output, so users cannot judge whether to rely on it.",
			Evidence:       []string{"No step mentions reasoning, explanations, or rationale."},
			Recommendation: "Show the key inputs or reasoning behind each system-generated result.",
			Confidence:     0.80,
			PrincipleID:    "explainability",
		})
	}

	if len(steps) > 3 && !anyStepMentions(steps, progressTerms) {
		add(Finding{
			Severity:       SeverityMedium,
			Category:       CategoryTransparency,
			Title:          "No progress feedback in a long flow",
			Description:    "A multi-step flow gives no loading, progress, or status feedback, so users cannot tell whether it is working or stuck.",
			Evidence:       []string{fmt.Sprintf("Flow has %d steps and none mentions loading, progress, or status.", len(steps))},
			Recommendation: "Add progress or status indicators for steps that take noticeable time.",
			Confidence:     0.75,
			PrincipleID:    "visibility-of-status",
		})
	}

	if len(steps) > 2 && !anyStepMentions(steps, memoryTerms) {
		add(Finding{
			Severity:       SeverityMedium,
			Category:       CategoryMemory,
			Title:          "No contextual memory across steps",
			Description:    "The flow spans several steps but never carries forward what the user already provided or chose.",
			Evidence:       []string{fmt.Sprintf("Flow has %d steps and none mentions remembering, history, or context.", len(steps))},
			Recommendation: "Carry user inputs, choices, and corrections forward instead of re-asking for them.",
			Confidence:     0.70,
			PrincipleID:    "contextual-memory",
		})
	}

	if autonomous && !anyStepMentions(steps, undoTerms) {
		add(Finding{
			Severity:       SeverityMedium,
			Category:       CategoryControl,
			Title:          "No undo for autonomous changes",
			Description:    "The system makes changes on its own, but no step lets the user undo, edit, or revert them.",
			Evidence:       autonomyEvidence,
			Recommendation: "Provide an undo or edit path for every change the system makes autonomously.",
			Confidence:     0.85,
			PrincipleID:    "reversibility",
		})
	}

	if autonomous && !anyStepMentions(steps, trustTerms) {
		add(Finding{
			Severity:       SeverityLow,
			Category:       CategoryTrust,
			Title:          "No trust signals for autonomous output",
			Description:    "Autonomous output carries no sources, citations, or verification step the user could check.",
			Evidence:       autonomyEvidence,
			Recommendation: "Attach verifiable signals such as sources or a verification step to autonomous output.",
			Confidence:     0.75,
			PrincipleID:    "trust-calibration",
		})
	}

	if autonomous && !anyStepMentions(steps, confidenceTerms) {
		add(Finding{
			Severity:       SeverityLow,
			Category:       CategoryTrust,
			Title:          "Confidence is never communicated",
			Description:    "The system acts autonomously but never communicates how confident it is, so every output reads as equally certain.",
			Evidence:       autonomyEvidence,
			Recommendation: "Surface confidence or uncertainty where the system might be wrong, and route low-confidence cases to the user.",
			Confidence:     0.70,
			PrincipleID:    "uncertainty-communication",
		})
	}

	return findings
}

// detectAutonomy computes the shared autonomous-action predicate once,
// returning quoted evidence for each matching fragment. The goal counts as
// autonomy context even when no step matches.
func detectAutonomy(goal string, steps []string) []string {
	var evidence []string
	for i, text := range steps {
		if mentionsAny(text, autonomyTerms) {
			evidence = append(evidence, fmt.Sprintf("Step %d: %q", i+1, text))
		}
	}
	if len(evidence) == 0 && mentionsAny(goal, autonomyTerms) {
		evidence = append(evidence, fmt.Sprintf("Goal: %q", goal))
	}
	return evidence
}

func anyStepMentions(steps []string, terms []string) bool {
	for _, text := range steps {
		if mentionsAny(text, terms) {
			return true
		}
	}
	return false
}

func mentionsAny(text string, terms []string) bool {
	lowered := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
