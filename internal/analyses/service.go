package analyses

import (
	"context"
	"time"

	"flowaudit-backend/internal/flows"
	"flowaudit-backend/internal/llm"
	"flowaudit-backend/internal/principles"
	"flowaudit-backend/internal/shared/metrics"
	"flowaudit-backend/internal/shared/telemetry"
	"flowaudit-backend/internal/usage"
)

const defaultAITimeout = 30 * time.Second

// Summary condenses an analysis run for the response.
type Summary struct {
	OverallRisk Severity `json:"overallRisk"`
	Highlights  []string `json:"highlights"`
}

// Result is the exposed analysis result.
type Result struct {
	FlowID     string                 `json:"flowId,omitempty"`
	Findings   []Finding              `json:"findings"`
	Summary    Summary                `json:"summary"`
	Principles []principles.Principle `json:"principles"`
	AIEnhanced bool                   `json:"aiEnhanced"`
}

// Service runs flow analyses, gating AI enhancement behind the AI traffic
// budget and the global daily quota.
type Service struct {
	Flows     flows.Repo
	AI        llm.FindingsSource
	AILimiter *usage.Limiter
	Governor  *usage.CostGovernor
	AITimeout time.Duration
	Now       func() time.Time
}

// AIEnabled reports whether an AI findings source is configured. When it is
// not, AI paths are skipped entirely without consuming any AI budget.
func (s *Service) AIEnabled() bool {
	return s.AI != nil
}

// AnalyzeFlow analyzes a stored flow by ID.
func (s *Service) AnalyzeFlow(ctx context.Context, flowID string, useAI bool, clientKey string) (Result, error) {
	flow, err := s.Flows.GetByID(ctx, flowID)
	if err != nil {
		return Result{}, err
	}
	result, err := s.Analyze(ctx, flow, useAI, clientKey)
	if err != nil {
		return Result{}, err
	}
	result.FlowID = flow.ID
	if err := s.Flows.Touch(ctx, flow.ID, s.now()); err != nil {
		telemetry.Warn("flow.touch.failed", map[string]any{"flow_id": flow.ID, "error": err.Error()})
	}
	return result, nil
}

// Analyze validates the flow, runs the rule evaluator, and merges in AI
// findings when requested, permitted, and available.
func (s *Service) Analyze(ctx context.Context, flow flows.Flow, useAI bool, clientKey string) (Result, error) {
	if err := flows.ValidateInput(flow.Goal, flow.StepTexts()); err != nil {
		return Result{}, err
	}

	wantAI := useAI && s.AIEnabled()
	if wantAI {
		if d := s.AILimiter.Allow(clientKey); !d.Allowed {
			metrics.IncRateLimitDenied()
			return Result{}, &usage.DeniedError{Reason: usage.ErrRateLimited, RetryAfter: d.RetryAfter}
		}
		if d := s.Governor.Allow(); !d.Allowed {
			metrics.IncQuotaDenied()
			return Result{}, &usage.DeniedError{Reason: usage.ErrQuotaExceeded, RetryAfter: d.RetryAfter}
		}
	}

	metrics.IncAnalysisStarted()
	start := s.now()

	ruleFindings := Evaluate(flow)

	var aiFindings []Finding
	aiEnhanced := false
	if wantAI {
		metrics.IncAIAnalysis()
		candidates, err := s.generateAIFindings(ctx, flow)
		if err != nil {
			// AI failure degrades to rule-only, never to a request failure.
			metrics.IncAIFailed()
			telemetry.Warn("ai.findings.failed", map[string]any{
				"flow_id": flow.ID,
				"error":   err.Error(),
			})
		} else {
			aiEnhanced = true
			for _, c := range candidates {
				aiFindings = append(aiFindings, NormalizeCandidate(c))
			}
		}
	}

	merged := MergeFindings(ruleFindings, aiFindings)

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(s.now().Sub(start).Microseconds()) / 1000.0)

	return Result{
		Findings:   merged,
		Summary:    summarize(merged),
		Principles: referencedPrinciples(merged),
		AIEnhanced: aiEnhanced,
	}, nil
}

// generateAIFindings invokes the findings source under a bounded timeout.
// It runs without holding any governance or analytics locks.
func (s *Service) generateAIFindings(ctx context.Context, flow flows.Flow) ([]llm.CandidateFinding, error) {
	timeout := s.AITimeout
	if timeout <= 0 {
		timeout = defaultAITimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.AI.GenerateFindings(ctx, llm.FlowInput{Goal: flow.Goal, Steps: flow.StepTexts()})
}

func summarize(findings []Finding) Summary {
	risk := SeverityLow
	for _, f := range findings {
		if f.Severity == SeverityHigh {
			risk = SeverityHigh
			break
		}
		if f.Severity == SeverityMedium {
			risk = SeverityMedium
		}
	}
	highlights := make([]string, 0, 3)
	for _, f := range findings {
		if len(highlights) == 3 {
			break
		}
		highlights = append(highlights, f.Title)
	}
	return Summary{OverallRisk: risk, Highlights: highlights}
}

func referencedPrinciples(findings []Finding) []principles.Principle {
	seen := make(map[string]struct{})
	out := make([]principles.Principle, 0, len(findings))
	for _, f := range findings {
		if f.PrincipleID == "" {
			continue
		}
		if _, ok := seen[f.PrincipleID]; ok {
			continue
		}
		if p, ok := principles.Get(f.PrincipleID); ok {
			seen[f.PrincipleID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
