package analyses

import (
	"context"
	"errors"
	"testing"
	"time"

	"flowaudit-backend/internal/flows"
	"flowaudit-backend/internal/llm"
	"flowaudit-backend/internal/usage"
)

type stubSource struct {
	findings []llm.CandidateFinding
	err      error
	calls    int
}

func (s *stubSource) GenerateFindings(ctx context.Context, input llm.FlowInput) ([]llm.CandidateFinding, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.findings, nil
}

func newTestService(source llm.FindingsSource) *Service {
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	return &Service{
		Flows:     flows.NewMemoryRepo(),
		AI:        source,
		AILimiter: usage.NewLimiter(10, time.Hour, clock),
		Governor:  usage.NewCostGovernor(100, 24*time.Hour, clock),
		Now:       clock,
	}
}

func TestAnalyzeRuleOnlyEndToEnd(t *testing.T) {
	svc := newTestService(nil)
	flow := buildFlow("approve posts", "AI generates content", "Post is automatically published")

	result, err := svc.Analyze(context.Background(), flow, false, "client-1")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var approval *Finding
	for _, f := range result.Findings {
		if f.Severity == SeverityHigh && f.Category == CategoryControl {
			found := f
			approval = &found
		}
	}
	if approval == nil {
		t.Fatalf("expected HIGH/CONTROL missing-approval finding, got %+v", result.Findings)
	}
	if approval.Confidence != 0.95 {
		t.Fatalf("expected confidence 0.95, got %v", approval.Confidence)
	}
	if result.Summary.OverallRisk != SeverityHigh {
		t.Fatalf("expected overallRisk HIGH, got %s", result.Summary.OverallRisk)
	}
	if len(result.Summary.Highlights) == 0 || len(result.Summary.Highlights) > 3 {
		t.Fatalf("expected 1-3 highlights, got %v", result.Summary.Highlights)
	}
	if result.AIEnhanced {
		t.Fatalf("rule-only analysis should not be AI-enhanced")
	}
	if len(result.Principles) == 0 {
		t.Fatalf("expected referenced principles in result")
	}
}

func TestAnalyzeAIFailureDegradesToRules(t *testing.T) {
	source := &stubSource{err: errors.New("upstream timeout")}
	svc := newTestService(source)
	flow := buildFlow("approve posts", "AI generates content", "Post is automatically published")

	result, err := svc.Analyze(context.Background(), flow, true, "client-1")
	if err != nil {
		t.Fatalf("AI failure must not fail the request: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected one AI call, got %d", source.calls)
	}
	if result.AIEnhanced {
		t.Fatalf("failed AI call should not mark result AI-enhanced")
	}
	if len(result.Findings) == 0 {
		t.Fatalf("rule findings should survive AI failure")
	}
}

func TestAnalyzeAIFindingsOverrideByCategory(t *testing.T) {
	conf := 0.9
	source := &stubSource{findings: []llm.CandidateFinding{{
		Severity:       "HIGH",
		Category:       "CONTROL",
		Title:          "Publishing without a human in the loop",
		Description:    "Content goes live with no approval.",
		Evidence:       []string{"Post is automatically published"},
		Recommendation: "Add an approval step.",
		Confidence:     &conf,
	}}}
	svc := newTestService(source)
	flow := buildFlow("approve posts", "AI generates content", "Post is automatically published")

	result, err := svc.Analyze(context.Background(), flow, true, "client-1")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !result.AIEnhanced {
		t.Fatalf("expected AI-enhanced result")
	}
	controlCount := 0
	for _, f := range result.Findings {
		if f.Category == CategoryControl {
			controlCount++
			if f.Source != "ai" {
				t.Fatalf("rule CONTROL findings should be overridden by AI, got %+v", f)
			}
		}
	}
	if controlCount != 1 {
		t.Fatalf("expected exactly one CONTROL finding after merge, got %d", controlCount)
	}
}

func TestAnalyzeAIRateLimitDenied(t *testing.T) {
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	source := &stubSource{}
	svc := newTestService(source)
	svc.AILimiter = usage.NewLimiter(1, time.Hour, clock)

	flow := buildFlow("approve posts", "AI generates content", "Post is automatically published")
	if _, err := svc.Analyze(context.Background(), flow, true, "client-1"); err != nil {
		t.Fatalf("first AI request should pass: %v", err)
	}

	_, err := svc.Analyze(context.Background(), flow, true, "client-1")
	var denied *usage.DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected DeniedError, got %v", err)
	}
	if !errors.Is(err, usage.ErrRateLimited) {
		t.Fatalf("expected rate-limited reason, got %v", err)
	}
	if denied.RetryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", denied.RetryAfter)
	}
	if source.calls != 1 {
		t.Fatalf("denied request must not reach the AI source, calls=%d", source.calls)
	}
}

func TestAnalyzeDailyQuotaDenied(t *testing.T) {
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	source := &stubSource{}
	svc := newTestService(source)
	svc.Governor = usage.NewCostGovernor(1, 24*time.Hour, clock)

	flow := buildFlow("approve posts", "AI generates content", "Post is automatically published")
	if _, err := svc.Analyze(context.Background(), flow, true, "client-1"); err != nil {
		t.Fatalf("first AI request should pass: %v", err)
	}

	_, err := svc.Analyze(context.Background(), flow, true, "client-2")
	if !errors.Is(err, usage.ErrQuotaExceeded) {
		t.Fatalf("expected quota denial regardless of client, got %v", err)
	}
}

func TestAnalyzeWithoutConfiguredAISkipsBudgets(t *testing.T) {
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := newTestService(nil)
	svc.AILimiter = usage.NewLimiter(1, time.Hour, clock)
	svc.Governor = usage.NewCostGovernor(1, 24*time.Hour, clock)

	flow := buildFlow("approve posts", "AI generates content", "Post is automatically published")
	for i := 0; i < 3; i++ {
		result, err := svc.Analyze(context.Background(), flow, true, "client-1")
		if err != nil {
			t.Fatalf("request %d: unconfigured AI must not consume budget: %v", i+1, err)
		}
		if result.AIEnhanced {
			t.Fatalf("unconfigured AI cannot produce an enhanced result")
		}
	}
}

func TestAnalyzeRejectsOversizedFlow(t *testing.T) {
	svc := newTestService(nil)
	steps := make([]string, 25)
	for i := range steps {
		steps[i] = "a step"
	}
	flow := buildFlow("too many steps", steps...)

	_, err := svc.Analyze(context.Background(), flow, false, "client-1")
	var verr *flows.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAnalyzeFlowTouchesUpdateTimestamp(t *testing.T) {
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := newTestService(nil)
	svc.Now = clock

	flow := buildFlow("approve posts", "AI generates content", "Post is automatically published")
	flow.UpdatedAt = now.Add(-time.Hour)
	if err := svc.Flows.Create(context.Background(), flow); err != nil {
		t.Fatalf("create flow: %v", err)
	}

	result, err := svc.AnalyzeFlow(context.Background(), flow.ID, false, "client-1")
	if err != nil {
		t.Fatalf("analyze flow: %v", err)
	}
	if result.FlowID != flow.ID {
		t.Fatalf("expected flow id %s, got %s", flow.ID, result.FlowID)
	}
	stored, err := svc.Flows.GetByID(context.Background(), flow.ID)
	if err != nil {
		t.Fatalf("get flow: %v", err)
	}
	if !stored.UpdatedAt.Equal(now) {
		t.Fatalf("expected updatedAt bumped to %v, got %v", now, stored.UpdatedAt)
	}
}
