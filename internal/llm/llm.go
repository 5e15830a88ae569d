package llm

import (
	"context"
	"errors"
)

// FlowInput is the flow text handed to a findings source.
type FlowInput struct {
	Goal  string
	Steps []string
}

// CandidateFinding is a raw finding proposed by an external source, before
// normalization. Any field may be missing or malformed.
type CandidateFinding struct {
	Severity       string   `json:"severity"`
	Category       string   `json:"category"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Evidence       []string `json:"evidence"`
	Recommendation string   `json:"recommendation"`
	Confidence     *float64 `json:"confidence"`
	PrincipleID    string   `json:"principleId"`
}

// FindingsSource produces candidate findings for a flow, or fails. Callers
// must bound the call with a context timeout and treat any failure as an
// empty contribution.
type FindingsSource interface {
	GenerateFindings(ctx context.Context, input FlowInput) ([]CandidateFinding, error)
}

// ErrNotConfigured is returned when no provider credential is available.
var ErrNotConfigured = errors.New("llm not configured")
