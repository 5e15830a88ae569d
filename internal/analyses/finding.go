package analyses

import (
	"sort"
	"strings"
)

// Severity is the closed set of finding severities.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// ParseSeverity normalizes a severity string; unknown values report ok=false.
func ParseSeverity(raw string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(SeverityHigh):
		return SeverityHigh, true
	case string(SeverityMedium):
		return SeverityMedium, true
	case string(SeverityLow):
		return SeverityLow, true
	default:
		return "", false
	}
}

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}

// Category is the closed set of UX risk categories.
type Category string

const (
	CategoryTrust        Category = "TRUST"
	CategoryControl      Category = "CONTROL"
	CategoryTransparency Category = "TRANSPARENCY"
	CategoryRecovery     Category = "RECOVERY"
	CategoryMemory       Category = "MEMORY"
)

// ParseCategory normalizes a category string; unknown values report ok=false.
func ParseCategory(raw string) (Category, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(CategoryTrust):
		return CategoryTrust, true
	case string(CategoryControl):
		return CategoryControl, true
	case string(CategoryTransparency):
		return CategoryTransparency, true
	case string(CategoryRecovery):
		return CategoryRecovery, true
	case string(CategoryMemory):
		return CategoryMemory, true
	default:
		return "", false
	}
}

// Finding is a single detected UX risk. Findings are value objects created
// per analysis run and never mutated afterward.
type Finding struct {
	ID             string   `json:"id"`
	Severity       Severity `json:"severity"`
	Category       Category `json:"category"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Evidence       []string `json:"evidence"`
	Recommendation string   `json:"recommendation"`
	Confidence     float64  `json:"confidence"`
	PrincipleID    string   `json:"principleId,omitempty"`
	Source         string   `json:"source"`
}

// SortBySeverity orders findings HIGH, MEDIUM, LOW, preserving the original
// relative order within each tier.
func SortBySeverity(findings []Finding) []Finding {
	out := make([]Finding, len(findings))
	copy(out, findings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.rank() < out[j].Severity.rank()
	})
	return out
}
