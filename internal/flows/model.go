package flows

import (
	"errors"
	"strings"
	"time"
)

// Origin tags where a flow's text came from.
type Origin string

const (
	OriginManual Origin = "manual"
	OriginURL    Origin = "url"
	OriginUpload Origin = "upload"
)

// ParseOrigin normalizes and validates an origin string. Empty defaults to
// manual.
func ParseOrigin(raw string) (Origin, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "":
		return OriginManual, nil
	case string(OriginManual):
		return OriginManual, nil
	case string(OriginURL):
		return OriginURL, nil
	case string(OriginUpload):
		return OriginUpload, nil
	default:
		return "", errors.New("origin is invalid")
	}
}

// Step is one free-text step of a flow.
type Step struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Flow is a goal plus an ordered list of steps describing a proposed
// AI-product interaction. Immutable once analyzed except for UpdatedAt.
type Flow struct {
	ID        string    `json:"id"`
	Goal      string    `json:"goal"`
	Steps     []Step    `json:"steps"`
	Origin    Origin    `json:"origin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StepTexts returns the step descriptions in order.
func (f Flow) StepTexts() []string {
	out := make([]string, 0, len(f.Steps))
	for _, s := range f.Steps {
		out = append(out, s.Text)
	}
	return out
}
