package flows

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no flow exists with the given ID.
var ErrNotFound = errors.New("not found")

// Repo provides access to flows for the process lifetime.
type Repo interface {
	Create(ctx context.Context, flow Flow) error
	GetByID(ctx context.Context, flowID string) (Flow, error)
	List(ctx context.Context, limit, offset int) ([]Flow, error)
	Touch(ctx context.Context, flowID string, at time.Time) error
}
