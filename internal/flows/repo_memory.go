package flows

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is the in-process Repo implementation.
type MemoryRepo struct {
	mu    sync.RWMutex
	flows map[string]Flow
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{flows: make(map[string]Flow)}
}

// Create stores a new flow.
func (r *MemoryRepo) Create(ctx context.Context, flow Flow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[flow.ID] = flow
	return nil
}

// GetByID returns a flow by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, flowID string) (Flow, error) {
	if err := ctx.Err(); err != nil {
		return Flow{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	flow, ok := r.flows[flowID]
	if !ok {
		return Flow{}, ErrNotFound
	}
	return flow, nil
}

// List returns flows ordered newest-first.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Flow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := make([]Flow, 0, len(r.flows))
	for _, f := range r.flows {
		all = append(all, f)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return []Flow{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Touch updates only the flow's update timestamp.
func (r *MemoryRepo) Touch(ctx context.Context, flowID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	flow, ok := r.flows[flowID]
	if !ok {
		return ErrNotFound
	}
	flow.UpdatedAt = at
	r.flows[flowID] = flow
	return nil
}
