package subscription

import (
	"context"
	"sync"
)

type inMemSource struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewInMemSource returns an in-memory PlanSource with a copy of the given
// plans. Panics when called without plans so a service never starts with an
// empty catalog.
func NewInMemSource(plans ...Plan) PlanSource {
	if len(plans) == 0 {
		panic("subscription: at least one plan is required")
	}

	copied := make(map[string]Plan, len(plans))
	for _, plan := range plans {
		plan.Features = plan.Features.Clone()
		copied[plan.ID] = plan
	}

	return &inMemSource{plans: copied}
}

// Load returns a copy of the catalog so callers cannot mutate shared state.
func (s *inMemSource) Load(ctx context.Context) (map[string]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make(map[string]Plan, len(s.plans))
	for id, plan := range s.plans {
		plan.Features = plan.Features.Clone()
		copied[id] = plan
	}
	return copied, nil
}
