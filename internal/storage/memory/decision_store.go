package memory

import (
	"context"
	"sort"
	"sync"

	"opium-checker/internal/domain"
	"opium-checker/internal/storage"
)

// DecisionStore is an in-memory implementation of storage.DecisionStore.
type DecisionStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.Decision // keyed by run_id
	order []string                    // insertion order
}

// NewDecisionStore creates a new in-memory decision store.
func NewDecisionStore() *DecisionStore {
	return &DecisionStore{
		data: make(map[string]*domain.Decision),
	}
}

// Compile-time interface check.
var _ storage.DecisionStore = (*DecisionStore)(nil)

// Insert adds a new decision. Returns ErrDuplicateKey if run_id exists.
func (s *DecisionStore) Insert(_ context.Context, d *domain.Decision) error {
	if d == nil || d.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	decisionCopy := *d
	s.data[d.RunID] = &decisionCopy
	s.order = append(s.order, d.RunID)
	return nil
}

// GetByRunID retrieves a decision by its run ID. Returns ErrNotFound if not exists.
func (s *DecisionStore) GetByRunID(_ context.Context, runID string) (*domain.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	decisionCopy := *d
	return &decisionCopy, nil
}

// ListRecent retrieves up to limit decisions, newest first.
func (s *DecisionStore) ListRecent(_ context.Context, limit int) ([]*domain.Decision, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Decision, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		decisionCopy := *s.data[s.order[i]]
		result = append(result, &decisionCopy)
	}

	// Stable so equal timestamps keep reverse insertion order.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
