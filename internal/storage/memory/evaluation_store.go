package memory

import (
	"context"
	"sort"
	"sync"

	"opium-checker/internal/domain"
	"opium-checker/internal/storage"
)

type evaluationKey struct {
	runID string
	index int
}

// EvaluationStore is an in-memory implementation of storage.EvaluationStore.
type EvaluationStore struct {
	mu   sync.RWMutex
	data map[evaluationKey]*domain.Evaluation
}

// NewEvaluationStore creates a new in-memory evaluation store.
func NewEvaluationStore() *EvaluationStore {
	return &EvaluationStore{
		data: make(map[evaluationKey]*domain.Evaluation),
	}
}

// Compile-time interface check.
var _ storage.EvaluationStore = (*EvaluationStore)(nil)

// InsertBulk adds evaluations atomically. Fails entire batch on any duplicate.
func (s *EvaluationStore) InsertBulk(_ context.Context, evals []*domain.Evaluation) error {
	if len(evals) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicates first (atomic: all or nothing)
	seen := make(map[evaluationKey]struct{}, len(evals))
	for _, e := range evals {
		if e == nil || e.RunID == "" {
			return storage.ErrInvalidInput
		}
		k := evaluationKey{e.RunID, e.Index}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, e := range evals {
		evalCopy := *e
		s.data[evaluationKey{e.RunID, e.Index}] = &evalCopy
	}
	return nil
}

// GetByRunID retrieves the evaluations of a run ordered by index ASC.
func (s *EvaluationStore) GetByRunID(_ context.Context, runID string) ([]*domain.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Evaluation
	for k, e := range s.data {
		if k.runID == runID {
			evalCopy := *e
			result = append(result, &evalCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Index < result[j].Index
	})
	return result, nil
}
