package storage

import (
	"context"

	"opium-checker/internal/domain"
)

// DecisionStore provides access to checker_decisions storage.
type DecisionStore interface {
	// Insert adds a new decision. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, d *domain.Decision) error

	// GetByRunID retrieves a decision by its run ID. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.Decision, error)

	// ListRecent retrieves up to limit decisions, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.Decision, error)
}

// EvaluationStore provides access to candidate_evaluations storage.
type EvaluationStore interface {
	// InsertBulk adds the evaluations of one or more runs. Fails entire batch on
	// a duplicate (run_id, idx).
	InsertBulk(ctx context.Context, evals []*domain.Evaluation) error

	// GetByRunID retrieves the evaluations of a run ordered by idx ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.Evaluation, error)
}
