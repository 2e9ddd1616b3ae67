package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"opium-checker/internal/domain"
	"opium-checker/internal/storage"
)

// DecisionStore implements storage.DecisionStore using PostgreSQL.
type DecisionStore struct {
	pool *Pool
}

// NewDecisionStore creates a new DecisionStore.
func NewDecisionStore(pool *Pool) *DecisionStore {
	return &DecisionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DecisionStore = (*DecisionStore)(nil)

const decisionColumns = `
	run_id, mode, scheduler, subgraph_name, network, evaluated_at,
	candidates, batch_size, can_exec, exec_data, error, created_at
`

// Insert adds a new decision. Returns ErrDuplicateKey if run_id exists.
func (s *DecisionStore) Insert(ctx context.Context, d *domain.Decision) error {
	if d == nil || d.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO checker_decisions (` + decisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		d.RunID,
		string(d.Mode),
		d.Scheduler,
		d.SubgraphName,
		d.Network,
		d.EvaluatedAt,
		d.Candidates,
		d.BatchSize,
		d.CanExec,
		d.ExecData,
		d.Error,
		d.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// GetByRunID retrieves a decision by its run ID. Returns ErrNotFound if not exists.
func (s *DecisionStore) GetByRunID(ctx context.Context, runID string) (*domain.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM checker_decisions WHERE run_id = $1`

	d, err := scanDecision(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get decision by run id: %w", err)
	}
	return d, nil
}

// ListRecent retrieves up to limit decisions, newest first.
func (s *DecisionStore) ListRecent(ctx context.Context, limit int) ([]*domain.Decision, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	query := `
		SELECT ` + decisionColumns + `
		FROM checker_decisions
		ORDER BY created_at DESC, run_id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent decisions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return result, nil
}

// scanDecision scans a single row into a Decision.
func scanDecision(row pgx.Row) (*domain.Decision, error) {
	var d domain.Decision
	var mode string
	err := row.Scan(
		&d.RunID,
		&mode,
		&d.Scheduler,
		&d.SubgraphName,
		&d.Network,
		&d.EvaluatedAt,
		&d.Candidates,
		&d.BatchSize,
		&d.CanExec,
		&d.ExecData,
		&d.Error,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Mode = domain.Mode(mode)
	return &d, nil
}
