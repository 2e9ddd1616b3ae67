package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/ethereum/go-ethereum/common"

	"opium-checker/internal/domain"
	"opium-checker/internal/storage"
)

// EvaluationStore implements storage.EvaluationStore using ClickHouse.
type EvaluationStore struct {
	conn *Conn
}

// NewEvaluationStore creates a new EvaluationStore.
func NewEvaluationStore(conn *Conn) *EvaluationStore {
	return &EvaluationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EvaluationStore = (*EvaluationStore)(nil)

// InsertBulk adds multiple evaluations. Fails entire batch on duplicate.
func (s *EvaluationStore) InsertBulk(ctx context.Context, evals []*domain.Evaluation) error {
	if len(evals) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		runID string
		index int
	}
	seen := make(map[key]struct{})
	runs := make(map[string]struct{})
	for _, e := range evals {
		if e == nil || e.RunID == "" {
			return storage.ErrInvalidInput
		}
		k := key{e.RunID, e.Index}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		runs[e.RunID] = struct{}{}
	}

	// MergeTree does not enforce keys; runs are written once, so any
	// existing row for the run is a duplicate.
	for runID := range runs {
		exists, err := s.exists(ctx, runID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candidate_evaluations (
			run_id, idx, user, pool, amount, coefficient, in_staking_phase, eligible
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range evals {
		err = batch.Append(
			e.RunID, uint32(e.Index),
			e.User.Hex(), e.Pool.Hex(),
			e.Amount, e.Coefficient,
			boolToUint8(e.InStakingPhase), boolToUint8(e.Eligible),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves the evaluations of a run ordered by idx ASC.
func (s *EvaluationStore) GetByRunID(ctx context.Context, runID string) ([]*domain.Evaluation, error) {
	query := `
		SELECT run_id, idx, user, pool, amount, coefficient, in_staking_phase, eligible
		FROM candidate_evaluations
		WHERE run_id = ?
		ORDER BY idx ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanEvaluations(rows)
}

func (s *EvaluationStore) exists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM candidate_evaluations WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanEvaluations(rows driver.Rows) ([]*domain.Evaluation, error) {
	var result []*domain.Evaluation
	for rows.Next() {
		var (
			e             domain.Evaluation
			idx           uint32
			user, pool    string
			inPhase, elig uint8
		)
		if err := rows.Scan(&e.RunID, &idx, &user, &pool, &e.Amount, &e.Coefficient, &inPhase, &elig); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Index = int(idx)
		e.User = common.HexToAddress(user)
		e.Pool = common.HexToAddress(pool)
		e.InStakingPhase = inPhase == 1
		e.Eligible = elig == 1
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
