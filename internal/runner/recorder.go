// Package runner records checker runs and drives them from new chain heads.
package runner

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"opium-checker/internal/domain"
	"opium-checker/internal/observability"
	"opium-checker/internal/storage"
)

// DecisionPublisher fans out executable decisions.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, d *domain.Decision) error
}

// Recorder persists the outcome of every run and publishes executable ones.
// Persistence failures are logged and counted; they never change the
// result handed back to the host.
type Recorder struct {
	decisions   storage.DecisionStore
	evaluations storage.EvaluationStore
	publisher   DecisionPublisher
	logger      *zap.Logger
}

// NewRecorder creates a Recorder. publisher may be nil.
func NewRecorder(decisions storage.DecisionStore, evaluations storage.EvaluationStore, publisher DecisionPublisher, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		decisions:   decisions,
		evaluations: evaluations,
		publisher:   publisher,
		logger:      logger,
	}
}

// Record stores the decision of a finished run. report is nil when the run failed.
func (r *Recorder) Record(ctx context.Context, ec domain.EvaluationContext, report *domain.Report, runErr error) *domain.Decision {
	runID := uuid.NewString()
	if report != nil {
		runID = report.RunID
	}
	d := domain.NewDecision(runID, ec, report, runErr)
	logger := r.logger.With(zap.String("run_id", d.RunID))

	if err := r.decisions.Insert(ctx, d); err != nil {
		observability.RecordStoreError("decisions")
		logger.Error("failed to store decision", zap.Error(err))
	}

	if report != nil && len(report.Evaluations) > 0 {
		evals := make([]*domain.Evaluation, len(report.Evaluations))
		for i := range report.Evaluations {
			evals[i] = &report.Evaluations[i]
		}
		if err := r.evaluations.InsertBulk(ctx, evals); err != nil {
			observability.RecordStoreError("evaluations")
			logger.Error("failed to store evaluations", zap.Error(err), zap.Int("count", len(evals)))
		}
	}

	if d.CanExec && r.publisher != nil {
		if err := r.publisher.PublishDecision(ctx, d); err != nil {
			logger.Error("failed to publish decision", zap.Error(err))
		}
	}
	return d
}
