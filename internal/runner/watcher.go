package runner

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"opium-checker/internal/chain"
	"opium-checker/internal/domain"
	"opium-checker/internal/observability"
)

// HeadSource delivers new chain heads until ctx is canceled.
type HeadSource interface {
	Watch(ctx context.Context, out chan<- chain.Head) error
}

// Evaluator runs the checker for one evaluation context.
type Evaluator interface {
	Run(ctx context.Context, ec domain.EvaluationContext) (*domain.Report, error)
}

// Task is the scheduler the watcher evaluates on every selected head.
type Task struct {
	UserArgs   domain.UserArgs
	Connection domain.Connection
}

// Watcher runs a Task on every n-th head using the head timestamp as now.
type Watcher struct {
	heads    HeadSource
	checker  Evaluator
	recorder *Recorder
	task     Task
	every    uint64
	logger   *zap.Logger
}

// NewWatcher creates a Watcher. every below 1 evaluates every head.
func NewWatcher(heads HeadSource, checker Evaluator, recorder *Recorder, task Task, every uint64, logger *zap.Logger) *Watcher {
	if every == 0 {
		every = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		heads:    heads,
		checker:  checker,
		recorder: recorder,
		task:     task,
		every:    every,
		logger:   logger,
	}
}

// Run blocks until ctx is canceled or the head source fails.
// A failed checker run is recorded and does not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	base, err := domain.NewEvaluationContext(w.task.UserArgs, domain.GelatoArgs{TimeStamp: "0"}, w.task.Connection)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	heads := make(chan chain.Head, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.heads.Watch(ctx, heads)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case head := <-heads:
			observability.UpdateLastHead(head.Number)
			if head.Number%w.every != 0 {
				continue
			}
			ec := base
			ec.Now = head.Timestamp
			w.evaluate(ctx, head, ec)
		}
	}
}

func (w *Watcher) evaluate(ctx context.Context, head chain.Head, ec domain.EvaluationContext) {
	report, runErr := w.checker.Run(ctx, ec)
	if runErr != nil && ctx.Err() != nil {
		return
	}
	d := w.recorder.Record(ctx, ec, report, runErr)

	if runErr != nil {
		w.logger.Error("checker run failed",
			zap.Uint64("head", head.Number),
			zap.String("run_id", d.RunID),
			zap.Error(runErr),
		)
		return
	}
	w.logger.Info("checker run finished",
		zap.Uint64("head", head.Number),
		zap.String("run_id", d.RunID),
		zap.Bool("can_exec", d.CanExec),
		zap.Int("batch", d.BatchSize),
	)
}
