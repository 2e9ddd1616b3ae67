// Package checker decides whether a batch of scheduled deposits or
// withdrawals can be executed now.
// Flow: subgraph fetch → decode → per-event chain reads → batch → aggregate
package checker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"opium-checker/internal/chain"
	"opium-checker/internal/domain"
	"opium-checker/internal/observability"
	"opium-checker/internal/subgraph"
)

// Checker runs the resolver for one evaluation context at a time.
// It holds no state between runs.
type Checker struct {
	fetcher   *subgraph.Fetcher
	networks  *chain.Networks
	batchSize int
	logger    *zap.Logger
}

// Options for creating a Checker.
type Options struct {
	// Required
	Fetcher  *subgraph.Fetcher
	Networks *chain.Networks

	// BatchSize caps the number of execute calls per aggregate (default 5).
	BatchSize int
	Logger    *zap.Logger
}

// New creates a new Checker.
func New(opts Options) *Checker {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		fetcher:   opts.Fetcher,
		networks:  opts.Networks,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Check decodes the host arguments and runs the resolver.
// Argument errors wrap domain.ErrInvalidArgs.
func (c *Checker) Check(ctx context.Context, userArgs, gelatoArgs []byte, conn domain.Connection) (*domain.Report, error) {
	u, err := domain.DecodeUserArgs(userArgs)
	if err != nil {
		return nil, err
	}
	g, err := domain.DecodeGelatoArgs(gelatoArgs)
	if err != nil {
		return nil, err
	}
	ec, err := domain.NewEvaluationContext(u, g, conn)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, ec)
}

// Run evaluates every scheduled event of ec.Mode in subgraph order until
// the batch is full. Any fetch, decode or read failure fails the whole run.
func (c *Checker) Run(ctx context.Context, ec domain.EvaluationContext) (*domain.Report, error) {
	start := time.Now()
	report, err := c.run(ctx, ec)

	status := "error"
	switch {
	case err != nil:
	case report.Result.CanExec:
		status = "exec"
	default:
		status = "idle"
	}
	observability.RecordRun(ec.Mode.String(), status, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	observability.UpdateRunSizes(ec.Mode.String(), report.Candidates, len(report.Batch))
	return report, nil
}

func (c *Checker) run(ctx context.Context, ec domain.EvaluationContext) (*domain.Report, error) {
	reader, err := c.networks.Reader(ec.Connection.NetworkNameOrChainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgs, err)
	}

	runID := uuid.NewString()
	logger := c.logger.With(
		zap.String("run_id", runID),
		zap.Stringer("mode", ec.Mode),
		zap.Stringer("scheduler", ec.Scheduler),
		zap.Int64("now", ec.Now),
	)

	p := pipelineFor(ec.Mode)
	records, err := c.fetcher.FetchAll(ctx, ec.SubgraphName, p.entity())
	if err != nil {
		return nil, err
	}
	events := make([]domain.ScheduledEvent, 0, len(records))
	for i, raw := range records {
		ev, err := domain.DecodeEvent(ec.Mode, i, raw)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	logger.Info("fetched scheduled events", zap.Int("total", len(events)))

	report := &domain.Report{
		RunID:      runID,
		Context:    ec,
		Candidates: len(events),
	}

	st := newChainState(reader, ec, logger)
	b := newBatch(c.batchSize, ec.Scheduler)
	for i, ev := range events {
		if b.full() {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		eval, err := p.evaluate(ctx, st, ev)
		if err != nil {
			return nil, fmt.Errorf("evaluate event %d (user %s, pool %s): %w", i, ev.User.Hex(), ev.Pool.Hex(), err)
		}
		eval.RunID = runID
		eval.Index = i
		report.Evaluations = append(report.Evaluations, eval)

		if !eval.Eligible {
			continue
		}
		if err := b.add(ev); err != nil {
			return nil, err
		}
	}

	result, err := b.result()
	if err != nil {
		return nil, err
	}
	report.Batch = b.events
	report.Result = result

	logger.Info("assembled batch",
		zap.Int("batch", b.len()),
		zap.Int("evaluated", len(report.Evaluations)),
		zap.Bool("can_exec", result.CanExec),
	)
	return report, nil
}

// IsInvalidArgs reports whether err was caused by malformed host arguments.
func IsInvalidArgs(err error) bool {
	return errors.Is(err, domain.ErrInvalidArgs)
}
