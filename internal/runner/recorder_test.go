package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opium-checker/internal/domain"
	"opium-checker/internal/storage/memory"
)

type fakePublisher struct {
	published []*domain.Decision
	err       error
}

func (p *fakePublisher) PublishDecision(_ context.Context, d *domain.Decision) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, d)
	return nil
}

var testContext = domain.EvaluationContext{
	Mode:         domain.ModeDeposit,
	Now:          1700000000,
	Scheduler:    common.HexToAddress("0x5c4e000000000000000000000000000000000001"),
	SubgraphName: "opium-staking",
}

func executableReport() *domain.Report {
	return &domain.Report{
		RunID:      "run-1",
		Context:    testContext,
		Candidates: 2,
		Evaluations: []domain.Evaluation{
			{RunID: "run-1", Index: 0, Amount: "10", Coefficient: "50"},
			{RunID: "run-1", Index: 1, Amount: "100", Coefficient: "50", InStakingPhase: true, Eligible: true},
		},
		Batch:  []domain.ScheduledEvent{{}},
		Result: domain.CheckerResult{CanExec: true, ExecData: "0x252dba42"},
	}
}

func TestRecorder_Executable(t *testing.T) {
	decisions := memory.NewDecisionStore()
	evaluations := memory.NewEvaluationStore()
	pub := &fakePublisher{}
	rec := NewRecorder(decisions, evaluations, pub, nil)
	ctx := context.Background()

	d := rec.Record(ctx, testContext, executableReport(), nil)
	assert.Equal(t, "run-1", d.RunID)
	assert.True(t, d.CanExec)
	assert.Equal(t, 1, d.BatchSize)

	stored, err := decisions.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "0x252dba42", stored.ExecData)
	assert.Equal(t, testContext.Scheduler.Hex(), stored.Scheduler)

	evals, err := evaluations.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, evals, 2)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "run-1", pub.published[0].RunID)
}

func TestRecorder_Idle(t *testing.T) {
	pub := &fakePublisher{}
	rec := NewRecorder(memory.NewDecisionStore(), memory.NewEvaluationStore(), pub, nil)

	report := executableReport()
	report.Batch = nil
	report.Result = domain.NoExec()

	d := rec.Record(context.Background(), testContext, report, nil)
	assert.False(t, d.CanExec)
	assert.Empty(t, pub.published)
}

func TestRecorder_FailedRun(t *testing.T) {
	decisions := memory.NewDecisionStore()
	pub := &fakePublisher{}
	rec := NewRecorder(decisions, memory.NewEvaluationStore(), pub, nil)
	ctx := context.Background()

	d := rec.Record(ctx, testContext, nil, errors.New("subgraph unavailable"))
	assert.NotEmpty(t, d.RunID)
	assert.Equal(t, "subgraph unavailable", d.Error)
	assert.False(t, d.CanExec)

	stored, err := decisions.GetByRunID(ctx, d.RunID)
	require.NoError(t, err)
	assert.Equal(t, "subgraph unavailable", stored.Error)
	assert.Empty(t, pub.published)
}

func TestRecorder_StoreAndPublishFailuresAreNotFatal(t *testing.T) {
	decisions := memory.NewDecisionStore()
	rec := NewRecorder(decisions, memory.NewEvaluationStore(), &fakePublisher{err: errors.New("redis down")}, nil)
	ctx := context.Background()

	first := rec.Record(ctx, testContext, executableReport(), nil)
	// Same run ID again: both stores reject it.
	second := rec.Record(ctx, testContext, executableReport(), nil)

	assert.Equal(t, first.RunID, second.RunID)
	assert.True(t, second.CanExec)
}

func TestRecorder_NilPublisher(t *testing.T) {
	rec := NewRecorder(memory.NewDecisionStore(), memory.NewEvaluationStore(), nil, nil)

	d := rec.Record(context.Background(), testContext, executableReport(), nil)
	assert.True(t, d.CanExec)
}
