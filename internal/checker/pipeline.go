package checker

import (
	"context"
	"math/big"

	"opium-checker/internal/domain"
	"opium-checker/internal/subgraph"
)

// pipeline holds what differs between deposit and withdrawal runs: the
// subgraph entity, the amount under test and the coefficient key.
type pipeline interface {
	entity() subgraph.Entity
	evaluate(ctx context.Context, st *chainState, ev domain.ScheduledEvent) (domain.Evaluation, error)
}

func pipelineFor(mode domain.Mode) pipeline {
	if mode == domain.ModeDeposit {
		return depositPipeline{}
	}
	return withdrawalPipeline{}
}

// depositPipeline tests the scheduled amount against the coefficient of the
// pool's underlying token.
type depositPipeline struct{}

func (depositPipeline) entity() subgraph.Entity {
	return subgraph.ScheduledDeposits
}

func (depositPipeline) evaluate(ctx context.Context, st *chainState, ev domain.ScheduledEvent) (domain.Evaluation, error) {
	underlying, err := st.underlyingOf(ctx, ev.Pool)
	if err != nil {
		return domain.Evaluation{}, err
	}
	coefficient, err := st.reserveCoefficient(ctx, underlying)
	if err != nil {
		return domain.Evaluation{}, err
	}
	inPhase, err := st.isStakingPhase(ctx, ev.Pool)
	if err != nil {
		return domain.Evaluation{}, err
	}

	return newEvaluation(ev, ev.Scheduled, coefficient, inPhase), nil
}

// withdrawalPipeline tests the withdrawable pool balance against the
// coefficient of the pool itself.
type withdrawalPipeline struct{}

func (withdrawalPipeline) entity() subgraph.Entity {
	return subgraph.ScheduledWithdrawals
}

func (withdrawalPipeline) evaluate(ctx context.Context, st *chainState, ev domain.ScheduledEvent) (domain.Evaluation, error) {
	coefficient, err := st.reserveCoefficient(ctx, ev.Pool)
	if err != nil {
		return domain.Evaluation{}, err
	}
	balance, err := st.reader.BalanceOf(ctx, ev.Pool, ev.User)
	if err != nil {
		return domain.Evaluation{}, err
	}
	allowance, err := st.reader.Allowance(ctx, ev.Pool, ev.User, st.scheduler)
	if err != nil {
		return domain.Evaluation{}, err
	}
	inPhase, err := st.isStakingPhase(ctx, ev.Pool)
	if err != nil {
		return domain.Evaluation{}, err
	}

	return newEvaluation(ev, WithdrawableAmount(balance, allowance), coefficient, inPhase), nil
}

func newEvaluation(ev domain.ScheduledEvent, amount, coefficient *big.Int, inPhase bool) domain.Evaluation {
	return domain.Evaluation{
		User:           ev.User,
		Pool:           ev.Pool,
		Amount:         amount.String(),
		Coefficient:    coefficient.String(),
		InStakingPhase: inPhase,
		Eligible:       ExceedsCoefficient(amount, coefficient) && inPhase,
	}
}
