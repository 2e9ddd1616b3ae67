package checker

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"opium-checker/internal/cache"
	"opium-checker/internal/chain"
	"opium-checker/internal/domain"
)

// chainState memoizes the pool-level reads of one run. Every key is read
// at most once; nothing outlives the run.
type chainState struct {
	reader    chain.Reader
	scheduler common.Address
	now       int64

	stakingPhase *cache.ReadThrough[common.Address, bool]
	underlying   *cache.ReadThrough[common.Address, common.Address]
	coefficients *cache.ReadThrough[common.Address, *big.Int]
}

func newChainState(reader chain.Reader, ec domain.EvaluationContext, logger *zap.Logger) *chainState {
	s := &chainState{
		reader:    reader,
		scheduler: ec.Scheduler,
		now:       ec.Now,
	}

	s.stakingPhase = cache.NewReadThrough(s.loadStakingPhase,
		cache.WithOnResolve(func(pool common.Address, v bool) {
			logger.Debug("resolved staking phase", zap.Stringer("pool", pool), zap.Bool("in_phase", v))
		}))
	s.underlying = cache.NewReadThrough(s.loadUnderlying,
		cache.WithOnResolve(func(pool, underlying common.Address) {
			logger.Debug("resolved underlying", zap.Stringer("pool", pool), zap.Stringer("underlying", underlying))
		}))
	s.coefficients = cache.NewReadThrough(s.loadCoefficient,
		cache.WithOnResolve(func(key common.Address, v *big.Int) {
			logger.Debug("resolved reserve coefficient", zap.Stringer("key", key), zap.Stringer("coefficient", v))
		}))

	return s
}

// isStakingPhase reports whether pool is inside its staking window at the run's timestamp.
func (s *chainState) isStakingPhase(ctx context.Context, pool common.Address) (bool, error) {
	return s.stakingPhase.GetOrCompute(ctx, pool)
}

// underlyingOf returns the pool's underlying token.
func (s *chainState) underlyingOf(ctx context.Context, pool common.Address) (common.Address, error) {
	return s.underlying.GetOrCompute(ctx, pool)
}

// reserveCoefficient returns the scheduler threshold for key.
func (s *chainState) reserveCoefficient(ctx context.Context, key common.Address) (*big.Int, error) {
	return s.coefficients.GetOrCompute(ctx, key)
}

func (s *chainState) loadStakingPhase(ctx context.Context, pool common.Address) (bool, error) {
	timing, err := readTiming(ctx, s.reader, pool)
	if err != nil {
		return false, err
	}
	return timing.InStakingPhase(s.now), nil
}

func (s *chainState) loadUnderlying(ctx context.Context, pool common.Address) (common.Address, error) {
	return s.reader.Underlying(ctx, pool)
}

func (s *chainState) loadCoefficient(ctx context.Context, key common.Address) (*big.Int, error) {
	return s.reader.ReserveCoefficient(ctx, s.scheduler, key)
}

// readTiming performs the four reads the staking window depends on.
func readTiming(ctx context.Context, reader chain.Reader, pool common.Address) (PoolTiming, error) {
	derivative, err := reader.Derivative(ctx, pool)
	if err != nil {
		return PoolTiming{}, err
	}
	epoch, err := reader.Epoch(ctx, pool)
	if err != nil {
		return PoolTiming{}, err
	}
	staking, err := reader.StakingPhase(ctx, pool)
	if err != nil {
		return PoolTiming{}, err
	}
	delta, err := reader.TimeDelta(ctx, pool)
	if err != nil {
		return PoolTiming{}, err
	}

	var t PoolTiming
	for _, f := range []struct {
		method string
		src    *big.Int
		dst    *int64
	}{
		{"derivative", derivative.EndTime, &t.Maturity},
		{"EPOCH", epoch, &t.Epoch},
		{"STAKING_PHASE", staking, &t.StakingPhase},
		{"TIME_DELTA", delta, &t.TimeDelta},
	} {
		if f.src == nil || !f.src.IsInt64() {
			return PoolTiming{}, &chain.ContractReadError{
				Address: pool,
				Method:  f.method,
				Err:     fmt.Errorf("value %v does not fit in seconds", f.src),
			}
		}
		*f.dst = f.src.Int64()
	}
	return t, nil
}
