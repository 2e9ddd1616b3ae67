package checker

import "math/big"

// PoolTiming holds the pool constants the staking-phase window is derived from.
// All values are seconds.
type PoolTiming struct {
	Maturity     int64
	Epoch        int64
	StakingPhase int64
	TimeDelta    int64
}

// Window returns the open interval (start, end) during which the pool is in
// its staking phase:
//
//	maturity - EPOCH + TIME_DELTA < now < maturity - EPOCH + STAKING_PHASE - TIME_DELTA
func (t PoolTiming) Window() (start, end int64) {
	epochStart := t.Maturity - t.Epoch
	return epochStart + t.TimeDelta, epochStart + t.StakingPhase - t.TimeDelta
}

// InStakingPhase reports whether now falls strictly inside the window.
func (t PoolTiming) InStakingPhase(now int64) bool {
	start, end := t.Window()
	return start < now && now < end
}

// WithdrawableAmount is the balance the scheduler may pull on behalf of the
// user. An allowance that does not cover the whole balance makes the
// position ineligible rather than partially withdrawable.
func WithdrawableAmount(balance, allowance *big.Int) *big.Int {
	if allowance.Cmp(balance) >= 0 {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}

// ExceedsCoefficient reports whether amount is strictly greater than the reserve coefficient.
func ExceedsCoefficient(amount, coefficient *big.Int) bool {
	return amount.Cmp(coefficient) > 0
}
