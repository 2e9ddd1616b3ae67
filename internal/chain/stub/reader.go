package stub

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"opium-checker/internal/chain"
)

// ErrNotFound is returned when no value is configured for a read.
var ErrNotFound = errors.New("not found")

// Pool holds the configured views of one pool.
type Pool struct {
	Maturity     int64
	Epoch        int64
	StakingPhase int64
	TimeDelta    int64
	Underlying   common.Address
}

type holding struct {
	pool, user common.Address
}

// Reader implements chain.Reader for testing and counts every read by method.
type Reader struct {
	Pools        map[common.Address]Pool
	Coefficients map[common.Address]*big.Int
	Balances     map[holding]*big.Int
	Allowances   map[holding]*big.Int

	// Errors forces a method to fail.
	Errors map[string]error
	Calls  map[string]int
}

// NewReader creates a new stub reader.
func NewReader() *Reader {
	return &Reader{
		Pools:        make(map[common.Address]Pool),
		Coefficients: make(map[common.Address]*big.Int),
		Balances:     make(map[holding]*big.Int),
		Allowances:   make(map[holding]*big.Int),
		Errors:       make(map[string]error),
		Calls:        make(map[string]int),
	}
}

// Compile-time interface check.
var _ chain.Reader = (*Reader)(nil)

// AddPool configures a pool.
func (r *Reader) AddPool(addr common.Address, p Pool) {
	r.Pools[addr] = p
}

// SetCoefficient configures the reserve coefficient for key.
func (r *Reader) SetCoefficient(key common.Address, v *big.Int) {
	r.Coefficients[key] = v
}

// SetPosition configures a user's pool balance and the allowance granted to the scheduler.
func (r *Reader) SetPosition(pool, user common.Address, balance, allowance *big.Int) {
	r.Balances[holding{pool, user}] = balance
	r.Allowances[holding{pool, user}] = allowance
}

// Total returns the number of reads across all methods.
func (r *Reader) Total() int {
	n := 0
	for _, c := range r.Calls {
		n += c
	}
	return n
}

func (r *Reader) enter(method string, addr common.Address) error {
	r.Calls[method]++
	if err, ok := r.Errors[method]; ok {
		return &chain.ContractReadError{Address: addr, Method: method, Err: err}
	}
	return nil
}

func (r *Reader) pool(method string, addr common.Address) (Pool, error) {
	if err := r.enter(method, addr); err != nil {
		return Pool{}, err
	}
	p, ok := r.Pools[addr]
	if !ok {
		return Pool{}, &chain.ContractReadError{Address: addr, Method: method, Err: ErrNotFound}
	}
	return p, nil
}

func (r *Reader) Derivative(_ context.Context, pool common.Address) (chain.Derivative, error) {
	p, err := r.pool("derivative", pool)
	if err != nil {
		return chain.Derivative{}, err
	}
	return chain.Derivative{Margin: big.NewInt(0), EndTime: big.NewInt(p.Maturity)}, nil
}

func (r *Reader) Epoch(_ context.Context, pool common.Address) (*big.Int, error) {
	p, err := r.pool("EPOCH", pool)
	if err != nil {
		return nil, err
	}
	return big.NewInt(p.Epoch), nil
}

func (r *Reader) StakingPhase(_ context.Context, pool common.Address) (*big.Int, error) {
	p, err := r.pool("STAKING_PHASE", pool)
	if err != nil {
		return nil, err
	}
	return big.NewInt(p.StakingPhase), nil
}

func (r *Reader) TimeDelta(_ context.Context, pool common.Address) (*big.Int, error) {
	p, err := r.pool("TIME_DELTA", pool)
	if err != nil {
		return nil, err
	}
	return big.NewInt(p.TimeDelta), nil
}

func (r *Reader) Underlying(_ context.Context, pool common.Address) (common.Address, error) {
	p, err := r.pool("underlying", pool)
	if err != nil {
		return common.Address{}, err
	}
	return p.Underlying, nil
}

func (r *Reader) BalanceOf(_ context.Context, pool, account common.Address) (*big.Int, error) {
	if err := r.enter("balanceOf", pool); err != nil {
		return nil, err
	}
	v, ok := r.Balances[holding{pool, account}]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(v), nil
}

func (r *Reader) Allowance(_ context.Context, pool, owner, _ common.Address) (*big.Int, error) {
	if err := r.enter("allowance", pool); err != nil {
		return nil, err
	}
	v, ok := r.Allowances[holding{pool, owner}]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(v), nil
}

func (r *Reader) ReserveCoefficient(_ context.Context, scheduler, key common.Address) (*big.Int, error) {
	if err := r.enter("getReserveCoefficient", scheduler); err != nil {
		return nil, err
	}
	v, ok := r.Coefficients[key]
	if !ok {
		return nil, &chain.ContractReadError{Address: scheduler, Method: "getReserveCoefficient", Err: ErrNotFound}
	}
	return new(big.Int).Set(v), nil
}
