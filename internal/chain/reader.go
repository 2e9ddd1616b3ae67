package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"opium-checker/internal/observability"
)

// Caller issues eth_call requests. *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Derivative is the pool's derivative descriptor.
type Derivative struct {
	Margin      *big.Int
	EndTime     *big.Int
	OracleId    common.Address
	Token       common.Address
	SyntheticId common.Address
}

// Reader performs the typed contract-view reads the checker depends on.
// Every failure is a *ContractReadError.
type Reader interface {
	Derivative(ctx context.Context, pool common.Address) (Derivative, error)
	Epoch(ctx context.Context, pool common.Address) (*big.Int, error)
	StakingPhase(ctx context.Context, pool common.Address) (*big.Int, error)
	TimeDelta(ctx context.Context, pool common.Address) (*big.Int, error)
	Underlying(ctx context.Context, pool common.Address) (common.Address, error)
	BalanceOf(ctx context.Context, pool, account common.Address) (*big.Int, error)
	Allowance(ctx context.Context, pool, owner, spender common.Address) (*big.Int, error)
	ReserveCoefficient(ctx context.Context, scheduler, key common.Address) (*big.Int, error)
}

// ContractReader implements Reader over a Caller, reading at the latest block.
type ContractReader struct {
	caller Caller
}

// NewContractReader creates a new ContractReader.
func NewContractReader(caller Caller) *ContractReader {
	return &ContractReader{caller: caller}
}

// Compile-time interface check.
var _ Reader = (*ContractReader)(nil)

// call packs method, executes it against to and unpacks the outputs.
func (r *ContractReader) call(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	observability.RecordContractRead(method)

	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, &ContractReadError{Address: to, Method: method, Err: fmt.Errorf("pack: %w", err)}
	}

	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, &ContractReadError{Address: to, Method: method, Err: err}
	}
	if len(raw) == 0 {
		return nil, &ContractReadError{Address: to, Method: method, Err: errors.New("empty return data")}
	}

	out, err := contract.Unpack(method, raw)
	if err != nil {
		return nil, &ContractReadError{Address: to, Method: method, Err: fmt.Errorf("unpack: %w", err)}
	}
	if len(out) == 0 {
		return nil, &ContractReadError{Address: to, Method: method, Err: errors.New("no return values")}
	}
	return out, nil
}

func (r *ContractReader) callUint(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...interface{}) (*big.Int, error) {
	out, err := r.call(ctx, contract, to, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, &ContractReadError{Address: to, Method: method, Err: fmt.Errorf("unexpected return type %T", out[0])}
	}
	return v, nil
}

// Derivative reads the pool's derivative descriptor.
func (r *ContractReader) Derivative(ctx context.Context, pool common.Address) (Derivative, error) {
	out, err := r.call(ctx, poolABI, pool, "derivative")
	if err != nil {
		return Derivative{}, err
	}
	d := *abi.ConvertType(out[0], new(Derivative)).(*Derivative)
	if d.EndTime == nil {
		return Derivative{}, &ContractReadError{Address: pool, Method: "derivative", Err: errors.New("missing endTime")}
	}
	return d, nil
}

// Epoch reads EPOCH().
func (r *ContractReader) Epoch(ctx context.Context, pool common.Address) (*big.Int, error) {
	return r.callUint(ctx, poolABI, pool, "EPOCH")
}

// StakingPhase reads STAKING_PHASE().
func (r *ContractReader) StakingPhase(ctx context.Context, pool common.Address) (*big.Int, error) {
	return r.callUint(ctx, poolABI, pool, "STAKING_PHASE")
}

// TimeDelta reads TIME_DELTA().
func (r *ContractReader) TimeDelta(ctx context.Context, pool common.Address) (*big.Int, error) {
	return r.callUint(ctx, poolABI, pool, "TIME_DELTA")
}

// Underlying reads the pool's underlying token.
func (r *ContractReader) Underlying(ctx context.Context, pool common.Address) (common.Address, error) {
	out, err := r.call(ctx, poolABI, pool, "underlying")
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, &ContractReadError{Address: pool, Method: "underlying", Err: fmt.Errorf("unexpected return type %T", out[0])}
	}
	return addr, nil
}

// BalanceOf reads the pool share balance of account.
func (r *ContractReader) BalanceOf(ctx context.Context, pool, account common.Address) (*big.Int, error) {
	return r.callUint(ctx, poolABI, pool, "balanceOf", account)
}

// Allowance reads the pool share allowance granted by owner to spender.
func (r *ContractReader) Allowance(ctx context.Context, pool, owner, spender common.Address) (*big.Int, error) {
	return r.callUint(ctx, poolABI, pool, "allowance", owner, spender)
}

// ReserveCoefficient reads the scheduler's threshold for key.
func (r *ContractReader) ReserveCoefficient(ctx context.Context, scheduler, key common.Address) (*big.Int, error) {
	return r.callUint(ctx, schedulerABI, scheduler, "getReserveCoefficient", key)
}
