package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testPool      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testScheduler = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	testUser      = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	testToken     = common.HexToAddress("0x00000000000000000000000000000000000000d4")
)

// fakeCaller answers eth_call by method selector, packing outputs with the real ABI.
type fakeCaller struct {
	t        *testing.T
	contract abi.ABI
	outputs  map[string][]interface{}
	calls    []ethereum.CallMsg
	raw      []byte
	err      error
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	if block != nil {
		f.t.Errorf("expected latest block, got %v", block)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.raw != nil {
		return f.raw, nil
	}

	method, err := f.contract.MethodById(msg.Data[:4])
	require.NoError(f.t, err)
	out, ok := f.outputs[method.Name]
	require.True(f.t, ok, "unexpected call to %s", method.Name)
	data, err := method.Outputs.Pack(out...)
	require.NoError(f.t, err)
	return data, nil
}

func TestContractReader_PoolViews(t *testing.T) {
	caller := &fakeCaller{t: t, contract: poolABI, outputs: map[string][]interface{}{
		"derivative": {struct {
			Margin      *big.Int
			EndTime     *big.Int
			OracleId    common.Address
			Token       common.Address
			SyntheticId common.Address
		}{big.NewInt(5), big.NewInt(1700604800), testToken, testToken, testToken}},
		"EPOCH":         {big.NewInt(604800)},
		"STAKING_PHASE": {big.NewInt(86400)},
		"TIME_DELTA":    {big.NewInt(900)},
		"underlying":    {testToken},
		"balanceOf":     {big.NewInt(100)},
		"allowance":     {big.NewInt(150)},
	}}
	r := NewContractReader(caller)
	ctx := context.Background()

	d, err := r.Derivative(ctx, testPool)
	require.NoError(t, err)
	assert.Equal(t, int64(1700604800), d.EndTime.Int64())
	assert.Equal(t, testToken, d.Token)

	epoch, err := r.Epoch(ctx, testPool)
	require.NoError(t, err)
	assert.Equal(t, int64(604800), epoch.Int64())

	staking, err := r.StakingPhase(ctx, testPool)
	require.NoError(t, err)
	assert.Equal(t, int64(86400), staking.Int64())

	delta, err := r.TimeDelta(ctx, testPool)
	require.NoError(t, err)
	assert.Equal(t, int64(900), delta.Int64())

	underlying, err := r.Underlying(ctx, testPool)
	require.NoError(t, err)
	assert.Equal(t, testToken, underlying)

	balance, err := r.BalanceOf(ctx, testPool, testUser)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Int64())

	allowance, err := r.Allowance(ctx, testPool, testUser, testScheduler)
	require.NoError(t, err)
	assert.Equal(t, int64(150), allowance.Int64())

	for _, msg := range caller.calls {
		assert.Equal(t, testPool, *msg.To)
	}

	// allowance(owner, spender) argument order
	last := caller.calls[len(caller.calls)-1]
	args, err := poolABI.Methods["allowance"].Inputs.Unpack(last.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, testUser, args[0])
	assert.Equal(t, testScheduler, args[1])
}

func TestContractReader_ReserveCoefficient(t *testing.T) {
	caller := &fakeCaller{t: t, contract: schedulerABI, outputs: map[string][]interface{}{
		"getReserveCoefficient": {big.NewInt(42)},
	}}
	r := NewContractReader(caller)

	v, err := r.ReserveCoefficient(context.Background(), testScheduler, testToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())

	require.Len(t, caller.calls, 1)
	assert.Equal(t, testScheduler, *caller.calls[0].To)
	args, err := schedulerABI.Methods["getReserveCoefficient"].Inputs.Unpack(caller.calls[0].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, testToken, args[0])
}

func TestContractReader_Failures(t *testing.T) {
	errRPC := errors.New("connection refused")

	tests := []struct {
		name   string
		caller *fakeCaller
	}{
		{"rpc error", &fakeCaller{t: t, err: errRPC}},
		{"empty return", &fakeCaller{t: t, raw: []byte{}}},
		{"short return", &fakeCaller{t: t, raw: []byte{0x01, 0x02}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewContractReader(tt.caller)
			_, err := r.Epoch(context.Background(), testPool)
			require.Error(t, err)

			var readErr *ContractReadError
			require.True(t, errors.As(err, &readErr))
			assert.Equal(t, "EPOCH", readErr.Method)
			assert.Equal(t, testPool, readErr.Address)
		})
	}
}
