package domain

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluationContext(t *testing.T) {
	u, err := DecodeUserArgs([]byte(`{"schedulerType":"withdrawal","schedulerAddress":"` + testPool + `","subgraphName":"opium-v2"}`))
	require.NoError(t, err)
	g, err := DecodeGelatoArgs([]byte(`{"gasPrice":"10","timeStamp":"1700000000"}`))
	require.NoError(t, err)

	ec, err := NewEvaluationContext(u, g, Connection{NetworkNameOrChainID: "mainnet"})
	require.NoError(t, err)

	assert.Equal(t, ModeWithdrawal, ec.Mode)
	assert.Equal(t, int64(1700000000), ec.Now)
	assert.Equal(t, common.HexToAddress(testPool), ec.Scheduler)
	assert.Equal(t, "opium-v2", ec.SubgraphName)
	assert.Equal(t, "mainnet", ec.Connection.NetworkNameOrChainID)
}

func TestNewEvaluationContext_Invalid(t *testing.T) {
	valid := UserArgs{SchedulerType: "deposit", SchedulerAddress: testPool, SubgraphName: "opium"}
	ts := GelatoArgs{TimeStamp: "1700000000"}

	tests := []struct {
		name string
		u    UserArgs
		g    GelatoArgs
	}{
		{"unknown type", UserArgs{SchedulerType: "stake", SchedulerAddress: testPool, SubgraphName: "opium"}, ts},
		{"bad scheduler", UserArgs{SchedulerType: "deposit", SchedulerAddress: "nope", SubgraphName: "opium"}, ts},
		{"empty subgraph", UserArgs{SchedulerType: "deposit", SchedulerAddress: testPool}, ts},
		{"bad timestamp", valid, GelatoArgs{TimeStamp: "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvaluationContext(tt.u, tt.g, Connection{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArgs))
		})
	}
}

func TestDecodeUserArgs_Malformed(t *testing.T) {
	_, err := DecodeUserArgs([]byte(`{"schedulerType":`))
	assert.True(t, errors.Is(err, ErrInvalidArgs))
}
