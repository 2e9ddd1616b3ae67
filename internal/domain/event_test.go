package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser = "0x1111111111111111111111111111111111111111"
	testPool = "0x2222222222222222222222222222222222222222"
)

func TestDecodeEvent_Deposit(t *testing.T) {
	raw := json.RawMessage(`{"user":"` + testUser + `","pool":"` + testPool + `","scheduled":"1000000000000000000000"}`)

	ev, err := DecodeEvent(ModeDeposit, 0, raw)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress(testUser), ev.User)
	assert.Equal(t, common.HexToAddress(testPool), ev.Pool)
	assert.Equal(t, "1000000000000000000000", ev.Scheduled.String())
}

func TestDecodeEvent_WithdrawalIgnoresScheduled(t *testing.T) {
	raw := json.RawMessage(`{"user":"` + testUser + `","pool":"` + testPool + `"}`)

	ev, err := DecodeEvent(ModeWithdrawal, 3, raw)
	require.NoError(t, err)
	assert.Nil(t, ev.Scheduled)
}

func TestDecodeEvent_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		raw   string
		field string
	}{
		{"missing user", ModeDeposit, `{"pool":"` + testPool + `","scheduled":"1"}`, "user"},
		{"null pool", ModeWithdrawal, `{"user":"` + testUser + `","pool":null}`, "pool"},
		{"missing scheduled", ModeDeposit, `{"user":"` + testUser + `","pool":"` + testPool + `"}`, "scheduled"},
		{"bad scheduled", ModeDeposit, `{"user":"` + testUser + `","pool":"` + testPool + `","scheduled":"1e18"}`, "scheduled"},
		{"negative scheduled", ModeDeposit, `{"user":"` + testUser + `","pool":"` + testPool + `","scheduled":"-5"}`, "scheduled"},
		{"bad address", ModeWithdrawal, `{"user":"0xnothex","pool":"` + testPool + `"}`, "user"},
		{"not an object", ModeWithdrawal, `[1,2]`, "record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvent(tt.mode, 7, json.RawMessage(tt.raw))
			require.Error(t, err)

			var shapeErr *RecordShapeError
			require.True(t, errors.As(err, &shapeErr), "expected RecordShapeError, got %T", err)
			assert.Equal(t, tt.field, shapeErr.Field)
			assert.Equal(t, 7, shapeErr.Index)
		})
	}
}
