package chain

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func abiConvertCalls(t *testing.T, v interface{}) *[]Call {
	t.Helper()
	return abi.ConvertType(v, new([]Call)).(*[]Call)
}
