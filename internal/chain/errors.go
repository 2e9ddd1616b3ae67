package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ContractReadError is returned when a contract view call fails or its
// return data cannot be decoded.
type ContractReadError struct {
	Address common.Address
	Method  string
	Err     error
}

func (e *ContractReadError) Error() string {
	return fmt.Sprintf("read %s on %s: %v", e.Method, e.Address.Hex(), e.Err)
}

func (e *ContractReadError) Unwrap() error {
	return e.Err
}
