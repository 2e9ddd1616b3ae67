package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Call is one entry of a multicall aggregate.
type Call struct {
	Target   common.Address
	CallData []byte
}

// EncodeExecute packs scheduler.execute(user, pool).
func EncodeExecute(user, pool common.Address) ([]byte, error) {
	data, err := schedulerABI.Pack("execute", user, pool)
	if err != nil {
		return nil, fmt.Errorf("pack execute: %w", err)
	}
	return data, nil
}

// EncodeAggregate packs aggregate((address,bytes)[]) preserving call order.
func EncodeAggregate(calls []Call) ([]byte, error) {
	data, err := multicallABI.Pack("aggregate", calls)
	if err != nil {
		return nil, fmt.Errorf("pack aggregate: %w", err)
	}
	return data, nil
}
