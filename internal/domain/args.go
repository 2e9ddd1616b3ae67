package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidArgs is returned when the host-supplied arguments cannot be decoded.
var ErrInvalidArgs = errors.New("invalid checker arguments")

// UserArgs are the task-specific arguments registered with the automation network.
type UserArgs struct {
	SchedulerType    string `json:"schedulerType"`
	SchedulerAddress string `json:"schedulerAddress"`
	SubgraphName     string `json:"subgraphName"`
}

// GelatoArgs are supplied by the automation network on every invocation.
// Only TimeStamp affects the decision.
type GelatoArgs struct {
	GasPrice  string `json:"gasPrice"`
	TimeStamp string `json:"timeStamp"`
}

// Connection selects the network the contract reads are issued against.
// An empty selector means the default network.
type Connection struct {
	NetworkNameOrChainID string `json:"networkNameOrChainId,omitempty"`
	Node                 string `json:"node,omitempty"`
}

// EvaluationContext is immutable for the duration of a checker run.
type EvaluationContext struct {
	Mode         Mode
	Now          int64
	Scheduler    common.Address
	SubgraphName string
	Connection   Connection
}

// DecodeUserArgs decodes the userArgs blob.
func DecodeUserArgs(b []byte) (UserArgs, error) {
	var a UserArgs
	if err := json.Unmarshal(b, &a); err != nil {
		return UserArgs{}, fmt.Errorf("%w: decode userArgs: %v", ErrInvalidArgs, err)
	}
	return a, nil
}

// DecodeGelatoArgs decodes the gelatoArgs blob.
func DecodeGelatoArgs(b []byte) (GelatoArgs, error) {
	var a GelatoArgs
	if err := json.Unmarshal(b, &a); err != nil {
		return GelatoArgs{}, fmt.Errorf("%w: decode gelatoArgs: %v", ErrInvalidArgs, err)
	}
	return a, nil
}

// NewEvaluationContext validates host arguments and builds the run context.
func NewEvaluationContext(u UserArgs, g GelatoArgs, conn Connection) (EvaluationContext, error) {
	mode, err := ParseMode(u.SchedulerType)
	if err != nil {
		return EvaluationContext{}, err
	}
	if !common.IsHexAddress(u.SchedulerAddress) {
		return EvaluationContext{}, fmt.Errorf("%w: scheduler address %q", ErrInvalidArgs, u.SchedulerAddress)
	}
	if u.SubgraphName == "" {
		return EvaluationContext{}, fmt.Errorf("%w: subgraph name is required", ErrInvalidArgs)
	}
	now, err := strconv.ParseInt(g.TimeStamp, 10, 64)
	if err != nil {
		return EvaluationContext{}, fmt.Errorf("%w: timestamp %q", ErrInvalidArgs, g.TimeStamp)
	}

	return EvaluationContext{
		Mode:         mode,
		Now:          now,
		Scheduler:    common.HexToAddress(u.SchedulerAddress),
		SubgraphName: u.SubgraphName,
		Connection:   conn,
	}, nil
}
