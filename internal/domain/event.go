package domain

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ScheduledEvent is a pending deposit or withdrawal request read from the subgraph.
// Scheduled is only set for deposits.
type ScheduledEvent struct {
	User      common.Address
	Pool      common.Address
	Scheduled *big.Int
}

// RecordShapeError is returned when a fetched record lacks a required field
// or carries a value that cannot be parsed.
type RecordShapeError struct {
	Index int
	Field string
	Value string
}

func (e *RecordShapeError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("record %d: missing %s", e.Index, e.Field)
	}
	return fmt.Sprintf("record %d: invalid %s %q", e.Index, e.Field, e.Value)
}

// rawEvent mirrors the subgraph entity; pointers distinguish absent fields.
type rawEvent struct {
	User      *string `json:"user"`
	Pool      *string `json:"pool"`
	Scheduled *string `json:"scheduled"`
}

// DecodeEvent parses one subgraph record. The scheduled amount is required
// in deposit mode and ignored otherwise.
func DecodeEvent(mode Mode, index int, raw json.RawMessage) (ScheduledEvent, error) {
	var r rawEvent
	if err := json.Unmarshal(raw, &r); err != nil {
		return ScheduledEvent{}, &RecordShapeError{Index: index, Field: "record", Value: string(raw)}
	}

	user, err := decodeAddress(index, "user", r.User)
	if err != nil {
		return ScheduledEvent{}, err
	}
	pool, err := decodeAddress(index, "pool", r.Pool)
	if err != nil {
		return ScheduledEvent{}, err
	}

	ev := ScheduledEvent{User: user, Pool: pool}
	if mode != ModeDeposit {
		return ev, nil
	}

	if r.Scheduled == nil || *r.Scheduled == "" {
		return ScheduledEvent{}, &RecordShapeError{Index: index, Field: "scheduled"}
	}
	amount, ok := new(big.Int).SetString(*r.Scheduled, 10)
	if !ok || amount.Sign() < 0 {
		return ScheduledEvent{}, &RecordShapeError{Index: index, Field: "scheduled", Value: *r.Scheduled}
	}
	ev.Scheduled = amount
	return ev, nil
}

func decodeAddress(index int, field string, v *string) (common.Address, error) {
	if v == nil || *v == "" {
		return common.Address{}, &RecordShapeError{Index: index, Field: field}
	}
	if !common.IsHexAddress(*v) {
		return common.Address{}, &RecordShapeError{Index: index, Field: field, Value: *v}
	}
	return common.HexToAddress(*v), nil
}
