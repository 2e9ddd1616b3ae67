package checker

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"opium-checker/internal/chain"
	"opium-checker/internal/domain"
)

// DefaultBatchSize is the number of execute calls folded into one aggregate.
const DefaultBatchSize = 5

// batch accumulates execute calls in inclusion order up to capacity.
type batch struct {
	capacity  int
	scheduler common.Address
	events    []domain.ScheduledEvent
	calls     []chain.Call
}

func newBatch(capacity int, scheduler common.Address) *batch {
	return &batch{capacity: capacity, scheduler: scheduler}
}

func (b *batch) full() bool {
	return len(b.calls) >= b.capacity
}

func (b *batch) len() int {
	return len(b.calls)
}

// add encodes execute(user, pool) against the scheduler.
func (b *batch) add(ev domain.ScheduledEvent) error {
	data, err := chain.EncodeExecute(ev.User, ev.Pool)
	if err != nil {
		return err
	}
	b.events = append(b.events, ev)
	b.calls = append(b.calls, chain.Call{Target: b.scheduler, CallData: data})
	return nil
}

// result folds the batch into a single aggregate call.
func (b *batch) result() (domain.CheckerResult, error) {
	if len(b.calls) == 0 {
		return domain.NoExec(), nil
	}
	data, err := chain.EncodeAggregate(b.calls)
	if err != nil {
		return domain.CheckerResult{}, err
	}
	return domain.CheckerResult{CanExec: true, ExecData: hexutil.Encode(data)}, nil
}
