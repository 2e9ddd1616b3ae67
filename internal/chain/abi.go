package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// PoolABI covers the staking pool views read by the checker.
const PoolABI = `[
 {"type":"function","name":"derivative","stateMutability":"view","inputs":[],
  "outputs":[{"name":"","type":"tuple","components":[
    {"name":"margin","type":"uint256"},
    {"name":"endTime","type":"uint256"},
    {"name":"oracleId","type":"address"},
    {"name":"token","type":"address"},
    {"name":"syntheticId","type":"address"}]}]},
 {"type":"function","name":"EPOCH","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"STAKING_PHASE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"TIME_DELTA","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"underlying","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"balanceOf","stateMutability":"view",
  "inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"allowance","stateMutability":"view",
  "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

// SchedulerABI covers the deposit/withdrawal scheduler.
const SchedulerABI = `[
 {"type":"function","name":"getReserveCoefficient","stateMutability":"view",
  "inputs":[{"name":"asset","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"execute","stateMutability":"nonpayable",
  "inputs":[{"name":"user","type":"address"},{"name":"pool","type":"address"}],"outputs":[]}
]`

// MulticallABI is the Multicall (v1) aggregate entry point.
const MulticallABI = `[
 {"type":"function","name":"aggregate","stateMutability":"nonpayable",
  "inputs":[{"name":"calls","type":"tuple[]","components":[
    {"name":"target","type":"address"},
    {"name":"callData","type":"bytes"}]}],
  "outputs":[{"name":"blockNumber","type":"uint256"},{"name":"returnData","type":"bytes[]"}]}
]`

// Parsed ABIs.
var (
	poolABI      = mustParse(PoolABI)
	schedulerABI = mustParse(SchedulerABI)
	multicallABI = mustParse(MulticallABI)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
