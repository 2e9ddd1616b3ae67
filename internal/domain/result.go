package domain

import "github.com/ethereum/go-ethereum/common"

// CheckerResult is the decision returned to the automation network.
type CheckerResult struct {
	CanExec  bool   `json:"canExec"`
	ExecData string `json:"execData"`
}

// NoExec is the result of a run that found nothing to execute.
func NoExec() CheckerResult {
	return CheckerResult{CanExec: false, ExecData: ""}
}

// Evaluation records the eligibility inputs of one candidate event.
type Evaluation struct {
	RunID          string         `json:"runId"`
	Index          int            `json:"index"`
	User           common.Address `json:"user"`
	Pool           common.Address `json:"pool"`
	Amount         string         `json:"amount"`
	Coefficient    string         `json:"coefficient"`
	InStakingPhase bool           `json:"inStakingPhase"`
	Eligible       bool           `json:"eligible"`
}

// Report is a CheckerResult plus the metadata of the run that produced it.
type Report struct {
	RunID       string
	Context     EvaluationContext
	Candidates  int
	Evaluations []Evaluation
	Batch       []ScheduledEvent
	Result      CheckerResult
}
