package domain

import "time"

// Decision is the persisted record of one checker run.
type Decision struct {
	RunID        string    `json:"runId"`
	Mode         Mode      `json:"mode"`
	Scheduler    string    `json:"scheduler"`
	SubgraphName string    `json:"subgraphName"`
	Network      string    `json:"network,omitempty"`
	EvaluatedAt  int64     `json:"evaluatedAt"` // host timestamp, seconds
	Candidates   int       `json:"candidates"`
	BatchSize    int       `json:"batchSize"`
	CanExec      bool      `json:"canExec"`
	ExecData     string    `json:"execData"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewDecision builds the persisted record for a finished run. runErr is the
// run failure, if any; report may be nil when the run failed.
func NewDecision(runID string, ec EvaluationContext, report *Report, runErr error) *Decision {
	d := &Decision{
		RunID:        runID,
		Mode:         ec.Mode,
		Scheduler:    ec.Scheduler.Hex(),
		SubgraphName: ec.SubgraphName,
		Network:      ec.Connection.NetworkNameOrChainID,
		EvaluatedAt:  ec.Now,
		CreatedAt:    time.Now().UTC(),
	}
	if report != nil {
		d.Candidates = report.Candidates
		d.BatchSize = len(report.Batch)
		d.CanExec = report.Result.CanExec
		d.ExecData = report.Result.ExecData
	}
	if runErr != nil {
		d.Error = runErr.Error()
	}
	return d
}
