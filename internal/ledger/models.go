package ledger

import (
	"time"

	"stutterprep/internal/pipeline"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Run is one stage invocation.
type Run struct {
	ID           string
	Stage        string
	Status       Status
	InputRoot    string
	OutputRoot   string
	StartedAt    time.Time
	FinishedAt   time.Time
	Processed    int
	Skipped      int
	Failed       int
	ErrorMessage string
}

// Duration returns the wall time of a finished run, or zero.
func (r Run) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Skip is an item a run did not produce.
type Skip struct {
	RunID   string
	Item    string
	Outcome pipeline.Outcome
	Reason  string
	Detail  string
}
