package db

import "time"

// Stage statuses
const (
	StatusRunning   = "running"
	StatusOK        = "ok"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

type Run struct {
	ID        string
	Command   string
	DataDir   string
	StartedAt time.Time
}

type StageRun struct {
	ID         string
	RunID      string
	Stage      string
	Status     string
	Input      int
	Output     int
	Skipped    int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Duration is zero while the stage is still running
func (s StageRun) Duration() time.Duration {
	if s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// StageResult is what a finished stage reports back to the ledger.
type StageResult struct {
	Status  string
	Input   int
	Output  int
	Skipped map[string]int
	Err     error
}
