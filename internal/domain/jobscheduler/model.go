package jobscheduler

import "time"

type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionSucceeded ExecutionStatus = "succeeded"
	ExecutionPartial   ExecutionStatus = "partial"
	ExecutionFailed    ExecutionStatus = "failed"
)

type StepStatus string

const (
	StepSucceeded   StepStatus = "succeeded"
	StepFailed      StepStatus = "failed"
	StepUnavailable StepStatus = "unavailable"
	StepSkipped     StepStatus = "skipped"
)

// StepRecord is the recorded outcome of one step within an execution.
type StepRecord struct {
	Name         string         `json:"name"`
	Status       StepStatus     `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	ElapsedMs    int64          `json:"elapsed_ms"`
	Counts       map[string]int `json:"counts,omitempty"`
	ErrorMessage string         `json:"error,omitempty"`
}

// Execution is one run of a job, either the full daily list or a single step.
type Execution struct {
	ID         string
	JobName    string
	Trigger    string
	Status     ExecutionStatus
	DryRun     bool
	StartedAt  time.Time
	FinishedAt *time.Time
	Steps      []StepRecord
	TraceID    string
}

// Summarize derives the execution status from its steps. Unavailable and
// skipped steps do not count as failures.
func (e Execution) Summarize() ExecutionStatus {
	failed, succeeded := 0, 0
	for _, s := range e.Steps {
		switch s.Status {
		case StepFailed:
			failed++
		case StepSucceeded:
			succeeded++
		}
	}
	switch {
	case failed == 0:
		return ExecutionSucceeded
	case succeeded == 0:
		return ExecutionFailed
	default:
		return ExecutionPartial
	}
}

// FailedSteps lists the names of failed steps in order.
func (e Execution) FailedSteps() []string {
	var out []string
	for _, s := range e.Steps {
		if s.Status == StepFailed {
			out = append(out, s.Name)
		}
	}
	return out
}
