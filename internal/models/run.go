package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the overall outcome of one pipeline cycle.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunPartial   RunStatus = "partial"
	RunFailed    RunStatus = "failed"
)

// QuarterRun records one pipeline invocation for a detected quarter.
// Persisted on completion regardless of partial failures, so the outcome
// of every cycle that passed the detection gate is durably recorded.
type QuarterRun struct {
	ID           string             `json:"id" badgerhold:"key"`
	Quarter      QuarterLabel       `json:"quarter"`
	StartedAt    time.Time          `json:"started_at"`
	GeneratedAt  time.Time          `json:"generated_at"`
	Results      []ProcessingResult `json:"results"`
	Consolidated string             `json:"consolidated,omitempty"`
	Status       RunStatus          `json:"status"`
	ReportPath   string             `json:"report_path,omitempty"`
	PackagePath  string             `json:"package_path,omitempty"`
}

// NewQuarterRun starts a run record for the given quarter.
func NewQuarterRun(quarter QuarterLabel) *QuarterRun {
	return &QuarterRun{
		ID:        uuid.New().String(),
		Quarter:   quarter,
		StartedAt: time.Now().UTC(),
	}
}

// ArtifactID identifies this run's persisted output for the notification
// ledger. A new identity is produced only when a new consolidated output
// is generated (quarter + generation timestamp).
func (r *QuarterRun) ArtifactID() string {
	return fmt.Sprintf("%s@%s", r.Quarter, r.GeneratedAt.UTC().Format(time.RFC3339))
}

// SuccessfulResults returns the results that produced a summary, in order.
func (r *QuarterRun) SuccessfulResults() []ProcessingResult {
	out := make([]ProcessingResult, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Succeeded() {
			out = append(out, res)
		}
	}
	return out
}

// Finalize stamps the generation time and derives the overall status from
// the accumulated results.
func (r *QuarterRun) Finalize() {
	r.GeneratedAt = time.Now().UTC()

	if len(r.Results) == 0 {
		r.Status = RunFailed
		return
	}

	success := len(r.SuccessfulResults())
	switch {
	case success == len(r.Results):
		r.Status = RunCompleted
	case success > 0:
		r.Status = RunPartial
	default:
		r.Status = RunFailed
	}
}
