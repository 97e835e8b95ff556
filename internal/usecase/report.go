package usecase

import (
	"time"

	"github.com/google/uuid"
)

// Report aggregates one run's per-outcome counts. Partial success does not
// abort a run; the report is how failures surface.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Published     int // videos driven to PUBLISHED this run
	AlreadyDone   int // skipped because the ledger says PUBLISHED
	Failed        int // failed this run but still within the retry budget
	Permanent     int // at or over the retry budget; needs an operator
	ChannelErrors int // channels skipped whole (unreachable, ledger error)
}

// NewReport starts a report with a fresh run identifier.
func NewReport(startedAt time.Time) Report {
	return Report{RunID: uuid.NewString(), StartedAt: startedAt}
}

// ExitCode is non-zero when any video ended beyond its retry budget, so a
// scheduler can alert on it. Transient per-channel failures retry silently
// on the next run.
func (r Report) ExitCode() int {
	if r.Permanent > 0 {
		return 1
	}
	return 0
}
