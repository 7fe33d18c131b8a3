package sync

import (
	"fmt"
	"time"

	"github.com/feedbird/feedbird/backend/internal/errors"
)

// PageFailure records one isolated per-page error for the run report.
type PageFailure struct {
	PageID   string           `json:"page_id"`
	PageName string           `json:"page_name"`
	Platform string           `json:"platform"`
	Kind     errors.ErrorKind `json:"kind"`
	Error    string           `json:"error"`
}

// RunReport summarizes one sync run. Callers only rely on the run having
// attempted every reachable page, and read the report for logging and
// metrics.
type RunReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Discovered          int `json:"discovered"`
	Synced              int `json:"synced"`
	SkippedExisting     int `json:"skipped_existing"`
	SkippedUnregistered int `json:"skipped_unregistered"`
	Failed              int `json:"failed"`

	Failures []PageFailure `json:"failures,omitempty"`
}

// Summary renders a one-line human-readable outcome.
func (r *RunReport) Summary() string {
	return fmt.Sprintf("%d pages discovered: %d synced, %d already snapshotted, %d unregistered, %d failed",
		r.Discovered, r.Synced, r.SkippedExisting, r.SkippedUnregistered, r.Failed)
}
