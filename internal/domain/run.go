package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the state of a scrape run
type RunStatus string

const (
	RunStatusStarted   RunStatus = "started"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// SourceSummary reports one extractor's contribution to a run.
type SourceSummary struct {
	Name            string        `json:"name"`
	Source          string        `json:"source"`
	Success         bool          `json:"success"`
	Error           string        `json:"error,omitempty"`
	Extracted       int           `json:"extracted"`
	NewRoles        int           `json:"new_roles"`
	ExistingRoles   int           `json:"existing_roles"`
	NewSources      int           `json:"new_sources"`
	UpdatedSources  int           `json:"updated_sources"`
	PersistFailures int           `json:"persist_failures"`
	Duration        time.Duration `json:"duration"`
}

// RunSummary is returned by a full scrape run.
// TotalJobs counts records extracted by successful sources.
type RunSummary struct {
	TotalJobs    int             `json:"totalJobs"`
	SuccessCount int             `json:"successCount"`
	FailureCount int             `json:"failureCount"`
	Sources      []SourceSummary `json:"sources"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
}

// Duration returns the wall time of the run
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// ScrapeRun tracks a triggered run
type ScrapeRun struct {
	ID         uuid.UUID   `json:"run_id"`
	Status     RunStatus   `json:"status"`
	Trigger    string      `json:"trigger"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Error      string      `json:"error,omitempty"`
	Summary    *RunSummary `json:"summary,omitempty"`
}
