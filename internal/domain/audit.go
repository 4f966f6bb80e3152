package domain

import "time"

// CheckType identifies the audit check that produced a finding
type CheckType string

const (
	CheckTwoFactorDisabled     CheckType = "two_factor_disabled"
	CheckTeamWithoutMaintainer CheckType = "team_without_maintainer"
	CheckRepoWithoutAdmin      CheckType = "repo_without_admin"
)

// RunStatus is the outcome of a recorded audit run
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// AuditRun records one execution of an audit command
type AuditRun struct {
	ID         string    `json:"id"`
	Org        string    `json:"org"`
	Command    string    `json:"command"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Finding is a single governance problem detected during a run
type Finding struct {
	RunID     string    `json:"run_id"`
	Check     CheckType `json:"check"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
