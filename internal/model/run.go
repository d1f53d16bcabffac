package model

import "time"

// RunRecord is one journaled batch outcome. The journal is an audit trail
// for the user; batches never read it back.
type RunRecord struct {
	// ID is the internal unique identifier for this run.
	ID string `json:"id" db:"id"`

	// Button is the preset label used, if any.
	Button string `json:"button" db:"button"`

	TransitionName string `json:"transition_name" db:"transition_name"`

	// IssueKeys is the comma-separated list of keys in input order.
	IssueKeys string `json:"issue_keys" db:"issue_keys"`

	WorklogMinutes int `json:"worklog_minutes" db:"worklog_minutes"`

	Success int `json:"success" db:"success"`
	Failed  int `json:"failed" db:"failed"`

	// Errors is the newline-separated error list of the batch.
	Errors string `json:"errors" db:"errors"`

	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
}
