package models

import "time"

// Trigger names what started a run.
type Trigger string

const (
	TriggerStartup  Trigger = "startup"
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
	TriggerCLI      Trigger = "cli"
)

// Status is the outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Run is the history record of one sync pass. Runs are append-only and are
// never consulted by the sync algorithm itself.
type Run struct {
	ID              string     `json:"id"`
	Trigger         Trigger    `json:"trigger"`
	Status          Status     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      time.Time  `json:"finished_at"`
	WatermarkBefore *time.Time `json:"watermark_before,omitempty"`
	WatermarkAfter  *time.Time `json:"watermark_after,omitempty"`
	Fetched         int        `json:"fetched"`
	Processed       int        `json:"processed"`
	Skipped         int        `json:"skipped"`
	Error           string     `json:"error,omitempty"`
}

// Duration is how long the run took.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run completed without error.
func (r *Run) Succeeded() bool {
	return r.Status == StatusSucceeded
}
