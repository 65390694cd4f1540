package models

import "time"

// JobStatus enumerates the states of a processing job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions can leave this status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ProcessingJob tracks one transformation of a source file from submission
// to a downloadable artifact. Progress is a rounded percentage and never
// decreases while the job is processing.
type ProcessingJob struct {
	ID         string     `json:"id"`
	FileID     string     `json:"file_id"`
	Status     JobStatus  `json:"status"`
	Progress   int        `json:"progress"`
	Operations Operations `json:"operations"`
	OutputPath string     `json:"output_path,omitempty"`
	OutputURL  string     `json:"output_url,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
