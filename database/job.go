package database

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobType represents the type of job
type JobType string

const (
	JobTypeAnalysis JobType = "analysis"
	JobTypeCleanup  JobType = "cleanup"
)

// Job represents a background job or operation
type Job struct {
	ID          ulid.ULID  `json:"id"`
	Type        JobType    `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`        // 0-100
	CurrentStep string     `json:"currentStep"`     // Human-readable current step
	TotalSteps  int        `json:"totalSteps"`
	Message     string     `json:"message"`
	Error       string     `json:"error,omitempty"`
	Result      string     `json:"result,omitempty"` // JSON result data
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// AnalysisSummary is stored as the result of an analysis job
type AnalysisSummary struct {
	DocumentID string `json:"documentId"`
	Entries    int    `json:"entries"`
	Found      int    `json:"found"`
	NotFound   int    `json:"notFound"`
	Errors     int    `json:"errors"`
}

// Finished reports whether the job has stopped, whatever the outcome
func (j *Job) Finished() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}
