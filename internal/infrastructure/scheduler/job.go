package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a download job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobKind is what a job does with its dataset
type JobKind string

const (
	// JobKindDownload loads a dataset that is not up to date
	JobKindDownload JobKind = "download"
	// JobKindRefresh reloads a dataset regardless of its state
	JobKindRefresh JobKind = "refresh"
)

// Valid reports whether k is a known kind
func (k JobKind) Valid() bool {
	return k == JobKindDownload || k == JobKindRefresh
}

// Job is one Eurostat dataset download
type Job struct {
	ID           uuid.UUID  `json:"id"`
	Kind         JobKind    `json:"kind"`
	DatasetCode  string     `json:"dataset_code"`
	DatasetTitle string     `json:"dataset_title,omitempty"`
	Status       JobStatus  `json:"status"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	RetryCount   int        `json:"retry_count"`
	MaxRetries   int        `json:"max_retries"`
	NextRetryAt  *time.Time `json:"next_retry_at,omitempty"`
}

// NewJob creates a pending job
func NewJob(kind JobKind, code, title string, maxRetries int) *Job {
	return &Job{
		ID:           uuid.New(),
		Kind:         kind,
		DatasetCode:  code,
		DatasetTitle: title,
		Status:       JobStatusPending,
		CreatedAt:    time.Now(),
		MaxRetries:   maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.NextRetryAt = nil
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry puts the job back to pending until delay has passed
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	next := time.Now().Add(delay)
	j.NextRetryAt = &next
	j.CompletedAt = nil
}

// Active reports whether the job is pending or running
func (j *Job) Active() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusRunning
}

// RetryDelay doubles base for every retry already made
func RetryDelay(base time.Duration, retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	return base << retryCount
}
