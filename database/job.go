package database

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeBatch is a single run over the input directory
	JobTypeBatch JobType = "batch"
	// JobTypeScheduled is a batch started by the cron schedule
	JobTypeScheduled JobType = "scheduled"
)

// Job is one batch run
type Job struct {
	ID          ulid.ULID  `json:"id"`
	Type        JobType    `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`    // 0-100
	CurrentStep string     `json:"currentStep"` // file being converted
	TotalSteps  int        `json:"totalSteps"`  // number of input files
	Message     string     `json:"message"`
	Error       string     `json:"error,omitempty"`
	Result      string     `json:"result,omitempty"` // JSON summary
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ConversionStatus is the outcome of one file
type ConversionStatus string

const (
	ConversionSucceeded ConversionStatus = "succeeded"
	ConversionFailed    ConversionStatus = "failed"
)

// Conversion is the outcome of converting one PDF
type Conversion struct {
	ID        ulid.ULID        `json:"id"`
	JobID     ulid.ULID        `json:"jobId"`
	Source    string           `json:"source"`
	Output    string           `json:"output"`
	Format    string           `json:"format"`
	Status    ConversionStatus `json:"status"`
	Pages     int              `json:"pages"`
	Bytes     int64            `json:"bytes"`
	Duration  time.Duration    `json:"duration"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// JobSummary is stored as the result of a finished job
type JobSummary struct {
	FilesProcessed int   `json:"filesProcessed"`
	FilesTotal     int   `json:"filesTotal"`
	BytesWritten   int64 `json:"bytesWritten"`
	Errors         int   `json:"errors"`
}
