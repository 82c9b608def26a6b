package database

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
)

// BunJob represents the jobs table for Bun ORM
type BunJob struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID          string     `bun:"id,pk"`
	Type        string     `bun:"type,notnull"`
	Status      string     `bun:"status,notnull"`
	Progress    int        `bun:"progress,notnull,default:0"`
	CurrentStep string     `bun:"current_step,notnull,default:''"`
	TotalSteps  int        `bun:"total_steps,notnull,default:0"`
	Message     string     `bun:"message,notnull,default:''"`
	Error       string     `bun:"error,nullzero"`
	Result      string     `bun:"result,nullzero"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	StartedAt   *time.Time `bun:"started_at,nullzero"`
	CompletedAt *time.Time `bun:"completed_at,nullzero"`
}

// ToJob converts BunJob to Job
func (bj *BunJob) ToJob() (*Job, error) {
	parsedULID, err := ulid.Parse(bj.ID)
	if err != nil {
		return nil, err
	}
	return &Job{
		ID:          parsedULID,
		Type:        JobType(bj.Type),
		Status:      JobStatus(bj.Status),
		Progress:    bj.Progress,
		CurrentStep: bj.CurrentStep,
		TotalSteps:  bj.TotalSteps,
		Message:     bj.Message,
		Error:       bj.Error,
		Result:      bj.Result,
		CreatedAt:   bj.CreatedAt,
		UpdatedAt:   bj.UpdatedAt,
		StartedAt:   bj.StartedAt,
		CompletedAt: bj.CompletedAt,
	}, nil
}

// FromJob converts Job to BunJob
func FromJob(job *Job) *BunJob {
	return &BunJob{
		ID:          job.ID.String(),
		Type:        string(job.Type),
		Status:      string(job.Status),
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		TotalSteps:  job.TotalSteps,
		Message:     job.Message,
		Error:       job.Error,
		Result:      job.Result,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
}

// BunConversion represents the conversions table for Bun ORM
type BunConversion struct {
	bun.BaseModel `bun:"table:conversions,alias:c"`

	ID         string    `bun:"id,pk"`
	JobID      string    `bun:"job_id,notnull"`
	Source     string    `bun:"source,notnull"`
	Output     string    `bun:"output,notnull"`
	Format     string    `bun:"format,notnull"`
	Status     string    `bun:"status,notnull"`
	Pages      int       `bun:"pages,notnull,default:0"`
	Bytes      int64     `bun:"bytes,notnull,default:0"`
	DurationMs int64     `bun:"duration_ms,notnull,default:0"`
	Error      string    `bun:"error,nullzero"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ToConversion converts BunConversion to Conversion
func (bc *BunConversion) ToConversion() (*Conversion, error) {
	id, err := ulid.Parse(bc.ID)
	if err != nil {
		return nil, err
	}
	jobID, err := ulid.Parse(bc.JobID)
	if err != nil {
		return nil, err
	}
	return &Conversion{
		ID:        id,
		JobID:     jobID,
		Source:    bc.Source,
		Output:    bc.Output,
		Format:    bc.Format,
		Status:    ConversionStatus(bc.Status),
		Pages:     bc.Pages,
		Bytes:     bc.Bytes,
		Duration:  time.Duration(bc.DurationMs) * time.Millisecond,
		Error:     bc.Error,
		CreatedAt: bc.CreatedAt,
	}, nil
}

// FromConversion converts Conversion to BunConversion
func FromConversion(c *Conversion) *BunConversion {
	return &BunConversion{
		ID:         c.ID.String(),
		JobID:      c.JobID.String(),
		Source:     c.Source,
		Output:     c.Output,
		Format:     c.Format,
		Status:     string(c.Status),
		Pages:      c.Pages,
		Bytes:      c.Bytes,
		DurationMs: c.Duration.Milliseconds(),
		Error:      c.Error,
		CreatedAt:  c.CreatedAt,
	}
}
