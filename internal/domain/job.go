package domain

import "time"

// JobKind identifies which generation step a job ran.
type JobKind string

const (
	JobKindDescriptions JobKind = "descriptions"
	JobKindCutePhotos   JobKind = "cute-photos"
	JobKindSong         JobKind = "song"
)

// JobStatus represents the status of a generation job.
// Values include JobStatusRunning, JobStatusCompleted, JobStatusPartial, and JobStatusFailed.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusPartial   JobStatus = "partial"
	JobStatusFailed    JobStatus = "failed"
)

// GenerationJob records one run of a generation step against a wish.
type GenerationJob struct {
	ID             string     `gorm:"type:text;primaryKey" json:"id"`
	WishID         string     `gorm:"type:text;not null;index:idx_generation_jobs_wish" json:"wish_id"`
	Kind           JobKind    `gorm:"type:text;not null" json:"kind"`
	Status         JobStatus  `gorm:"type:text;default:running" json:"status"`
	TotalItems     int        `gorm:"default:0" json:"total_items"`
	SucceededItems int        `gorm:"default:0" json:"succeeded_items"`
	FailedItems    int        `gorm:"default:0" json:"failed_items"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorLog       string     `gorm:"type:text" json:"error_log,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for GenerationJob.
func (GenerationJob) TableName() string {
	return "generation_jobs"
}

// Finish settles the job status from its counters.
func (j *GenerationJob) Finish(now time.Time) {
	j.CompletedAt = &now
	switch {
	case j.FailedItems == 0:
		j.Status = JobStatusCompleted
	case j.SucceededItems == 0:
		j.Status = JobStatusFailed
	default:
		j.Status = JobStatusPartial
	}
}
