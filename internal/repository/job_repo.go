package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/wishpage/internal/domain"
	"gorm.io/gorm"
)

// JobRepository stores the generation job log.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Start inserts a running job for the wish and returns it.
func (r *JobRepository) Start(ctx context.Context, wishID string, kind domain.JobKind, total int) (*domain.GenerationJob, error) {
	now := time.Now()
	job := &domain.GenerationJob{
		ID:         uuid.New().String(),
		WishID:     wishID,
		Kind:       kind,
		Status:     domain.JobStatusRunning,
		TotalItems: total,
		StartedAt:  now,
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// Save writes the job's counters and status.
func (r *JobRepository) Save(ctx context.Context, job *domain.GenerationJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// ListByWish returns the jobs recorded for a wish, newest first.
func (r *JobRepository) ListByWish(ctx context.Context, wishID string, limit int) ([]domain.GenerationJob, error) {
	if limit <= 0 {
		limit = 50
	}
	var jobs []domain.GenerationJob
	if err := r.db.WithContext(ctx).
		Where("wish_id = ?", wishID).
		Order("started_at DESC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
