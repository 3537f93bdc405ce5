package service

import (
	"context"
	"strings"
	"time"

	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/logger"
)

// JobStore persists generation job records.
type JobStore interface {
	Start(ctx context.Context, wishID string, kind domain.JobKind, total int) (*domain.GenerationJob, error)
	Save(ctx context.Context, job *domain.GenerationJob) error
	ListByWish(ctx context.Context, wishID string, limit int) ([]domain.GenerationJob, error)
}

// JobService records generation runs. A nil store turns recording off.
type JobService struct {
	store JobStore
}

// NewJobService creates a new JobService.
func NewJobService(store JobStore) *JobService {
	return &JobService{store: store}
}

// List returns the recorded runs for a wish, newest first.
func (s *JobService) List(ctx context.Context, wishID string) ([]domain.GenerationJob, error) {
	if s == nil || s.store == nil {
		return []domain.GenerationJob{}, nil
	}
	return s.store.ListByWish(ctx, wishID, 0)
}

// jobRun tracks one in-flight job. Recording failures are logged, never returned.
type jobRun struct {
	store JobStore
	job   *domain.GenerationJob
	start time.Time
}

func (s *JobService) begin(ctx context.Context, wishID string, kind domain.JobKind, total int) (context.Context, *jobRun) {
	run := &jobRun{start: time.Now()}
	if s == nil || s.store == nil {
		return ctx, run
	}
	job, err := s.store.Start(ctx, wishID, kind, total)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to record %s job start: %v", kind, err)
		return ctx, run
	}
	run.store = s.store
	run.job = job
	return logger.SetJobID(ctx, job.ID), run
}

func (r *jobRun) finish(ctx context.Context, succeeded, failed int, errs []string) {
	status := domain.JobStatusCompleted
	switch {
	case failed > 0 && succeeded == 0:
		status = domain.JobStatusFailed
	case failed > 0:
		status = domain.JobStatusPartial
	}
	logger.With(logger.Fields{
		"succeeded": succeeded,
		"failed":    failed,
	}).WithDuration(r.start).WithStatus(string(status)).Info(ctx, "Generation job finished")

	if r.job == nil {
		return
	}
	r.job.SucceededItems = succeeded
	r.job.FailedItems = failed
	r.job.ErrorLog = strings.Join(errs, "\n")
	r.job.Finish(time.Now())
	// The request context may already be cancelled; the record should still land.
	if err := r.store.Save(context.WithoutCancel(ctx), r.job); err != nil {
		logger.CtxWarn(ctx, "Failed to record job %s result: %v", r.job.ID, err)
	}
}

func failureMessages(failures []TaskFailure) []string {
	msgs := make([]string, len(failures))
	for i, f := range failures {
		msgs[i] = f.Error
	}
	return msgs
}
