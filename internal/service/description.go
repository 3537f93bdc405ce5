package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/logger"
	"github.com/timmy/wishpage/internal/prompts"
	"github.com/timmy/wishpage/internal/storage"
)

// ImageDescriber returns a natural-language description of an image.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, system, user string, imageData []byte, mimeType string) (string, error)
}

// DescriptionService derives one description per uploaded image.
// Descriptions are recomputed on every call and never persisted.
type DescriptionService struct {
	media     *MediaService
	describer ImageDescriber
	pool      *FanOut
	jobs      *JobService
}

// NewDescriptionService creates a new DescriptionService.
func NewDescriptionService(media *MediaService, describer ImageDescriber, pool *FanOut, jobs *JobService) *DescriptionService {
	return &DescriptionService{media: media, describer: describer, pool: pool, jobs: jobs}
}

// DescriptionResult holds descriptions in listing order plus any per-image failures.
type DescriptionResult struct {
	Descriptions []string      `json:"descriptions"`
	Failures     []TaskFailure `json:"failures,omitempty"`
}

// Describe runs the vision model over every object under {wishID}/images/.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - wishID: wish namespace.
//
// Returns:
//   - *DescriptionResult: descriptions for the images that succeeded.
//   - error: ErrNoImages when nothing is uploaded, ErrAllTasksFailed when no image could be described.
func (s *DescriptionService) Describe(ctx context.Context, wishID string) (*DescriptionResult, error) {
	ctx = logger.SetWishID(ctx, wishID)

	objects, err := s.media.Objects(ctx, wishID, domain.CategoryImages)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoImages
		}
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	if len(objects) == 0 {
		return nil, ErrNoImages
	}

	ctx, run := s.jobs.begin(ctx, wishID, domain.JobKindDescriptions, len(objects))

	results := RunTasks(ctx, s.pool, len(objects), func(ctx context.Context, i int) (string, error) {
		data, err := s.media.Read(ctx, objects[i].Key)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", objects[i].Key, err)
		}
		mtype := mimetype.Detect(data)
		desc, err := s.describer.DescribeImage(ctx, prompts.DescribeSystemPrompt, prompts.DescribeUserPrompt, data, mtype.String())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(desc), nil
	})

	out := &DescriptionResult{Descriptions: make([]string, 0, len(objects))}
	for _, r := range results {
		if r.Err == nil {
			out.Descriptions = append(out.Descriptions, r.Value)
		}
	}
	out.Failures = Failures(results, func(i int) string { return objects[i].Key })
	run.finish(ctx, len(out.Descriptions), len(out.Failures), failureMessages(out.Failures))

	if len(out.Descriptions) == 0 {
		return out, fmt.Errorf("%w: %s", ErrAllTasksFailed, out.Failures[0].Error)
	}
	return out, nil
}
