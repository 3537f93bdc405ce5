package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/logger"
	"github.com/timmy/wishpage/internal/prompts"
)

// ErrEmptyPrompt is returned when a song is requested without a prompt and none can be derived.
var ErrEmptyPrompt = errors.New("prompt is required")

// DerivativeService generates illustrations and songs for a wish and stores them in its namespace.
type DerivativeService struct {
	media       *MediaService
	images      ImageGenerator
	music       SongGenerator
	wishes      WishStore
	pool        *FanOut
	jobs        *JobService
	styleSuffix string
	scenarios   []string
}

// DerivativeConfig holds the generation knobs.
type DerivativeConfig struct {
	StyleSuffix string
	Scenarios   []string // defaults to prompts.Scenarios
}

// NewDerivativeService creates a new DerivativeService. wishes may be nil; it only seeds empty song prompts.
func NewDerivativeService(
	media *MediaService,
	images ImageGenerator,
	music SongGenerator,
	wishes WishStore,
	pool *FanOut,
	jobs *JobService,
	cfg *DerivativeConfig,
) *DerivativeService {
	scenarios := cfg.Scenarios
	if len(scenarios) == 0 {
		scenarios = prompts.Scenarios
	}
	return &DerivativeService{
		media:       media,
		images:      images,
		music:       music,
		wishes:      wishes,
		pool:        pool,
		jobs:        jobs,
		styleSuffix: cfg.StyleSuffix,
		scenarios:   scenarios,
	}
}

// CutePhotosResult lists the public URLs of stored illustrations, in description-major order.
type CutePhotosResult struct {
	GeneratedImages []string      `json:"generatedImages"`
	Failures        []TaskFailure `json:"failures,omitempty"`
}

// GenerateCutePhotos creates one illustration per (description, scenario) pair.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - wishID: namespace that receives {wishID}/generated-images/{uuid}.
//   - descriptions: photo descriptions; blank entries are skipped.
//
// Returns:
//   - *CutePhotosResult: stored image URLs plus failures for pairs that did not complete.
//   - error: ErrNoDescriptions, or ErrAllTasksFailed when nothing was stored.
func (s *DerivativeService) GenerateCutePhotos(ctx context.Context, wishID string, descriptions []string) (*CutePhotosResult, error) {
	ctx = logger.SetWishID(ctx, wishID)

	var descs []string
	for _, d := range descriptions {
		if strings.TrimSpace(d) != "" {
			descs = append(descs, d)
		}
	}
	if len(descs) == 0 {
		return nil, ErrNoDescriptions
	}

	total := len(descs) * len(s.scenarios)
	promptFor := func(i int) string {
		return prompts.SanitizeImagePrompt(descs[i/len(s.scenarios)], s.scenarios[i%len(s.scenarios)], s.styleSuffix)
	}

	ctx, run := s.jobs.begin(ctx, wishID, domain.JobKindCutePhotos, total)
	start := time.Now()

	results := RunTasks(ctx, s.pool, total, func(ctx context.Context, i int) (string, error) {
		data, err := s.images.GenerateImage(ctx, promptFor(i))
		if err != nil {
			return "", err
		}
		key, err := s.media.StoreGenerated(ctx, wishID, domain.CategoryGeneratedImages, data)
		if err != nil {
			return "", err
		}
		return s.media.PublicURL(key), nil
	})

	out := &CutePhotosResult{GeneratedImages: make([]string, 0, total)}
	for _, r := range results {
		if r.Err == nil {
			out.GeneratedImages = append(out.GeneratedImages, r.Value)
		}
	}
	out.Failures = Failures(results, promptFor)
	run.finish(ctx, len(out.GeneratedImages), len(out.Failures), failureMessages(out.Failures))

	logger.With(logger.Fields{
		logger.FieldCategory: string(domain.CategoryGeneratedImages),
	}).WithCount(len(out.GeneratedImages)).WithDuration(start).Info(ctx, "Cute photos generated")

	if len(out.GeneratedImages) == 0 {
		return out, fmt.Errorf("%w: %s", ErrAllTasksFailed, out.Failures[0].Error)
	}
	return out, nil
}

// SongResult carries the signed URL of a stored song.
type SongResult struct {
	S3URL string `json:"s3Url"`
	Key   string `json:"-"`
}

// GenerateSong requests a song and stores it as a new object under {wishID}/audios/.
// Every call stores a new object; repeated calls are not merged here.
func (s *DerivativeService) GenerateSong(ctx context.Context, wishID string, req SongRequest) (*SongResult, error) {
	ctx = logger.SetWishID(ctx, wishID)

	if strings.TrimSpace(req.Prompt) == "" {
		req.Prompt = s.seedPrompt(ctx, wishID)
		if req.Prompt == "" {
			return nil, ErrEmptyPrompt
		}
	}

	ctx, run := s.jobs.begin(ctx, wishID, domain.JobKindSong, 1)

	result, err := s.generateSong(ctx, wishID, req)
	if err != nil {
		run.finish(ctx, 0, 1, []string{err.Error()})
		return nil, err
	}
	run.finish(ctx, 1, 0, nil)
	return result, nil
}

func (s *DerivativeService) generateSong(ctx context.Context, wishID string, req SongRequest) (*SongResult, error) {
	data, err := s.music.GenerateSong(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("song generation failed: %w", err)
	}
	key, err := s.media.StoreGenerated(ctx, wishID, domain.CategoryAudios, data)
	if err != nil {
		return nil, err
	}
	url, err := s.media.SignedURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s: %w", key, err)
	}
	return &SongResult{S3URL: url, Key: key}, nil
}

func (s *DerivativeService) seedPrompt(ctx context.Context, wishID string) string {
	if s.wishes == nil {
		return ""
	}
	wish, err := s.wishes.GetByID(ctx, wishID)
	if err != nil {
		logger.CtxWarn(ctx, "No wish to seed song prompt: %v", err)
		return ""
	}
	return prompts.SongPromptFallback(wish.Content.Title, wish.Content.Recipient, wish.Content.Description)
}
