package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/wishpage/internal/logger"
)

// Pipeline chains the generation steps for an existing wish: describe, illustrate, compose.
type Pipeline struct {
	wishes       WishStore
	descriptions *DescriptionService
	derivatives  *DerivativeService
}

// NewPipeline creates a new Pipeline.
func NewPipeline(wishes WishStore, descriptions *DescriptionService, derivatives *DerivativeService) *Pipeline {
	return &Pipeline{wishes: wishes, descriptions: descriptions, derivatives: derivatives}
}

// PipelineOptions selects which steps run.
type PipelineOptions struct {
	SkipPhotos       bool
	SkipSong         bool
	SongPrompt       string // empty derives a prompt from the wish content
	MakeInstrumental bool
}

// PipelineReport collects the output of every step that ran.
type PipelineReport struct {
	WishID       string             `json:"id"`
	Descriptions *DescriptionResult `json:"descriptions,omitempty"`
	Photos       *CutePhotosResult  `json:"photos,omitempty"`
	Song         *SongResult        `json:"song,omitempty"`
	Duration     time.Duration      `json:"duration"`
}

// Run executes the steps in order and stops at the first step that fails outright.
// A wish without uploaded images skips straight to the song.
func (p *Pipeline) Run(ctx context.Context, wishID string, opts PipelineOptions) (*PipelineReport, error) {
	start := time.Now()
	ctx = logger.SetWishID(ctx, wishID)
	report := &PipelineReport{WishID: wishID}

	wish, err := p.wishes.GetByID(ctx, wishID)
	if err != nil {
		return nil, err
	}

	descs, err := p.descriptions.Describe(ctx, wishID)
	switch {
	case errors.Is(err, ErrNoImages):
		logger.CtxInfo(ctx, "No uploaded images, skipping illustrations")
	case err != nil:
		return report, fmt.Errorf("describe step: %w", err)
	default:
		report.Descriptions = descs
	}

	if !opts.SkipPhotos && report.Descriptions != nil {
		photos, err := p.derivatives.GenerateCutePhotos(ctx, wishID, report.Descriptions.Descriptions)
		if err != nil {
			return report, fmt.Errorf("cute photos step: %w", err)
		}
		report.Photos = photos
	}

	if !opts.SkipSong {
		prompt := opts.SongPrompt
		if prompt == "" {
			prompt = wish.Content.Description
		}
		song, err := p.derivatives.GenerateSong(ctx, wishID, SongRequest{
			Prompt:           prompt,
			MakeInstrumental: opts.MakeInstrumental,
			WaitAudio:        true,
		})
		if err != nil {
			return report, fmt.Errorf("song step: %w", err)
		}
		report.Song = song
	}

	report.Duration = time.Since(start)
	logger.With(nil).WithDuration(start).Info(ctx, "Pipeline finished")
	return report, nil
}
