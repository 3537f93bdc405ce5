package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/prompts"
)

func TestGenerateCutePhotosSixPerDescription(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res, err := f.derivatives.GenerateCutePhotos(ctx, "w1", []string{"a dog in a park"})
	require.NoError(t, err)

	assert.Equal(t, int32(6), f.images.calls.Load())
	assert.Len(t, res.GeneratedImages, 6)
	assert.Empty(t, res.Failures)

	objs, err := f.media.Objects(ctx, "w1", domain.CategoryGeneratedImages)
	require.NoError(t, err)
	assert.Len(t, objs, 6)
	for _, url := range res.GeneratedImages {
		assert.True(t, strings.HasPrefix(url, "http://media.test/media/w1/generated-images/"), url)
	}

	for _, sc := range prompts.Scenarios {
		_, ok := f.images.prompts.Load(prompts.SanitizeImagePrompt("a dog in a park", sc, "cute style"))
		assert.True(t, ok, sc)
	}

	job := f.jobs.last()
	require.NotNil(t, job)
	assert.Equal(t, domain.JobKindCutePhotos, job.Kind)
	assert.Equal(t, 6, job.TotalItems)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
}

func TestGenerateCutePhotosScalesWithDescriptions(t *testing.T) {
	f := newFixture()

	res, err := f.derivatives.GenerateCutePhotos(context.Background(), "w1", []string{"a cat", "", "two kids"})
	require.NoError(t, err)
	assert.Equal(t, int32(12), f.images.calls.Load())
	assert.Len(t, res.GeneratedImages, 12)
}

func TestGenerateCutePhotosPartialSuccess(t *testing.T) {
	f := newFixture()
	f.images.failOn = func(prompt string) bool { return strings.Contains(prompt, "picnic") }

	res, err := f.derivatives.GenerateCutePhotos(context.Background(), "w1", []string{"a dog"})
	require.NoError(t, err)
	assert.Len(t, res.GeneratedImages, 5)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0].Item, "picnic")
	assert.Equal(t, domain.JobStatusPartial, f.jobs.last().Status)

	objs, err := f.media.Objects(context.Background(), "w1", domain.CategoryGeneratedImages)
	require.NoError(t, err)
	assert.Len(t, objs, 5)
}

func TestGenerateCutePhotosErrors(t *testing.T) {
	f := newFixture()

	_, err := f.derivatives.GenerateCutePhotos(context.Background(), "w1", nil)
	assert.ErrorIs(t, err, ErrNoDescriptions)

	f.images.failAll = true
	_, err = f.derivatives.GenerateCutePhotos(context.Background(), "w1", []string{"a dog"})
	assert.ErrorIs(t, err, ErrAllTasksFailed)
}

func TestGenerateSongTwiceStoresTwoObjects(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	req := SongRequest{Prompt: "birthday song", MakeInstrumental: false, WaitAudio: true}

	first, err := f.derivatives.GenerateSong(ctx, "w1", req)
	require.NoError(t, err)
	second, err := f.derivatives.GenerateSong(ctx, "w1", req)
	require.NoError(t, err)

	assert.NotEqual(t, first.Key, second.Key)
	assert.Contains(t, first.S3URL, "signature=")

	objs, err := f.media.Objects(ctx, "w1", domain.CategoryAudios)
	require.NoError(t, err)
	assert.Len(t, objs, 2)
	assert.Equal(t, int32(2), f.songs.calls.Load())
	assert.True(t, f.songs.last.WaitAudio)
}

func TestGenerateSongSeedsPromptFromWish(t *testing.T) {
	f := newFixture(&domain.Wish{ID: "w1", Content: domain.WishContent{
		Title:       "Happy Birthday",
		Description: "an upbeat song about hiking",
	}})

	_, err := f.derivatives.GenerateSong(context.Background(), "w1", SongRequest{})
	require.NoError(t, err)
	assert.Equal(t, "an upbeat song about hiking", f.songs.last.Prompt)

	_, err = f.derivatives.GenerateSong(context.Background(), "unknown", SongRequest{})
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestGenerateSongFailureIsRecorded(t *testing.T) {
	f := newFixture()
	f.songs.err = errUpstream

	_, err := f.derivatives.GenerateSong(context.Background(), "w1", SongRequest{Prompt: "x"})
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, domain.JobStatusFailed, f.jobs.last().Status)

	_, err = f.media.Objects(context.Background(), "w1", domain.CategoryAudios)
	assert.Error(t, err)
}
