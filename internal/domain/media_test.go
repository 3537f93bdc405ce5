package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaCategory(t *testing.T) {
	for raw, want := range map[string]MediaCategory{
		"images":           CategoryImages,
		"image":            CategoryImages,
		"VIDEOS":           CategoryVideos,
		"audio":            CategoryAudios,
		"generated-images": CategoryGeneratedImages,
	} {
		got, err := ParseMediaCategory(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseMediaCategory("documents")
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}

func TestUserUploadable(t *testing.T) {
	assert.True(t, CategoryImages.UserUploadable())
	assert.True(t, CategoryAudios.UserUploadable())
	assert.False(t, CategoryGeneratedImages.UserUploadable())
}

func TestMediaKey(t *testing.T) {
	assert.Equal(t, "w1/images/", MediaPrefix("w1", CategoryImages))
	assert.Equal(t, "w1/images/beach_day.jpg", MediaKey("w1", CategoryImages, "beach day.jpg"))
	assert.Equal(t, "w1/videos/clip.mp4", MediaKey("w1", CategoryVideos, "../../etc/clip.mp4"))
	assert.Equal(t, "w1/images/photo.png", MediaKey("w1", CategoryImages, `C:\Users\me\photo.png`))
}

func TestValidateWishID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"3f2b9c1e-7a4d-4e2b-9c1a-0d5e6f7a8b9c", true},
		{"w1", true},
		{"", false},
		{"w1/images", false},
		{"..", false},
		{"w1..", false},
		{`w1\images`, false},
		{"w1?x=1", false},
		{strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		err := ValidateWishID(tt.id)
		if tt.valid {
			assert.NoError(t, err, tt.id)
		} else {
			assert.ErrorIs(t, err, ErrInvalidWishID, tt.id)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "file", SanitizeFileName(""))
	assert.Equal(t, "file", SanitizeFileName(".."))
	assert.Equal(t, "file", SanitizeFileName("???"))
	assert.Equal(t, "caf.jpg", SanitizeFileName("café.jpg"))
	assert.Equal(t, "my_photo-1.JPG", SanitizeFileName("my photo-1.JPG"))
}

func TestGenerationJobFinish(t *testing.T) {
	now := time.Now()

	j := &GenerationJob{TotalItems: 6, SucceededItems: 6}
	j.Finish(now)
	assert.Equal(t, JobStatusCompleted, j.Status)
	require.NotNil(t, j.CompletedAt)

	j = &GenerationJob{TotalItems: 6, SucceededItems: 4, FailedItems: 2}
	j.Finish(now)
	assert.Equal(t, JobStatusPartial, j.Status)

	j = &GenerationJob{TotalItems: 6, FailedItems: 6}
	j.Finish(now)
	assert.Equal(t, JobStatusFailed, j.Status)
}
