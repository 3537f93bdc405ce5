package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/wishpage/internal/config"
	"github.com/timmy/wishpage/internal/domain"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "nested", "wishes.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	_, err := InitDB(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestWishRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewWishRepository(newTestDB(t))

	wish := &domain.Wish{
		ComponentType: string(domain.ComponentBirthday),
		Prompt:        "Happy birthday to my sister Anna",
		Content: domain.WishContent{
			Title:         "Happy Birthday Anna",
			Recipient:     "Anna",
			Quotes:        []string{"q1", "q2"},
			Wishes:        []string{"w1"},
			Senders:       "Tom|Berlin",
			ComponentType: string(domain.ComponentBirthday),
			Gender:        domain.GenderFemale,
		},
	}
	require.NoError(t, repo.Create(ctx, wish))
	require.NotEmpty(t, wish.ID)
	assert.False(t, wish.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, wish.ID)
	require.NoError(t, err)
	assert.Equal(t, wish.Content, got.Content)
	assert.Equal(t, "Berlin", got.Content.SenderLocation())
	assert.Equal(t, wish.Prompt, got.Prompt)

	ok, err := repo.Exists(ctx, wish.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWishRepositoryIDsAreDistinct(t *testing.T) {
	ctx := context.Background()
	repo := NewWishRepository(newTestDB(t))

	a := &domain.Wish{Content: domain.WishContent{Title: "a"}}
	b := &domain.Wish{Content: domain.WishContent{Title: "b"}}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	assert.NotEqual(t, a.ID, b.ID)
}

func TestWishRepositoryNotFound(t *testing.T) {
	repo := NewWishRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrWishNotFound)

	ok, err := repo.Exists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJobRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository(newTestDB(t))

	first, err := repo.Start(ctx, "w1", domain.JobKindDescriptions, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, first.Status)

	first.SucceededItems = 2
	first.FailedItems = 1
	first.Finish(time.Now())
	require.NoError(t, repo.Save(ctx, first))

	second, err := repo.Start(ctx, "w1", domain.JobKindSong, 1)
	require.NoError(t, err)
	second.StartedAt = first.StartedAt.Add(time.Second)
	second.SucceededItems = 1
	second.Finish(time.Now())
	require.NoError(t, repo.Save(ctx, second))

	_, err = repo.Start(ctx, "w2", domain.JobKindCutePhotos, 6)
	require.NoError(t, err)

	jobs, err := repo.ListByWish(ctx, "w1", 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, domain.JobKindSong, jobs[0].Kind)
	assert.Equal(t, domain.JobStatusCompleted, jobs[0].Status)
	assert.Equal(t, domain.JobStatusPartial, jobs[1].Status)
	require.NotNil(t, jobs[1].CompletedAt)
}
