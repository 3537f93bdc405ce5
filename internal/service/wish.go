package service

import (
	"context"
	"strings"
	"time"

	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/logger"
)

// WishStore persists wish records.
type WishStore interface {
	Create(ctx context.Context, wish *domain.Wish) error
	GetByID(ctx context.Context, id string) (*domain.Wish, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// WishService creates wishes from a message and reads them back.
type WishService struct {
	store         WishStore
	generator     *ContentGenerator
	publicBaseURL string
}

// NewWishService creates a new WishService.
func NewWishService(store WishStore, generator *ContentGenerator, publicBaseURL string) *WishService {
	return &WishService{
		store:         store,
		generator:     generator,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Create generates content for message and persists it as a new wish.
func (s *WishService) Create(ctx context.Context, message string) (*domain.Wish, error) {
	start := time.Now()

	content, err := s.generator.Generate(ctx, message)
	if err != nil {
		return nil, err
	}

	wish := &domain.Wish{
		ComponentType: content.ComponentType,
		Prompt:        message,
		Content:       *content,
	}
	if err := s.store.Create(ctx, wish); err != nil {
		return nil, err
	}

	logger.With(logger.Fields{
		logger.FieldWishID:   wish.ID,
		logger.FieldTemplate: wish.ComponentType,
	}).WithDuration(start).Info(ctx, "Wish created")
	return wish, nil
}

// Get loads a wish by id.
func (s *WishService) Get(ctx context.Context, id string) (*domain.Wish, error) {
	return s.store.GetByID(ctx, id)
}

// PageURL returns the public page address for a wish.
func (s *WishService) PageURL(id string) string {
	return s.publicBaseURL + "/wishes/" + id
}

// Exists reports whether a wish with id has been stored.
func (s *WishService) Exists(ctx context.Context, id string) (bool, error) {
	return s.store.Exists(ctx, id)
}
