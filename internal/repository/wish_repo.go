package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/wishpage/internal/domain"
	"gorm.io/gorm"
)

// ErrWishNotFound is returned when no wish exists for an id.
var ErrWishNotFound = errors.New("wish not found")

// WishRepository persists wish records. Records are write-once.
type WishRepository struct {
	db *gorm.DB
}

// NewWishRepository creates a new WishRepository.
func NewWishRepository(db *gorm.DB) *WishRepository {
	return &WishRepository{db: db}
}

// Create assigns a fresh id and inserts the wish.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - wish: record to persist; ID and CreatedAt are set here.
//
// Returns:
//   - error: non-nil if the insert fails.
func (r *WishRepository) Create(ctx context.Context, wish *domain.Wish) error {
	wish.ID = uuid.New().String()
	if wish.CreatedAt.IsZero() {
		wish.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(wish).Error; err != nil {
		return fmt.Errorf("failed to insert wish: %w", err)
	}
	return nil
}

// GetByID retrieves a wish by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: wish ID.
//
// Returns:
//   - *domain.Wish: the record if found.
//   - error: ErrWishNotFound when absent, other errors on query failure.
func (r *WishRepository) GetByID(ctx context.Context, id string) (*domain.Wish, error) {
	var wish domain.Wish
	if err := r.db.WithContext(ctx).First(&wish, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWishNotFound
		}
		return nil, fmt.Errorf("failed to load wish: %w", err)
	}
	return &wish, nil
}

// Exists reports whether a wish with id exists.
func (r *WishRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Wish{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
