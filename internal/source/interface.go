package source

import (
	"context"

	"github.com/timmy/wishpage/internal/domain"
)

// MediaItem is one file offered by a source for upload into a wish namespace.
type MediaItem struct {
	SourceID  string // Unique ID within the source
	Name      string // File name used for the object key
	Category  domain.MediaCategory
	LocalPath string
	Size      int64
}

// Source defines the interface for media sources.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	GetDisplayName() string

	// FetchBatch fetches a batch of items starting from the given cursor.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - cursor: pagination cursor or empty for first page.
	//   - limit: maximum number of items to fetch.
	// Returns:
	//   - items: batch of media items.
	//   - nextCursor: cursor for the next batch or empty if done.
	//   - err: non-nil if fetching fails.
	FetchBatch(ctx context.Context, cursor string, limit int) (items []MediaItem, nextCursor string, err error)
}
