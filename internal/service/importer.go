package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/timmy/wishpage/internal/logger"
	"github.com/timmy/wishpage/internal/source"
)

const importBatchSize = 50

// ImportStats holds statistics for an import run.
type ImportStats struct {
	TotalItems    int64         `json:"total"`
	UploadedItems int64         `json:"uploaded"`
	SkippedItems  int64         `json:"skipped"`
	FailedItems   int64         `json:"failed"`
	Failures      []TaskFailure `json:"failures,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// ImportOptions holds options for an import.
type ImportOptions struct {
	Force bool // re-upload files whose key already exists
	Limit int  // 0 imports everything
}

// ImportService uploads files from a source into a wish namespace.
type ImportService struct {
	media *MediaService
	pool  *FanOut
}

// NewImportService creates a new ImportService.
func NewImportService(media *MediaService, pool *FanOut) *ImportService {
	return &ImportService{media: media, pool: pool}
}

// Import pages through src and uploads each item under {wishID}/{category}/{name}.
// Items that already exist are skipped unless opts.Force is set. A failed batch fetch
// stops the run; failed items are reported and the run continues.
func (s *ImportService) Import(ctx context.Context, wishID string, src source.Source, opts *ImportOptions) (*ImportStats, error) {
	if opts == nil {
		opts = &ImportOptions{}
	}
	ctx = logger.SetWishID(ctx, wishID)
	start := time.Now()
	stats := &ImportStats{}

	logger.CtxInfo(ctx, "Starting import from %s", src.GetDisplayName())

	cursor := ""
	for {
		batchLimit := importBatchSize
		if opts.Limit > 0 {
			remaining := opts.Limit - int(stats.TotalItems)
			if remaining <= 0 {
				break
			}
			if remaining < batchLimit {
				batchLimit = remaining
			}
		}

		items, nextCursor, err := src.FetchBatch(ctx, cursor, batchLimit)
		if err != nil {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("failed to fetch batch from %s: %w", src.GetSourceID(), err)
		}
		if len(items) == 0 {
			break
		}
		stats.TotalItems += int64(len(items))

		results := RunTasks(ctx, s.pool, len(items), func(ctx context.Context, i int) (bool, error) {
			return s.importItem(ctx, wishID, items[i], opts.Force)
		})
		for _, r := range results {
			switch {
			case r.Err != nil:
				stats.FailedItems++
			case r.Value:
				stats.UploadedItems++
			default:
				stats.SkippedItems++
			}
		}
		stats.Failures = append(stats.Failures, Failures(results, func(i int) string { return items[i].SourceID })...)

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	stats.Duration = time.Since(start)
	logger.With(logger.Fields{
		"uploaded": stats.UploadedItems,
		"skipped":  stats.SkippedItems,
		"failed":   stats.FailedItems,
	}).WithCount(int(stats.TotalItems)).WithDuration(start).Info(ctx, "Import finished")
	return stats, nil
}

// importItem reports whether the item was uploaded (false means skipped).
func (s *ImportService) importItem(ctx context.Context, wishID string, item source.MediaItem, force bool) (bool, error) {
	if !force {
		exists, err := s.media.Exists(ctx, wishID, item.Category, item.Name)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}

	f, err := os.Open(item.LocalPath)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", item.LocalPath, err)
	}
	defer f.Close()

	if _, err := s.media.Upload(ctx, wishID, item.Category, item.Name, f); err != nil {
		return false, err
	}
	return true, nil
}
