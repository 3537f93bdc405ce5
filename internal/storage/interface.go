package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a key or prefix holds no objects.
// List returns it for an empty prefix: callers decide whether "nothing yet" is an error.
var ErrNotFound = errors.New("object not found")

// DefaultSignedURLTTL is the lifetime of signed GET URLs unless configured otherwise.
const DefaultSignedURLTTL = time.Hour

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage defines the interface for object storage operations
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download downloads an object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// List returns the objects under prefix in key order, or ErrNotFound when there are none
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// PresignGet returns a time-limited GET URL for a private object
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// GetURL returns the public (unsigned) URL for an object
	GetURL(key string) string

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}
