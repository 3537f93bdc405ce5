package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/logger"
	"github.com/timmy/wishpage/internal/storage"
	_ "golang.org/x/image/webp"
)

// MediaService stores and lists the blobs of each wish namespace.
type MediaService struct {
	storage   storage.ObjectStorage
	signedTTL time.Duration
}

// NewMediaService creates a new MediaService. A non-positive ttl uses storage.DefaultSignedURLTTL.
func NewMediaService(objectStorage storage.ObjectStorage, signedTTL time.Duration) *MediaService {
	if signedTTL <= 0 {
		signedTTL = storage.DefaultSignedURLTTL
	}
	return &MediaService{storage: objectStorage, signedTTL: signedTTL}
}

// UploadResult describes a stored upload.
type UploadResult struct {
	Key         string
	FileName    string
	ContentType string
	Size        int64
}

// Upload stores a user file under {wishID}/{category}/{sanitized name}.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - wishID: namespace owner; not checked against the record store.
//   - category: must be user-uploadable (images, videos, audios).
//   - fileName: client-supplied name, sanitized before use.
//   - r: file content.
//
// Returns:
//   - *UploadResult: stored key and detected content type.
//   - error: domain.ErrUnknownCategory for a bad category, or a storage failure.
func (s *MediaService) Upload(ctx context.Context, wishID string, category domain.MediaCategory, fileName string, r io.Reader) (*UploadResult, error) {
	if !category.UserUploadable() {
		return nil, fmt.Errorf("%w: %s is not uploadable", domain.ErrUnknownCategory, category)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	mtype := mimetype.Detect(data)
	key := domain.MediaKey(wishID, category, fileName)

	fields := logger.Fields{
		logger.FieldWishID:   wishID,
		logger.FieldCategory: string(category),
		logger.FieldSize:     len(data),
		"content_type":       mtype.String(),
	}
	if category == domain.CategoryImages {
		if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			fields["width"] = cfg.Width
			fields["height"] = cfg.Height
			fields["format"] = format
		} else {
			logger.CtxWarn(ctx, "Uploaded image %s could not be decoded: %v", key, err)
		}
	}

	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), mtype.String()); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", key, err)
	}
	logger.With(fields).Info(ctx, "Stored upload %s", key)

	return &UploadResult{
		Key:         key,
		FileName:    key[strings.LastIndex(key, "/")+1:],
		ContentType: mtype.String(),
		Size:        int64(len(data)),
	}, nil
}

// StoreGenerated writes generated bytes under a fresh uuid name and returns the key.
func (s *MediaService) StoreGenerated(ctx context.Context, wishID string, category domain.MediaCategory, data []byte) (string, error) {
	mtype := mimetype.Detect(data)
	key := domain.MediaKey(wishID, category, uuid.New().String()+mtype.Extension())
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), mtype.String()); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}
	return key, nil
}

// Objects lists the objects of one category; storage.ErrNotFound when empty.
func (s *MediaService) Objects(ctx context.Context, wishID string, category domain.MediaCategory) ([]storage.ObjectInfo, error) {
	return s.storage.List(ctx, domain.MediaPrefix(wishID, category))
}

// SignedURLs returns a time-limited GET URL for every object in the category.
// An empty category yields storage.ErrNotFound.
func (s *MediaService) SignedURLs(ctx context.Context, wishID string, category domain.MediaCategory) ([]string, error) {
	objects, err := s.Objects(ctx, wishID, category)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(objects))
	for _, obj := range objects {
		u, err := s.storage.PresignGet(ctx, obj.Key, s.signedTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to sign %s: %w", obj.Key, err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// PublicURLs returns unsigned URLs for every object in the category.
func (s *MediaService) PublicURLs(ctx context.Context, wishID string, category domain.MediaCategory) ([]string, error) {
	objects, err := s.Objects(ctx, wishID, category)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(objects))
	for i, obj := range objects {
		urls[i] = s.storage.GetURL(obj.Key)
	}
	return urls, nil
}

// SignedURL signs a single key.
func (s *MediaService) SignedURL(ctx context.Context, key string) (string, error) {
	return s.storage.PresignGet(ctx, key, s.signedTTL)
}

// PublicURL returns the unsigned URL of a single key.
func (s *MediaService) PublicURL(key string) string {
	return s.storage.GetURL(key)
}

// Read downloads an object fully.
func (s *MediaService) Read(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Exists reports whether an upload with this name is already stored.
func (s *MediaService) Exists(ctx context.Context, wishID string, category domain.MediaCategory, fileName string) (bool, error) {
	return s.storage.Exists(ctx, domain.MediaKey(wishID, category, fileName))
}
