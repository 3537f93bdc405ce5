package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/logger"
	"github.com/timmy/wishpage/internal/service"
)

// MediaLibrary stores uploads and resolves listing URLs for a wish namespace.
type MediaLibrary interface {
	Upload(ctx context.Context, wishID string, category domain.MediaCategory, fileName string, r io.Reader) (*service.UploadResult, error)
	SignedURLs(ctx context.Context, wishID string, category domain.MediaCategory) ([]string, error)
	PublicURLs(ctx context.Context, wishID string, category domain.MediaCategory) ([]string, error)
}

// WishChecker reports whether a wish id has been created.
type WishChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// multipartMemory is how much of an upload is buffered in memory before spilling to disk.
const multipartMemory = 32 << 20

// MediaHandler handles uploads and media listings.
type MediaHandler struct {
	media          MediaLibrary
	wishes         WishChecker
	maxUploadBytes int64
}

// NewMediaHandler creates a new media handler. A non-positive limit disables the size check.
// wishes may be nil; when set, uploads for ids that were never created are logged.
func NewMediaHandler(media MediaLibrary, wishes WishChecker, maxUploadBytes int64) *MediaHandler {
	return &MediaHandler{media: media, wishes: wishes, maxUploadBytes: maxUploadBytes}
}

// UploadResponse is returned by POST /api/s3-upload.
type UploadResponse struct {
	Success     bool   `json:"success"`
	FileName    string `json:"fileName"`
	Key         string `json:"key"`
	ContentType string `json:"contentType,omitempty"`
}

// Upload handles POST /api/s3-upload with multipart fields file, id and type.
func (h *MediaHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
			return
		}
		badRequest(c, "multipart form is required")
		return
	}

	id := c.PostForm("id")
	if !validWishID(c, id) {
		return
	}
	category, err := domain.ParseMediaCategory(c.PostForm("type"))
	if err != nil {
		respondError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	h.warnUnknownWish(c.Request.Context(), id)

	res, err := h.media.Upload(c.Request.Context(), id, category, fh.Filename, f)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Success:     true,
		FileName:    res.FileName,
		Key:         res.Key,
		ContentType: res.ContentType,
	})
}

// List returns a handler for GET /api/s3-{category}?id=. User uploads come back as
// signed URLs, generated images as public URLs. An empty namespace answers 404.
func (h *MediaHandler) List(category domain.MediaCategory) gin.HandlerFunc {
	resolve := h.media.SignedURLs
	if category == domain.CategoryGeneratedImages {
		resolve = h.media.PublicURLs
	}
	return func(c *gin.Context) {
		id, ok := wishID(c)
		if !ok {
			return
		}
		urls, err := resolve(c.Request.Context(), id, category)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, urls)
	}
}

// warnUnknownWish logs uploads that target an id with no stored wish. They are still accepted
// because media may be uploaded before the wish record is created.
func (h *MediaHandler) warnUnknownWish(ctx context.Context, id string) {
	if h.wishes == nil {
		return
	}
	exists, err := h.wishes.Exists(ctx, id)
	switch {
	case err != nil:
		logger.CtxWarn(ctx, "Could not check wish %s before upload: %v", id, err)
	case !exists:
		logger.CtxWarn(ctx, "Upload for unknown wish %s", id)
	}
}
