package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/wishpage/internal/api/middleware"
	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/service"
)

// IdempotencyKeyHeader opts a generation request into deduplication.
const IdempotencyKeyHeader = "Idempotency-Key"

// Describer derives descriptions for a wish's uploaded images.
type Describer interface {
	Describe(ctx context.Context, wishID string) (*service.DescriptionResult, error)
}

// Derivatives generates illustrations and songs for a wish.
type Derivatives interface {
	GenerateCutePhotos(ctx context.Context, wishID string, descriptions []string) (*service.CutePhotosResult, error)
	GenerateSong(ctx context.Context, wishID string, req service.SongRequest) (*service.SongResult, error)
}

// JobLister lists recorded generation runs.
type JobLister interface {
	List(ctx context.Context, wishID string) ([]domain.GenerationJob, error)
}

// GenerateHandler handles the generation endpoints.
type GenerateHandler struct {
	descriptions Describer
	derivatives  Derivatives
	jobs         JobLister
	idem         *service.Idempotency
}

// NewGenerateHandler creates a new generate handler. idem may be nil to disable Idempotency-Key support.
func NewGenerateHandler(descriptions Describer, derivatives Derivatives, jobs JobLister, idem *service.Idempotency) *GenerateHandler {
	return &GenerateHandler{
		descriptions: descriptions,
		derivatives:  derivatives,
		jobs:         jobs,
		idem:         idem,
	}
}

// DescriptionRequest is the body of POST /api/generate-description.
type DescriptionRequest struct {
	ID string `json:"id" binding:"required"`
}

// CutePhotosRequest is the body of POST /api/generate-cute-photos.
type CutePhotosRequest struct {
	ID           string   `json:"id" binding:"required"`
	Descriptions []string `json:"descriptions"`
}

// SongRequest is the body of POST /api/generate-songs.
type SongRequest struct {
	ID string `json:"id" binding:"required"`
	service.SongRequest
}

// GenerateDescription handles POST /api/generate-description.
func (h *GenerateHandler) GenerateDescription(c *gin.Context) {
	var req DescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if !validWishID(c, req.ID) {
		return
	}
	runIdempotent(c, h.idem, "description:"+req.ID, func(ctx context.Context) (*service.DescriptionResult, error) {
		return h.descriptions.Describe(ctx, req.ID)
	})
}

// GenerateCutePhotos handles POST /api/generate-cute-photos.
func (h *GenerateHandler) GenerateCutePhotos(c *gin.Context) {
	var req CutePhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if !validWishID(c, req.ID) {
		return
	}
	runIdempotent(c, h.idem, "cute-photos:"+req.ID, func(ctx context.Context) (*service.CutePhotosResult, error) {
		return h.derivatives.GenerateCutePhotos(ctx, req.ID, req.Descriptions)
	})
}

// GenerateSongs handles POST /api/generate-songs. Without an Idempotency-Key every call stores a new song.
func (h *GenerateHandler) GenerateSongs(c *gin.Context) {
	var req SongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if !validWishID(c, req.ID) {
		return
	}
	runIdempotent(c, h.idem, "songs:"+req.ID, func(ctx context.Context) (*service.SongResult, error) {
		return h.derivatives.GenerateSong(ctx, req.ID, req.SongRequest)
	})
}

// ListJobs handles GET /api/jobs?id=.
func (h *GenerateHandler) ListJobs(c *gin.Context) {
	id, ok := wishID(c)
	if !ok {
		return
	}
	jobs, err := h.jobs.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// runIdempotent executes fn under the request's Idempotency-Key and writes the JSON result.
// Shared executions outlive a cancelled duplicate, so fn runs on a context detached from cancellation.
func runIdempotent[T any](c *gin.Context, idem *service.Idempotency, scope string, fn func(ctx context.Context) (T, error)) {
	ctx := c.Request.Context()
	key := c.GetHeader(IdempotencyKeyHeader)
	if key != "" {
		ctx = context.WithoutCancel(ctx)
	}

	res, replayed, err := service.Idempotent(idem, scope, key, func() (T, error) {
		return fn(ctx)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if replayed {
		c.Header(middleware.IdempotencyReplayedHeader, "true")
	}
	c.JSON(http.StatusOK, res)
}
