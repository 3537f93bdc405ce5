package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/render"
	"github.com/timmy/wishpage/internal/repository"
	"github.com/timmy/wishpage/internal/service"
)

// WishService creates and loads wish records.
type WishService interface {
	Create(ctx context.Context, message string) (*domain.Wish, error)
	Get(ctx context.Context, id string) (*domain.Wish, error)
	PageURL(id string) string
}

// WishHandler handles wish creation, lookup, and the rendered gift page.
type WishHandler struct {
	wishes WishService
	media  render.MediaSource
	now    func() time.Time
}

// NewWishHandler creates a new wish handler. media may be nil, in which case pages render without galleries.
func NewWishHandler(wishes WishService, media render.MediaSource) *WishHandler {
	return &WishHandler{wishes: wishes, media: media, now: time.Now}
}

// GiftCardResponse is returned by POST /api/gift-card.
type GiftCardResponse struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// CreateGiftCard handles POST /api/gift-card.
// The message arrives as the "context" form field; JSON bodies with the same key are accepted too.
func (h *WishHandler) CreateGiftCard(c *gin.Context) {
	message := c.PostForm("context")
	if message == "" && strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		var body struct {
			Context string `json:"context"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			message = body.Context
		}
	}
	if strings.TrimSpace(message) == "" {
		respondError(c, service.ErrEmptyContext)
		return
	}

	wish, err := h.wishes.Create(c.Request.Context(), message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, GiftCardResponse{
		URL: h.wishes.PageURL(wish.ID),
		ID:  wish.ID,
	})
}

// GetWish handles GET /api/wishes?id=.
func (h *WishHandler) GetWish(c *gin.Context) {
	id, ok := wishID(c)
	if !ok {
		return
	}
	wish, err := h.wishes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wish)
}

// Page handles GET /wishes/:id and renders the record through its template.
func (h *WishHandler) Page(c *gin.Context) {
	ctx := c.Request.Context()
	wish, err := h.wishes.Get(ctx, c.Param("id"))
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, repository.ErrWishNotFound) {
			c.HTML(status, render.NotRecognizedTemplate, &render.Page{
				Template: render.NotRecognizedTemplate,
				Message:  "This gift could not be found",
			})
			return
		}
		respondError(c, err)
		return
	}

	page := render.NewPage(ctx, wish, h.media, h.now())
	c.HTML(http.StatusOK, page.Template, page)
}
