package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/logger"
	"github.com/timmy/wishpage/internal/repository"
	"github.com/timmy/wishpage/internal/service"
	"github.com/timmy/wishpage/internal/storage"
)

var errMissingID = errors.New("id is required")

// statusFor maps domain sentinels onto HTTP status codes. Anything unrecognized is an upstream failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMissingID),
		errors.Is(err, domain.ErrInvalidWishID),
		errors.Is(err, service.ErrEmptyContext),
		errors.Is(err, service.ErrNoDescriptions),
		errors.Is(err, service.ErrEmptyPrompt),
		errors.Is(err, domain.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, repository.ErrWishNotFound),
		errors.Is(err, service.ErrNoImages):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the one error shape every endpoint uses: {"error": "..."}.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.CtxError(c.Request.Context(), "%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// wishID reads the id query parameter, answering 400 when it is missing or malformed.
func wishID(c *gin.Context) (string, bool) {
	id := c.Query("id")
	return id, validWishID(c, id)
}

func validWishID(c *gin.Context, id string) bool {
	if id == "" {
		respondError(c, errMissingID)
		return false
	}
	if err := domain.ValidateWishID(id); err != nil {
		respondError(c, err)
		return false
	}
	return true
}
