package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/wishpage/internal/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// LoggerMiddleware returns a Gin middleware that injects a request-scoped logger.
// An incoming X-Request-ID is reused so ids survive a proxy hop; the wish id is
// attached whenever the request names one in its query.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}

		fields := logger.Fields{
			logger.FieldRequestID: requestID,
			logger.FieldComponent: "api",
		}
		if id := c.Query("id"); id != "" {
			fields[logger.FieldWishID] = id
		}
		ctx := logger.WithFields(c.Request.Context(), fields)
		c.Request = c.Request.WithContext(ctx)

		c.Set("logger", logger.FromContext(ctx))
		c.Header(RequestIDHeader, requestID)

		logger.CtxDebug(ctx, "Request started: method=%s, path=%s, client_ip=%s",
			c.Request.Method, path, c.ClientIP())

		c.Next()

		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}

		entry := logger.With(logger.Fields{
			logger.FieldStatus: c.Writer.Status(),
			logger.FieldSize:   c.Writer.Size(),
		}).WithDuration(start)
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn(ctx, "Request failed: method=%s, path=%s", c.Request.Method, fullPath)
			return
		}
		entry.Info(ctx, "Request completed: method=%s, path=%s", c.Request.Method, fullPath)
	}
}

// GetLogger extracts logger from Gin context or request context.
func GetLogger(c *gin.Context) *logger.Logger {
	if l, exists := c.Get("logger"); exists {
		if log, ok := l.(*logger.Logger); ok {
			return log
		}
	}
	return logger.FromContext(c.Request.Context())
}
