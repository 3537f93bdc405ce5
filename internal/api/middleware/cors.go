package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins  []string
	AllowAllOrigins bool
}

const (
	corsAllowHeaders  = "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, Idempotency-Key, " + RequestIDHeader
	corsAllowMethods  = "GET, POST, OPTIONS"
	corsExposeHeaders = "Content-Length, " + RequestIDHeader + ", " + IdempotencyReplayedHeader
)

// IdempotencyReplayedHeader is set on responses served from an earlier execution.
const IdempotencyReplayedHeader = "Idempotency-Replayed"

// CORS returns a middleware that handles Cross-Origin Resource Sharing.
// The gift page is embedded from other sites, so the allow-all default stays credential-less.
func CORS(config CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		var allowedOrigin string
		switch {
		case config.AllowAllOrigins:
			allowedOrigin = "*"
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "false")
		case len(config.AllowedOrigins) == 0 || IsOriginAllowed(origin, config):
			allowedOrigin = origin
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		default:
			c.Next()
			return
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
		c.Writer.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
		c.Writer.Header().Set("Access-Control-Expose-Headers", corsExposeHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// IsOriginAllowed checks if an origin is allowed based on the configuration
func IsOriginAllowed(origin string, config CORSConfig) bool {
	if config.AllowAllOrigins {
		return true
	}

	for _, allowedOrigin := range config.AllowedOrigins {
		if allowedOrigin == "*" || strings.EqualFold(origin, allowedOrigin) {
			return true
		}
	}

	return false
}
