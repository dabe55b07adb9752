package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/akarpovs/docsync/internal/logging"
	"github.com/akarpovs/docsync/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// UserIDFromContext returns the authenticated user id set by Auth, or ""
// on an unauthenticated request.
func UserIDFromContext(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Auth validates the bearer session JWT and stores the user id in the
// request context. Requests without a valid token are rejected with 401.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		userID, err := auth.GetUserIDFromToken(strings.TrimSpace(h[7:]), secret)
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// RequestLogger emits one structured log line per request.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
