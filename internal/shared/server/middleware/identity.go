package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ledgerlens-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userIDHeader = "X-User-ID"
)

// Identity resolves the caller's user scope from the X-User-ID header.
// Authentication is handled upstream (gateway or reverse proxy); this
// layer only enforces that every request carries a scope, since all
// retrieval and storage keys are user-partitioned.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if userID == "" {
			respond.Error(c, http.StatusBadRequest, "missing_user", "X-User-ID header is required", nil)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
