package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/bookingwatch/models"
)

// APIKeyContextKey is the gin context key holding the authenticated key.
const APIKeyContextKey = "api_key"

// Auth returns API-key authentication middleware.
//
// Supports two header styles:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// If apiKeys is empty, the middleware is a no-op (open access).
func Auth(apiKeys []string) gin.HandlerFunc {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	if len(keys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := extractAPIKey(c)
		if key == "" {
			abortUnauthorized(c, "missing API key: provide X-API-Key header or Authorization: Bearer <key>")
			return
		}
		if !matchesAny(keys, []byte(key)) {
			abortUnauthorized(c, "invalid API key")
			return
		}

		c.Set(APIKeyContextKey, key)
		c.Next()
	}
}

func matchesAny(keys [][]byte, candidate []byte) bool {
	found := false
	for _, k := range keys {
		if subtle.ConstantTimeCompare(k, candidate) == 1 {
			found = true
		}
	}
	return found
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: &models.ErrorDetail{Code: models.ErrCodeUnauthorized, Message: msg},
	})
}

// extractAPIKey tries X-API-Key first, then Authorization: Bearer.
func extractAPIKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
