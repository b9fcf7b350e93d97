package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const apiKeyHeader = "X-Api-Key"

// RequireSyncKey gates every sync route behind the shared device secret.
// The health endpoint is the only route registered outside this gate.
func RequireSyncKey(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			// Refuse to run open if the key was never configured.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "api key not configured"})
			return
		}
		raw := strings.TrimSpace(c.GetHeader(apiKeyHeader))
		if raw == "" || subtle.ConstantTimeCompare([]byte(raw), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}
