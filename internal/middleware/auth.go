package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"beckon/internal/auth"
)

// AuthRequired verifies the bearer credential and sets the caller uid in
// the request context.
func AuthRequired(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		uid, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("uid", uid)
		c.Next()
	}
}

// GetUID returns the verified caller uid (must be used after AuthRequired).
func GetUID(c *gin.Context) string {
	v, _ := c.Get("uid")
	if v == nil {
		return ""
	}
	return v.(string)
}
