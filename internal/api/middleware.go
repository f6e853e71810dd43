package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rosterforge/roster-core/internal/auth"
)

// IdentityMiddleware parses the bearer token and attaches the
// roster.CallerIdentity it carries to the request context, generalized
// from the teacher's authMiddleware(authService)/AuthMiddleware in
// cmd/hereandnow/server.go and internal/api/auth.go. Authorization
// policy beyond "is this token valid" is out of scope here, per
// spec.md §1.
func IdentityMiddleware(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid authorization header format"})
			c.Abort()
			return
		}

		caller, err := verifier.Verify(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("caller", caller)
		c.Next()
	}
}

// CORSMiddleware mirrors the teacher's corsMiddleware in
// cmd/hereandnow/server.go.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Authorization, Content-Type")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
