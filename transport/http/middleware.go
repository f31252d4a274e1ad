package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jacobmr/teslatracker/service"
)

// AuthMiddleware creates middleware that validates session tokens
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		session, err := authService.ValidateSession(c.Request.Context(), token)
		if err != nil {
			// Same body as a missing header; no hint about which check failed.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
			return
		}

		c.Set("identity", session.Identity)
		c.Set("email", session.Email)

		c.Next()
	}
}
