package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/AtRiskMedia/vsl-go/internal/application/services"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// AdminCookie carries the admin session token for browser clients.
const AdminCookie = "admin_token"

// AdminAuthMiddleware requires a valid admin token, sent as a bearer token
// or in the admin cookie.
func AdminAuthMiddleware(auth *services.AuthService, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := auth.ValidateToken(AdminToken(c))
		if errors.Is(err, services.ErrAdminDisabled) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin access not configured"})
			return
		}
		if err != nil {
			logger.Auth().Debug("Admin request rejected", "path", c.Request.URL.Path, "error", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// AdminToken extracts the admin token from the request, if any.
func AdminToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	if token, err := c.Cookie(AdminCookie); err == nil {
		return token
	}
	return ""
}
