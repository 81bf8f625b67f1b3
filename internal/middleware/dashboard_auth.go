package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dashboardTokenHeader = "X-Dashboard-Token"

// DashboardAuthMiddleware guards the analytics dashboard routes with an
// explicit per-request shared-secret header. No ambient session storage is
// involved; every request must carry the credential.
func DashboardAuthMiddleware(token string, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("DashboardAuth")
	return func(c *gin.Context) {
		provided := c.GetHeader(dashboardTokenHeader)
		if provided == "" {
			log.Warn("Dashboard token header missing", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: missing dashboard token"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			log.Warn("Dashboard token mismatch", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: invalid dashboard token"})
			return
		}
		c.Next()
	}
}
