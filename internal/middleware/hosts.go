package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/clinic-pos/internal/config"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
)

// AllowedHosts rejects requests whose Host header is not in ALLOWED_HOSTS.
func AllowedHosts(cfg *config.Config, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.HostAllowed(c.Request.Host) {
			log.WithField("host", c.Request.Host).Warn("rejected request for disallowed host")
			httperr.BadRequest(c, "invalid_host", "Invalid host header.")
			c.Abort()
			return
		}
		c.Next()
	}
}
