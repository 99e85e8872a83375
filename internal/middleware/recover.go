package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/clinic-pos/internal/flash"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
)

// Recovery is the last resort for a panicking handler. API callers get a
// 500; browser callers are redirected to the admin landing page with a
// generic message.
func Recovery(log logrus.FieldLogger, store flash.Store) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithFields(logrus.Fields{
			"panic": recovered,
			"path":  c.Request.URL.Path,
		}).Error("handler panic")

		if c.Writer.Written() {
			c.Abort()
			return
		}
		if _, bearer := bearerToken(c); bearer || c.GetHeader("Accept") == "application/json" {
			httperr.Internal(c, "internal_error", "Unexpected error.")
			c.Abort()
			return
		}
		flash.Error(store, c, "An unexpected error occurred. Please try again.")
		c.Redirect(http.StatusFound, "/admin/")
		c.Abort()
	})
}
