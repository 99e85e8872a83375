package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/config"
	"github.com/BruksfildServices01/clinic-pos/internal/flash"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
)

const ContextBearer = "authBearer"

// bearerToken returns the token from "Authorization: Bearer ...".
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func authenticate(c *gin.Context, cfg *config.Config) bool {
	raw, bearer := bearerToken(c)
	if !bearer {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil || cookie == "" {
			return false
		}
		raw = cookie
	}

	a, err := ParseToken(cfg.SecretKey, raw)
	if err != nil {
		return false
	}
	actor.Set(c, a)
	c.Set(ContextBearer, bearer)
	return true
}

// AuthMiddleware guards JSON API routes.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, cfg) {
			httperr.Unauthorized(c, "unauthorized", "Authentication required.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// BrowserAuth guards page routes, sending anonymous callers to the login
// page with a return path.
func BrowserAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, cfg) {
			c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSuperuser must run after an auth middleware. Browser callers are
// sent back to the admin landing page with an error message.
func RequireSuperuser(store flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor.From(c)
		if ok && a.Superuser {
			c.Next()
			return
		}

		if bearer := c.GetBool(ContextBearer); bearer {
			httperr.Forbidden(c, "forbidden", "Superuser access required.")
			c.Abort()
			return
		}
		flash.Error(store, c, "You do not have permission to access this page.")
		c.Redirect(http.StatusFound, "/admin/")
		c.Abort()
	}
}
