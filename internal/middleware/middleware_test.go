package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/config"
	"github.com/BruksfildServices01/clinic-pos/internal/flash"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

var cfg = &config.Config{SecretKey: "test-secret", AllowedHosts: []string{"clinic.test"}}

func nullLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func token(t *testing.T, superuser bool) string {
	t.Helper()
	tok, err := IssueToken(cfg.SecretKey, &models.User{ID: 3, Username: "ana", IsSuperuser: superuser}, time.Now())
	require.NoError(t, err)
	return tok
}

func TestTokenRoundTrip(t *testing.T) {
	a, err := ParseToken(cfg.SecretKey, token(t, true))
	require.NoError(t, err)
	assert.Equal(t, actor.Actor{UserID: 3, Username: "ana", Superuser: true}, a)

	_, err = ParseToken("other-secret", token(t, true))
	assert.Error(t, err)

	expired, err := IssueToken(cfg.SecretKey, &models.User{ID: 3, Username: "ana"}, time.Now().Add(-2*TokenTTL))
	require.NoError(t, err)
	_, err = ParseToken(cfg.SecretKey, expired)
	assert.Error(t, err)
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := flash.NewCookieStore(false)

	r := gin.New()
	r.Use(CSRF(false))
	r.GET("/form", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextCSRF)) })
	r.POST("/submit", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	page := r.Group("/", BrowserAuth(cfg))
	page.GET("/admin/", func(c *gin.Context) {
		a, _ := actor.From(c)
		c.String(http.StatusOK, a.Username)
	})
	page.GET("/backup/", RequireSuperuser(store), func(c *gin.Context) { c.String(http.StatusOK, "backups") })

	api := r.Group("/api", AuthMiddleware(cfg))
	api.POST("/thing", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestCSRF(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/form", nil))
	require.Equal(t, http.StatusOK, w.Code)
	csrfToken := w.Body.String()
	require.Len(t, csrfToken, 64)

	cookie := &http.Cookie{Name: CSRFCookie, Value: csrfToken}

	// no token
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.AddCookie(cookie)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// wrong token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeader, strings.Repeat("a", 64))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// header
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeader, csrfToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// form field
	w = httptest.NewRecorder()
	form := url.Values{CSRFFormField: {csrfToken}}
	req = httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestBearerRequestsSkipCSRF(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/thing", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, false))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/thing", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBrowserAuthRedirectsToLogin(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/backup/", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=%2Fbackup%2F", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token(t, false)})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana", w.Body.String())
}

func TestRequireSuperuser(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/backup/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token(t, false)})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/", w.Header().Get("Location"))
	assert.NotContains(t, w.Body.String(), "backups")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/backup/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token(t, true)})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "backups", w.Body.String())
}

func TestAllowedHosts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AllowedHosts(cfg, nullLogger()))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Host = "evil.test"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Host = "clinic.test:8080"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
