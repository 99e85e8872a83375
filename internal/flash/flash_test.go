package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
)

func TestCookieStoreCarriesMessagesAcrossRedirect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewCookieStore(false)

	r := gin.New()
	r.POST("/act", func(c *gin.Context) {
		Success(store, c, "Session added! Progress: 1/6")
		Warning(store, c, "Low stock")
		c.Redirect(http.StatusFound, "/page")
	})
	r.GET("/page", func(c *gin.Context) {
		httpresp.Render(c, nil, store.Pop(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/act", nil))
	require.Equal(t, http.StatusFound, w.Code)

	var flashCookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == cookieName {
			flashCookie = ck
		}
	}
	require.NotNil(t, flashCookie)

	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	req.AddCookie(flashCookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":null,"messages":[
		{"level":"success","text":"Session added! Progress: 1/6"},
		{"level":"warning","text":"Low stock"}
	]}`, w.Body.String())

	cleared := false
	for _, ck := range w.Result().Cookies() {
		if ck.Name == cookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestCookieStoreIgnoresGarbage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewCookieStore(false)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: cookieName, Value: "%%%not-base64"})

	assert.Empty(t, store.Pop(c))
}
