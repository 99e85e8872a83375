package flash

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewRedisClient("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRedisStore(client, false, log), mr
}

func TestRedisStoreCarriesMessagesAcrossRedirect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, mr := newRedisStore(t)

	r := gin.New()
	r.POST("/act", func(c *gin.Context) {
		Success(store, c, "Package \"Glow\" assigned successfully!")
		Info(store, c, "Package completed!")
		c.Redirect(http.StatusFound, "/page")
	})
	r.GET("/page", func(c *gin.Context) {
		httpresp.Render(c, nil, store.Pop(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/act", nil))
	require.Equal(t, http.StatusFound, w.Code)

	var session *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == sessionCookie {
			session = ck
		}
	}
	require.NotNil(t, session)
	// One cookie even though two messages were added.
	assert.Len(t, w.Result().Cookies(), 1)

	key := "flash:" + session.Value
	require.True(t, mr.Exists(key))
	assert.Equal(t, redisTTL, mr.TTL(key))
	items, err := mr.List(key)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":null,"messages":[
		{"level":"success","text":"Package \"Glow\" assigned successfully!"},
		{"level":"info","text":"Package completed!"}
	]}`, w.Body.String())
	assert.False(t, mr.Exists(key))

	// A second visit finds nothing.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"data":null,"messages":[]}`, w.Body.String())
}

func TestRedisStoreMessagesExpire(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, mr := newRedisStore(t)

	r := gin.New()
	r.POST("/act", func(c *gin.Context) {
		Error(store, c, "Client not found.")
		c.Status(http.StatusNoContent)
	})
	r.GET("/page", func(c *gin.Context) {
		httpresp.Render(c, nil, store.Pop(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/act", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	mr.FastForward(redisTTL + time.Second)

	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"data":null,"messages":[]}`, w.Body.String())
}

func TestRedisStoreIgnoresForgedSessionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("flash:../admin", "x"))

	r := gin.New()
	r.GET("/page", func(c *gin.Context) {
		httpresp.Render(c, nil, store.Pop(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "../admin"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.JSONEq(t, `{"data":null,"messages":[]}`, w.Body.String())
	assert.True(t, mr.Exists("flash:../admin"))
}

var _ Store = (*RedisStore)(nil)
