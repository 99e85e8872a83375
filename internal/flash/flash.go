// Package flash keeps one-shot messages between a redirect and the next
// page view.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
)

const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelWarning = "warning"
	LevelInfo    = "info"

	cookieName = "flash"
)

type Store interface {
	Add(c *gin.Context, level, text string)
	Pop(c *gin.Context) []httpresp.Message
}

func Success(s Store, c *gin.Context, text string) { s.Add(c, LevelSuccess, text) }
func Error(s Store, c *gin.Context, text string)   { s.Add(c, LevelError, text) }
func Warning(s Store, c *gin.Context, text string) { s.Add(c, LevelWarning, text) }
func Info(s Store, c *gin.Context, text string)    { s.Add(c, LevelInfo, text) }

// ======================================================
// COOKIE STORE
// ======================================================

// CookieStore keeps pending messages in the client's "flash" cookie.
type CookieStore struct {
	Secure bool
}

func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{Secure: secure}
}

const pendingKey = "flash.pending"

func (s *CookieStore) Add(c *gin.Context, level, text string) {
	pending := s.pending(c)
	pending = append(pending, httpresp.Message{Level: level, Text: text})
	c.Set(pendingKey, pending)

	b, err := json.Marshal(pending)
	if err != nil {
		return
	}
	s.write(c, base64.RawURLEncoding.EncodeToString(b), 0)
}

func (s *CookieStore) Pop(c *gin.Context) []httpresp.Message {
	msgs := s.pending(c)
	if len(msgs) == 0 {
		return nil
	}
	c.Set(pendingKey, []httpresp.Message(nil))
	s.write(c, "", -1)
	return msgs
}

// pending returns the messages added during this request, or else those
// carried in by the cookie.
func (s *CookieStore) pending(c *gin.Context) []httpresp.Message {
	if v, ok := c.Get(pendingKey); ok {
		msgs, _ := v.([]httpresp.Message)
		return msgs
	}
	raw, err := c.Cookie(cookieName)
	if err != nil || raw == "" {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var msgs []httpresp.Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil
	}
	return msgs
}

func (s *CookieStore) write(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
