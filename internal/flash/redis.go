package flash

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
)

const (
	sessionCookie = "flash_session"
	redisTTL      = 10 * time.Minute
)

// RedisStore keeps messages in a Redis list keyed by a random per-browser
// id, so nothing but the id travels in cookies.
type RedisStore struct {
	client *redis.Client
	secure bool
	log    logrus.FieldLogger
}

func NewRedisStore(client *redis.Client, secure bool, log logrus.FieldLogger) *RedisStore {
	return &RedisStore{client: client, secure: secure, log: log}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (s *RedisStore) key(id string) string { return "flash:" + id }

func (s *RedisStore) sessionID(c *gin.Context, create bool) string {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	if !create {
		return ""
	}
	id := uuid.NewString()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	// Visible to Pop within this same request.
	c.Request.AddCookie(&http.Cookie{Name: sessionCookie, Value: id})
	return id
}

func (s *RedisStore) Add(c *gin.Context, level, text string) {
	ctx := c.Request.Context()
	key := s.key(s.sessionID(c, true))

	b, err := json.Marshal(httpresp.Message{Level: level, Text: text})
	if err != nil {
		return
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, b)
		pipe.Expire(ctx, key, redisTTL)
		return nil
	})
	if err != nil {
		s.log.WithError(err).Warn("flash: redis add failed")
	}
}

func (s *RedisStore) Pop(c *gin.Context) []httpresp.Message {
	id := s.sessionID(c, false)
	if id == "" {
		return nil
	}
	ctx := c.Request.Context()
	key := s.key(id)

	var values *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		values = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		s.log.WithError(err).Warn("flash: redis pop failed")
		return nil
	}

	var out []httpresp.Message
	for _, v := range values.Val() {
		var m httpresp.Message
		if err := json.Unmarshal([]byte(v), &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}
