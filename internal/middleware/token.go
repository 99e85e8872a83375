package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

const (
	SessionCookie = "session"
	TokenTTL      = 12 * time.Hour
)

var errInvalidClaims = errors.New("invalid token claims")

// IssueToken signs a session token for user.
func IssueToken(secret string, user *models.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":          user.ID,
		"username":     user.Username,
		"is_superuser": user.IsSuperuser,
		"exp":          now.Add(TokenTTL).Unix(),
		"iat":          now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a session token and returns the caller it names.
func ParseToken(secret, raw string) (actor.Actor, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(secret), nil
	})
	if err != nil {
		return actor.Actor{}, err
	}
	if !token.Valid {
		return actor.Actor{}, errInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return actor.Actor{}, errInvalidClaims
	}

	sub, ok1 := claims["sub"].(float64)
	username, ok2 := claims["username"].(string)
	superuser, _ := claims["is_superuser"].(bool)
	if !ok1 || !ok2 || sub < 1 {
		return actor.Actor{}, errInvalidClaims
	}

	return actor.Actor{
		UserID:    uint(sub),
		Username:  username,
		Superuser: superuser,
	}, nil
}
