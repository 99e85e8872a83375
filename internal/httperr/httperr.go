package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var gormDuplicatedKey = gorm.ErrDuplicatedKey

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

// Business writes a BusinessError as 400 (or 404 for *_not_found codes)
// using the message table; anything else becomes a 500.
func Business(c *gin.Context, err error) {
	code := Code(err)
	if code == "" {
		Internal(c, "internal_error", "Unexpected error.")
		return
	}
	status := http.StatusBadRequest
	if len(code) > 10 && code[len(code)-10:] == "_not_found" {
		status = http.StatusNotFound
	}
	Write(c, status, code, Message(code))
}
