package httpresp

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// Page is the body of a browser view: the view payload plus the flash
// messages popped for this request.
type Page struct {
	Data     any       `json:"data"`
	Messages []Message `json:"messages"`
}

type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func List[T any](c *gin.Context, data []T) {
	if data == nil {
		data = []T{}
	}
	c.JSON(http.StatusOK, ListResponse[T]{
		Data:  data,
		Total: len(data),
	})
}

func Render(c *gin.Context, data any, messages []Message) {
	if messages == nil {
		messages = []Message{}
	}
	c.JSON(http.StatusOK, Page{Data: data, Messages: messages})
}
