// Package actor carries the authenticated caller through handlers,
// use cases and the backup engine.
package actor

import "github.com/gin-gonic/gin"

// Actor identifies who performs an operation. The zero value is anonymous.
type Actor struct {
	UserID    uint
	Username  string
	Superuser bool
}

// System is used by CLI commands that run without a login.
var System = Actor{Username: "system", Superuser: true}

func (a Actor) Anonymous() bool {
	return a.UserID == 0 && a.Username == ""
}

// ID returns the user id for audit rows, nil for system or anonymous callers.
func (a Actor) ID() *uint {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}

func (a Actor) String() string {
	if a.Username == "" {
		return "anonymous"
	}
	return a.Username
}

const contextKey = "actor"

func Set(c *gin.Context, a Actor) {
	c.Set(contextKey, a)
}

// From returns the actor stored by the auth middleware.
func From(c *gin.Context) (Actor, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return Actor{}, false
	}
	a, ok := v.(Actor)
	return a, ok
}
