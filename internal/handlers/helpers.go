package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/flash"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/validators"
)

const adminURL = "/admin/"

func currentActor(c *gin.Context) actor.Actor {
	a, _ := actor.From(c)
	return a
}

func pathID(c *gin.Context, name string) (uint, bool) {
	return validators.ParseID(c.Param(name))
}

func profileURL(clientID uint) string {
	return fmt.Sprintf("/client/%d/profile/", clientID)
}

func redirect(c *gin.Context, to string) {
	c.Redirect(http.StatusFound, to)
}

// warningCodes are rule violations shown as warnings rather than errors.
var warningCodes = map[string]bool{
	"package_already_assigned": true,
	"service_already_started":  true,
	"package_completed":        true,
	"service_completed":        true,
}

// flashFailure reports err as a message. Business errors use their
// staff-facing text; anything else is logged and shown generically.
func flashFailure(store flash.Store, c *gin.Context, log logrus.FieldLogger, err error, what string) {
	code := httperr.Code(err)
	switch {
	case code == "":
		log.WithError(err).WithField("path", c.Request.URL.Path).Error(what + " failed")
		flash.Error(store, c, fmt.Sprintf("Error %s. Please try again.", what))
	case warningCodes[code]:
		flash.Warning(store, c, httperr.Message(code))
	default:
		flash.Error(store, c, httperr.Message(code))
	}
}
