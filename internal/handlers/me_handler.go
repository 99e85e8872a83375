package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	a := currentActor(c)
	if a.Anonymous() {
		httperr.Unauthorized(c, "unauthorized", "Authentication required.")
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, a.UserID).Error; err != nil {
		httperr.Unauthorized(c, "user_not_found", "The session user no longer exists.")
		return
	}

	httpresp.OK(c, gin.H{"user": user})
}
