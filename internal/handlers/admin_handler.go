package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/flash"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
	"github.com/BruksfildServices01/clinic-pos/internal/middleware"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
)

// AdminHandler serves the landing page staff reach after login and after
// any view that has nowhere better to send them.
type AdminHandler struct {
	db    *gorm.DB
	flash flash.Store
	log   logrus.FieldLogger
}

func NewAdminHandler(db *gorm.DB, store flash.Store, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{db: db, flash: store, log: log}
}

type adminPage struct {
	Username          string `json:"username"`
	IsSuperuser       bool   `json:"is_superuser"`
	ActiveClients     int64  `json:"active_clients"`
	ActiveServices    int64  `json:"active_services"`
	ActivePackages    int64  `json:"active_packages"`
	ActiveProducts    int64  `json:"active_products"`
	LowStockProducts  int64  `json:"low_stock_products"`
	AppointmentsToday int64  `json:"appointments_today"`
	OpenPackages      int64  `json:"open_client_packages"`
	CSRF              string `json:"csrf_token"`
}

func (h *AdminHandler) Index(c *gin.Context) {
	a := currentActor(c)
	page := adminPage{
		Username:    a.Username,
		IsSuperuser: a.Superuser,
		CSRF:        c.GetString(middleware.ContextCSRF),
	}

	today := timezone.Now()
	dayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	db := h.db.WithContext(c.Request.Context())
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&page.ActiveClients, db.Model(&models.Client{}).Where("is_active = ?", true)},
		{&page.ActiveServices, db.Model(&models.Service{}).Where("is_active = ?", true)},
		{&page.ActivePackages, db.Model(&models.Package{}).Where("is_active = ?", true)},
		{&page.ActiveProducts, db.Model(&models.Product{}).Where("is_active = ?", true)},
		{&page.LowStockProducts, db.Model(&models.Product{}).Where("is_active = ? AND stock_qty < ?", true, models.LowStockThreshold)},
		{&page.AppointmentsToday, db.Model(&models.Appointment{}).Where(
			"start_time >= ? AND start_time < ?", dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC(),
		)},
		{&page.OpenPackages, db.Model(&models.ClientPackage{}).Where("is_completed = ?", false)},
	}
	for _, q := range counts {
		if err := q.query.Count(q.dst).Error; err != nil {
			h.log.WithError(err).Error("admin counts failed")
			httperr.Internal(c, "internal_error", "Unexpected error.")
			return
		}
	}

	httpresp.Render(c, page, h.flash.Pop(c))
}
