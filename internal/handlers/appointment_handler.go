package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
	usecase "github.com/BruksfildServices01/clinic-pos/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	log logrus.FieldLogger

	create       *usecase.CreateAppointment
	confirm      *usecase.ConfirmAppointment
	cancel       *usecase.CancelAppointment
	complete     *usecase.CompleteAppointment
	listByDate   *usecase.ListAppointmentsByDate
	availability *usecase.GetAvailability
}

func NewAppointmentHandler(repo domain.Repository, dispatcher *audit.Dispatcher, log logrus.FieldLogger) *AppointmentHandler {
	return &AppointmentHandler{
		log:          log,
		create:       usecase.NewCreateAppointment(repo, dispatcher),
		confirm:      usecase.NewConfirmAppointment(repo, dispatcher),
		cancel:       usecase.NewCancelAppointment(repo, dispatcher),
		complete:     usecase.NewCompleteAppointment(repo, dispatcher),
		listByDate:   usecase.NewListAppointmentsByDate(repo),
		availability: usecase.NewGetAvailability(repo),
	}
}

// Completer exposes the completion use case to the till.
func (h *AppointmentHandler) Completer() *usecase.CompleteAppointment {
	return h.complete
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	ClientID  uint   `json:"client_id" binding:"required"`
	ServiceID uint   `json:"service_id" binding:"required"`
	StaffID   uint   `json:"staff_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`
	Notes     string `json:"notes"`

	ClientPackageID        *uint `json:"client_package_id"`
	ClientServiceSessionID *uint `json:"client_service_session_id"`
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	start, err := timezone.ParseDateTime(req.Date + "T" + req.Time)
	if err != nil {
		httperr.BadRequest(c, "invalid_date_or_time", httperr.Message("invalid_date_or_time"))
		return
	}

	ap, err := h.create.Execute(c.Request.Context(), currentActor(c), usecase.CreateAppointmentInput{
		ClientID:               req.ClientID,
		ServiceID:              req.ServiceID,
		StaffID:                req.StaffID,
		Start:                  start,
		Notes:                  req.Notes,
		ClientPackageID:        req.ClientPackageID,
		ClientServiceSessionID: req.ClientServiceSessionID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	httpresp.Created(c, ap)
}

// ======================================================
// STATUS CHANGES
// ======================================================

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	h.transition(c, h.confirm.Execute)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	h.transition(c, h.cancel.Execute)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.transition(c, h.complete.Execute)
}

func (h *AppointmentHandler) transition(c *gin.Context, run func(ctx context.Context, a actor.Actor, id uint) (*models.Appointment, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		httperr.NotFound(c, "appointment_not_found", httperr.Message("appointment_not_found"))
		return
	}

	ap, err := run(c.Request.Context(), currentActor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	httpresp.OK(c, ap)
}

// ======================================================
// LIST / AVAILABILITY
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, "missing_date", "Date is required.")
		return
	}

	date, err := timezone.ParseDate(dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Date must be YYYY-MM-DD.")
		return
	}

	var staffID uint
	if raw := c.Query("staff_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httperr.BadRequest(c, "invalid_staff_id", "Invalid staff member.")
			return
		}
		staffID = uint(id)
	}

	out, err := h.listByDate.Execute(c.Request.Context(), staffID, date)
	if err != nil {
		h.fail(c, err)
		return
	}
	httpresp.List(c, out)
}

func (h *AppointmentHandler) Availability(c *gin.Context) {
	staffID, ok1 := parseQueryID(c, "staff_id")
	serviceID, ok2 := parseQueryID(c, "service_id")
	if !ok1 || !ok2 {
		httperr.BadRequest(c, "invalid_request", "staff_id and service_id are required.")
		return
	}

	date, err := timezone.ParseDate(c.Query("date"))
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Date must be YYYY-MM-DD.")
		return
	}

	slots, err := h.availability.Execute(c.Request.Context(), domain.AvailabilityInput{
		StaffID:   staffID,
		ServiceID: serviceID,
		Date:      date,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	httpresp.OK(c, gin.H{
		"date":  date.Format(time.DateOnly),
		"slots": slots,
	})
}

func parseQueryID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *AppointmentHandler) fail(c *gin.Context, err error) {
	if httperr.Code(err) == "" {
		h.log.WithError(err).WithField("path", c.Request.URL.Path).Error("appointment request failed")
	}
	httperr.Business(c, err)
}
