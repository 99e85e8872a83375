package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type WorkingHoursHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewWorkingHoursHandler(db *gorm.DB, dispatcher *audit.Dispatcher) *WorkingHoursHandler {
	return &WorkingHoursHandler{db: db, audit: dispatcher}
}

type WorkingDayConfig struct {
	Weekday    int    `json:"weekday" binding:"min=0,max=6"`
	Active     bool   `json:"active"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	LunchStart string `json:"lunch_start"`
	LunchEnd   string `json:"lunch_end"`
}

type WorkingHoursUpdateRequest struct {
	Days []WorkingDayConfig `json:"days" binding:"required,dive"`
}

// valid checks "15:04" values: an active day needs start < end, and lunch,
// when set, must sit inside the day.
func (d WorkingDayConfig) valid() bool {
	if !d.Active {
		return true
	}
	start, err1 := time.Parse("15:04", d.StartTime)
	end, err2 := time.Parse("15:04", d.EndTime)
	if err1 != nil || err2 != nil || !start.Before(end) {
		return false
	}
	if d.LunchStart == "" && d.LunchEnd == "" {
		return true
	}
	ls, err1 := time.Parse("15:04", d.LunchStart)
	le, err2 := time.Parse("15:04", d.LunchEnd)
	return err1 == nil && err2 == nil && ls.Before(le) && !ls.Before(start) && !le.After(end)
}

func (h *WorkingHoursHandler) staff(c *gin.Context) (uint, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		httperr.NotFound(c, "staff_not_found", httperr.Message("staff_not_found"))
		return 0, false
	}
	var count int64
	if err := h.db.WithContext(c.Request.Context()).
		Model(&models.StaffMember{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {

		httperr.Internal(c, "failed_to_get_staff", "Could not load staff member.")
		return 0, false
	}
	if count == 0 {
		httperr.NotFound(c, "staff_not_found", httperr.Message("staff_not_found"))
		return 0, false
	}
	return id, true
}

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	staffID, ok := h.staff(c)
	if !ok {
		return
	}

	var hours []models.WorkingHours
	if err := h.db.WithContext(c.Request.Context()).
		Where("staff_id = ?", staffID).
		Order("weekday ASC").
		Find(&hours).Error; err != nil {

		httperr.Internal(c, "failed_to_get_working_hours", "Could not load working hours.")
		return
	}

	httpresp.List(c, hours)
}

// Update replaces the whole week for one staff member.
func (h *WorkingHoursHandler) Update(c *gin.Context) {
	staffID, ok := h.staff(c)
	if !ok {
		return
	}

	var req WorkingHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	seen := map[int]bool{}
	var toCreate []models.WorkingHours
	for _, d := range req.Days {
		if seen[d.Weekday] || !d.valid() {
			httperr.BadRequest(c, "invalid_working_hours", "Working hours must be unique per weekday with start before end.")
			return
		}
		seen[d.Weekday] = true
		toCreate = append(toCreate, models.WorkingHours{
			StaffID:    staffID,
			Weekday:    d.Weekday,
			Active:     d.Active,
			StartTime:  d.StartTime,
			EndTime:    d.EndTime,
			LunchStart: d.LunchStart,
			LunchEnd:   d.LunchEnd,
		})
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("staff_id = ?", staffID).Delete(&models.WorkingHours{}).Error; err != nil {
			return err
		}
		if len(toCreate) == 0 {
			return nil
		}
		return tx.Create(&toCreate).Error
	})
	if err != nil {
		httperr.Internal(c, "failed_to_save_working_hours", "Could not save working hours.")
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    currentActor(c),
		Action:   "working_hours_updated",
		Entity:   "staff",
		EntityID: audit.Ref(staffID),
		Metadata: map[string]any{"days": len(toCreate)},
	})

	httpresp.List(c, toCreate)
}

// ======================================================
// STAFF MEMBERS
// ======================================================

type StaffRequest struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastName       string `json:"last_name" binding:"required"`
	Phone          string `json:"phone"`
	Specialization string `json:"specialization"`
	Bio            string `json:"bio"`
	IsActive       *bool  `json:"is_active"`
}

func (r StaffRequest) apply(s *models.StaffMember) {
	s.FirstName = r.FirstName
	s.LastName = r.LastName
	s.Phone = r.Phone
	s.Specialization = r.Specialization
	s.Bio = r.Bio
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
}

func (h *WorkingHoursHandler) ListStaff(c *gin.Context) {
	q := activeQuery(c, h.db.WithContext(c.Request.Context()).Model(&models.StaffMember{}))

	var staff []models.StaffMember
	if err := q.Order("last_name ASC, first_name ASC").Find(&staff).Error; err != nil {
		httperr.Internal(c, "failed_to_list_staff", "Could not list staff.")
		return
	}
	httpresp.List(c, staff)
}

func (h *WorkingHoursHandler) CreateStaff(c *gin.Context) {
	var req StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	s := models.StaffMember{IsActive: true}
	req.apply(&s)
	if err := h.db.WithContext(c.Request.Context()).Create(&s).Error; err != nil {
		httperr.Internal(c, "failed_to_create_staff", "Could not create staff member.")
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    currentActor(c),
		Action:   "staff_created",
		Entity:   "staff",
		EntityID: audit.Ref(s.ID),
	})
	httpresp.Created(c, s)
}

func (h *WorkingHoursHandler) UpdateStaff(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		httperr.NotFound(c, "staff_not_found", httperr.Message("staff_not_found"))
		return
	}

	var s models.StaffMember
	if err := h.db.WithContext(c.Request.Context()).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "staff_not_found", httperr.Message("staff_not_found"))
			return
		}
		httperr.Internal(c, "failed_to_get_staff", "Could not load staff member.")
		return
	}

	var req StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}
	req.apply(&s)

	if err := h.db.WithContext(c.Request.Context()).Save(&s).Error; err != nil {
		httperr.Internal(c, "failed_to_update_staff", "Could not update staff member.")
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    currentActor(c),
		Action:   "staff_updated",
		Entity:   "staff",
		EntityID: audit.Ref(s.ID),
	})
	httpresp.OK(c, s)
}
