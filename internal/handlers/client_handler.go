package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/flash"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
	"github.com/BruksfildServices01/clinic-pos/internal/media"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
)

type ClientHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
	media *media.Store
	flash flash.Store
	log   logrus.FieldLogger
}

func NewClientHandler(
	db *gorm.DB,
	dispatcher *audit.Dispatcher,
	store *media.Store,
	flashStore flash.Store,
	log logrus.FieldLogger,
) *ClientHandler {
	return &ClientHandler{db: db, audit: dispatcher, media: store, flash: flashStore, log: log}
}

// --------- Requests ---------

type ClientRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Phone       string `json:"phone"`
	Email       string `json:"email" binding:"omitempty,email"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

func (r ClientRequest) apply(cl *models.Client) error {
	cl.FirstName = strings.TrimSpace(r.FirstName)
	cl.LastName = strings.TrimSpace(r.LastName)
	cl.Phone = strings.TrimSpace(r.Phone)
	cl.Email = strings.ToLower(strings.TrimSpace(r.Email))
	cl.Address = r.Address
	cl.Notes = r.Notes

	cl.DateOfBirth = nil
	if r.DateOfBirth != "" {
		dob, err := timezone.ParseDate(r.DateOfBirth)
		if err != nil {
			return err
		}
		cl.DateOfBirth = &dob
	}
	return nil
}

// ======================================================
// LIST / SEARCH
// ======================================================

func (h *ClientHandler) List(c *gin.Context) {
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.WithContext(c.Request.Context()).Model(&models.Client{})
	if c.Query("include_inactive") != "true" {
		q = q.Where("is_active = ?", true)
	}

	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			like, like, like, like,
		)
	}

	var clients []models.Client
	if err := q.
		Order("last_name ASC, first_name ASC").
		Find(&clients).Error; err != nil {

		httperr.Internal(c, "failed_to_list_clients", "Could not list clients.")
		return
	}

	httpresp.List(c, clients)
}

func (h *ClientHandler) Get(c *gin.Context) {
	cl, ok := h.load(c)
	if !ok {
		return
	}
	httpresp.OK(c, cl)
}

// ======================================================
// CREATE / UPDATE / DEACTIVATE
// ======================================================

func (h *ClientHandler) Create(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	cl := models.Client{IsActive: true}
	if err := req.apply(&cl); err != nil {
		httperr.BadRequest(c, "invalid_date_of_birth", "Date of birth must be YYYY-MM-DD.")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&cl).Error; err != nil {
		httperr.Internal(c, "failed_to_create_client", "Could not create client.")
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    currentActor(c),
		Action:   "client_created",
		Entity:   "client",
		EntityID: audit.Ref(cl.ID),
	})

	httpresp.Created(c, cl)
}

func (h *ClientHandler) Update(c *gin.Context) {
	cl, ok := h.load(c)
	if !ok {
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}
	if err := req.apply(cl); err != nil {
		httperr.BadRequest(c, "invalid_date_of_birth", "Date of birth must be YYYY-MM-DD.")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Save(cl).Error; err != nil {
		httperr.Internal(c, "failed_to_update_client", "Could not update client.")
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    currentActor(c),
		Action:   "client_updated",
		Entity:   "client",
		EntityID: audit.Ref(cl.ID),
	})

	httpresp.OK(c, cl)
}

// Deactivate hides the client from lists and enrollment. Rows are kept.
func (h *ClientHandler) Deactivate(c *gin.Context) {
	cl, ok := h.load(c)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(cl).
		Update("is_active", false).Error; err != nil {

		httperr.Internal(c, "failed_to_deactivate_client", "Could not deactivate client.")
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    currentActor(c),
		Action:   "client_deactivated",
		Entity:   "client",
		EntityID: audit.Ref(cl.ID),
	})

	c.Status(http.StatusNoContent)
}

func (h *ClientHandler) load(c *gin.Context) (*models.Client, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		httperr.NotFound(c, "client_not_found", httperr.Message("client_not_found"))
		return nil, false
	}

	var cl models.Client
	err := h.db.WithContext(c.Request.Context()).First(&cl, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, "client_not_found", httperr.Message("client_not_found"))
		return nil, false
	}
	if err != nil {
		httperr.Internal(c, "failed_to_get_client", "Could not load client.")
		return nil, false
	}
	return &cl, true
}

// ======================================================
// PHOTO
// ======================================================

// UploadPhoto stores the "photo" form file as a resized WebP and replaces
// the previous one. Browser form, so the outcome is a message.
func (h *ClientHandler) UploadPhoto(c *gin.Context) {
	clientID, ok := pathID(c, "id")
	if !ok {
		flash.Error(h.flash, c, httperr.Message("client_not_found"))
		redirect(c, adminURL)
		return
	}

	var cl models.Client
	err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND is_active = ?", clientID, true).
		First(&cl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			flash.Error(h.flash, c, httperr.Message("client_not_found"))
		} else {
			flashFailure(h.flash, c, h.log, err, "uploading photo")
		}
		redirect(c, adminURL)
		return
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		flash.Error(h.flash, c, "Please choose a photo to upload.")
		redirect(c, profileURL(clientID))
		return
	}
	if fh.Size > media.MaxUploadSize {
		flash.Error(h.flash, c, "The photo is larger than 10 MB.")
		redirect(c, profileURL(clientID))
		return
	}
	f, err := fh.Open()
	if err != nil {
		flashFailure(h.flash, c, h.log, err, "uploading photo")
		redirect(c, profileURL(clientID))
		return
	}
	defer f.Close()

	rel, err := h.media.SaveClientPhoto(cl.ID, f)
	if errors.Is(err, media.ErrInvalidImage) {
		flash.Error(h.flash, c, httperr.Message("invalid_photo"))
		redirect(c, profileURL(clientID))
		return
	}
	if err != nil {
		flashFailure(h.flash, c, h.log, err, "uploading photo")
		redirect(c, profileURL(clientID))
		return
	}

	old := cl.PhotoPath
	if err := h.db.WithContext(c.Request.Context()).
		Model(&cl).
		Updates(map[string]any{"photo_path": rel, "updated_at": time.Now().UTC()}).Error; err != nil {

		_ = h.media.Remove(rel)
		flashFailure(h.flash, c, h.log, err, "uploading photo")
		redirect(c, profileURL(clientID))
		return
	}
	if old != "" {
		if err := h.media.Remove(old); err != nil {
			h.log.WithError(err).WithField("path", old).Warn("failed to remove old client photo")
		}
	}

	h.audit.Dispatch(audit.Event{
		Actor:    currentActor(c),
		Action:   "client_photo_updated",
		Entity:   "client",
		EntityID: audit.Ref(cl.ID),
		Metadata: map[string]any{"photo_path": rel},
	})

	flash.Success(h.flash, c, "Photo updated.")
	redirect(c, profileURL(clientID))
}
