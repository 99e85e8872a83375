package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/enrollment"
	"github.com/BruksfildServices01/clinic-pos/internal/dto"
	"github.com/BruksfildServices01/clinic-pos/internal/flash"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
	usecase "github.com/BruksfildServices01/clinic-pos/internal/usecase/enrollment"
)

// ======================================================
// HANDLER
// ======================================================

// EnrollmentHandler serves the client profile page and the forms posted
// from it. Every form action ends in a message and a redirect.
type EnrollmentHandler struct {
	flash flash.Store
	log   logrus.FieldLogger

	profile    *usecase.GetProfile
	assign     *usecase.AssignPackage
	start      *usecase.StartServiceSession
	addPackage *usecase.AddPackageSession
	addService *usecase.AddServiceSession
	remove     *usecase.RemoveEnrollment
}

func NewEnrollmentHandler(
	repo domain.Repository,
	dispatcher *audit.Dispatcher,
	store flash.Store,
	log logrus.FieldLogger,
) *EnrollmentHandler {
	return &EnrollmentHandler{
		flash:      store,
		log:        log,
		profile:    usecase.NewGetProfile(repo),
		assign:     usecase.NewAssignPackage(repo, dispatcher),
		start:      usecase.NewStartServiceSession(repo, dispatcher),
		addPackage: usecase.NewAddPackageSession(repo, dispatcher),
		addService: usecase.NewAddServiceSession(repo, dispatcher),
		remove:     usecase.NewRemoveEnrollment(repo, dispatcher),
	}
}

// clientID reads :id. On failure the caller has already been redirected.
func (h *EnrollmentHandler) clientID(c *gin.Context) (uint, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		flash.Error(h.flash, c, httperr.Message("client_not_found"))
		redirect(c, adminURL)
	}
	return id, ok
}

// ======================================================
// PROFILE
// ======================================================

func (h *EnrollmentHandler) Profile(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}

	p, err := h.profile.Execute(c.Request.Context(), clientID)
	if err != nil {
		flashFailure(h.flash, c, h.log, err, "loading client profile")
		redirect(c, adminURL)
		return
	}

	httpresp.Render(c, dto.NewClientProfileDTO(
		p.Client,
		p.Packages,
		p.ServiceSessions,
		p.AvailablePackages,
		p.AvailableServices,
		timezone.Clinic(),
	), h.flash.Pop(c))
}

// ======================================================
// ASSIGN / START
// ======================================================

func (h *EnrollmentHandler) AssignPackage(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}

	cp, err := h.assign.Execute(c.Request.Context(), currentActor(c), clientID, c.PostForm("package_id"))
	if err != nil {
		flashFailure(h.flash, c, h.log, err, "assigning package")
		h.back(c, clientID, err)
		return
	}

	flash.Success(h.flash, c, fmt.Sprintf("Package %q assigned successfully!", cp.Package.Name))
	redirect(c, profileURL(clientID))
}

func (h *EnrollmentHandler) StartService(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}

	s, err := h.start.Execute(c.Request.Context(), currentActor(c), clientID, c.PostForm("service_id"))
	if err != nil {
		flashFailure(h.flash, c, h.log, err, "starting service session")
		h.back(c, clientID, err)
		return
	}

	flash.Success(h.flash, c, fmt.Sprintf("Started tracking %q sessions!", s.Service.Name))
	redirect(c, profileURL(clientID))
}

// ======================================================
// ADD SESSION
// ======================================================

func (h *EnrollmentHandler) AddPackageSession(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "pkg_id")
	if !ok {
		flash.Error(h.flash, c, httperr.Message("client_package_not_found"))
		redirect(c, profileURL(clientID))
		return
	}

	cp, added, err := h.addPackage.Execute(c.Request.Context(), currentActor(c), clientID, id)
	if err != nil {
		flashFailure(h.flash, c, h.log, err, "adding session")
		h.back(c, clientID, err)
		return
	}

	if !added {
		flash.Warning(h.flash, c, httperr.Message("package_completed"))
	} else {
		flash.Success(h.flash, c, fmt.Sprintf("Session added! Progress: %d/%d", cp.SessionsCompleted, cp.TotalSessions))
		if cp.IsCompleted {
			flash.Info(h.flash, c, "Package completed!")
		}
	}
	redirect(c, profileURL(clientID))
}

func (h *EnrollmentHandler) AddServiceSession(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "svc_id")
	if !ok {
		flash.Error(h.flash, c, httperr.Message("service_session_not_found"))
		redirect(c, profileURL(clientID))
		return
	}

	s, added, err := h.addService.Execute(c.Request.Context(), currentActor(c), clientID, id)
	if err != nil {
		flashFailure(h.flash, c, h.log, err, "adding session")
		h.back(c, clientID, err)
		return
	}

	if !added {
		flash.Warning(h.flash, c, httperr.Message("service_completed"))
	} else {
		flash.Success(h.flash, c, fmt.Sprintf("Session added! Progress: %d/%d", s.SessionsCompleted, s.TotalSessions))
		if s.IsCompleted {
			flash.Info(h.flash, c, "Service completed!")
		}
	}
	redirect(c, profileURL(clientID))
}

// ======================================================
// REMOVE
// ======================================================

func (h *EnrollmentHandler) RemovePackage(c *gin.Context) {
	h.removeEnrollment(c, usecase.KindPackage, "pkg_id", "client_package_not_found", "Removed package %q from client.")
}

func (h *EnrollmentHandler) RemoveService(c *gin.Context) {
	h.removeEnrollment(c, usecase.KindService, "svc_id", "service_session_not_found", "Removed service %q from client.")
}

func (h *EnrollmentHandler) removeEnrollment(c *gin.Context, kind usecase.Kind, param, missingCode, done string) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, param)
	if !ok {
		flash.Error(h.flash, c, httperr.Message(missingCode))
		redirect(c, profileURL(clientID))
		return
	}

	name, err := h.remove.Execute(c.Request.Context(), currentActor(c), kind, clientID, id)
	if err != nil {
		flashFailure(h.flash, c, h.log, err, "removing "+string(kind))
		h.back(c, clientID, err)
		return
	}

	flash.Success(h.flash, c, fmt.Sprintf(done, name))
	redirect(c, profileURL(clientID))
}

// back returns to the profile, or to the admin landing page when the
// client itself is gone.
func (h *EnrollmentHandler) back(c *gin.Context, clientID uint, err error) {
	if httperr.IsBusiness(err, "client_not_found") {
		redirect(c, adminURL)
		return
	}
	redirect(c, profileURL(clientID))
}
