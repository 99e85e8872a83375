package appointment

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	ClientID  uint
	ServiceID uint
	StaffID   uint
	Start     time.Time
	Notes     string

	ClientPackageID        *uint
	ClientServiceSessionID *uint
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCreateAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *CreateAppointment {
	return &CreateAppointment{
		repo:  repo,
		audit: audit,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	a actor.Actor,
	in CreateAppointmentInput,
) (*models.Appointment, error) {

	if in.Start.IsZero() {
		return nil, httperr.ErrBusiness("invalid_date_or_time")
	}

	// --------------------------------------------------
	// Participants
	// --------------------------------------------------
	client, err := uc.repo.GetActiveClient(ctx, in.ClientID)
	if err != nil {
		return nil, notFound(err, "client_not_found")
	}

	service, err := uc.repo.GetActiveService(ctx, in.ServiceID)
	if err != nil {
		return nil, notFound(err, "service_not_found")
	}

	staff, err := uc.repo.GetActiveStaff(ctx, in.StaffID)
	if err != nil {
		return nil, notFound(err, "staff_not_found")
	}

	end := domain.EndTime(in.Start, service.DurationMin)

	// --------------------------------------------------
	// Working hours, only for staff with a schedule
	// --------------------------------------------------
	scheduled, err := uc.repo.HasWorkingHours(ctx, staff.ID)
	if err != nil {
		return nil, err
	}
	if scheduled {
		wh, err := uc.repo.GetWorkingHours(ctx, staff.ID, int(in.Start.Weekday()))
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if !domain.IsWithinWorkingHours(wh, in.Start, end) {
			return nil, httperr.ErrBusiness("outside_working_hours")
		}
	}

	// --------------------------------------------------
	// Optional tracking links must belong to the client
	// --------------------------------------------------
	enr := uc.repo.Enrollments()
	if in.ClientPackageID != nil {
		if _, err := enr.GetClientPackage(ctx, client.ID, *in.ClientPackageID); err != nil {
			return nil, notFound(err, "client_package_not_found")
		}
	}
	if in.ClientServiceSessionID != nil {
		if _, err := enr.GetServiceSession(ctx, client.ID, *in.ClientServiceSessionID); err != nil {
			return nil, notFound(err, "service_session_not_found")
		}
	}

	ap := &models.Appointment{
		ClientID:               client.ID,
		ServiceID:              service.ID,
		StaffID:                staff.ID,
		StartTime:              in.Start,
		EndTime:                end,
		Status:                 string(domain.InitialStatus()),
		Notes:                  in.Notes,
		ClientPackageID:        in.ClientPackageID,
		ClientServiceSessionID: in.ClientServiceSessionID,
	}

	// --------------------------------------------------
	// Conflict check and insert in one transaction
	// --------------------------------------------------
	err = uc.repo.Transaction(ctx, func(repo domain.Repository) error {
		if err := repo.LockStaff(ctx, staff.ID); err != nil {
			return notFound(err, "staff_not_found")
		}
		if err := repo.AssertNoTimeConflict(ctx, staff.ID, in.Start, end); err != nil {
			return err
		}
		return repo.CreateAppointment(ctx, ap)
	})
	if err != nil {
		return nil, err
	}

	ap.Client, ap.Service, ap.Staff = client, service, staff

	uc.audit.Dispatch(audit.Event{
		Actor:    a,
		Action:   "appointment_created",
		Entity:   "appointment",
		EntityID: &ap.ID,
	})

	return ap, nil
}

func notFound(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusiness(code)
	}
	return err
}
