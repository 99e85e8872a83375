package appointment

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-pos/internal/domain/enrollment"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
)

type CompleteAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCompleteAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *CompleteAppointment {
	return &CompleteAppointment{
		repo:  repo,
		audit: audit,
	}
}

// Execute marks the appointment completed and counts the session against
// the linked package or service session. Without a link it uses the
// client's oldest open package containing the service, and failing that a
// service session when the service needs several visits.
func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	a actor.Actor,
	appointmentID uint,
) (*models.Appointment, error) {

	var ap *models.Appointment
	now := timezone.Now()

	err := uc.repo.Transaction(ctx, func(repo domain.Repository) error {
		var err error
		ap, err = repo.GetAppointment(ctx, appointmentID)
		if err != nil {
			return notFound(err, "appointment_not_found")
		}

		if err := domain.Complete(ap, now); err != nil {
			return err
		}

		if err := trackSession(ctx, repo.Enrollments(), ap, now); err != nil {
			return err
		}

		return repo.UpdateAppointment(ctx, ap)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		Actor:    a,
		Action:   "appointment_completed",
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{
			"client_package_id":         ap.ClientPackageID,
			"client_service_session_id": ap.ClientServiceSessionID,
		},
	})

	return ap, nil
}

func trackSession(ctx context.Context, enr enrollment.Repository, ap *models.Appointment, now time.Time) error {
	switch {
	case ap.ClientPackageID != nil:
		_, err := enr.AddPackageSession(ctx, *ap.ClientPackageID, now)
		return err

	case ap.ClientServiceSessionID != nil:
		_, err := enr.AddServiceSession(ctx, *ap.ClientServiceSessionID, now)
		return err
	}

	cp, err := enr.FindActivePackageForService(ctx, ap.ClientID, ap.ServiceID)
	switch {
	case err == nil:
		ap.ClientPackageID = &cp.ID
		_, err = enr.AddPackageSession(ctx, cp.ID, now)
		return err
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if ap.Service == nil || !ap.Service.RequiresMultipleSessions() {
		return nil
	}

	s, err := enr.FindActiveServiceSession(ctx, ap.ClientID, ap.ServiceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = &models.ClientServiceSession{
			ClientID:        ap.ClientID,
			ServiceID:       ap.ServiceID,
			SessionProgress: enrollment.NewProgress(ap.Service.SessionsRequired),
			StartedAt:       now,
		}
		err = enr.CreateServiceSession(ctx, s)
	}
	if err != nil {
		return err
	}

	ap.ClientServiceSessionID = &s.ID
	_, err = enr.AddServiceSession(ctx, s.ID, now)
	return err
}
