package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-pos/internal/domain/enrollment"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type Repository interface {
	// -------- Participants --------
	GetActiveClient(ctx context.Context, id uint) (*models.Client, error)
	GetActiveService(ctx context.Context, id uint) (*models.Service, error)
	GetActiveStaff(ctx context.Context, id uint) (*models.StaffMember, error)

	// -------- Appointment (create / conflict) --------
	CreateAppointment(ctx context.Context, ap *models.Appointment) error

	// LockStaff serializes bookings for one staff member until the
	// surrounding transaction ends.
	LockStaff(ctx context.Context, staffID uint) error

	AssertNoTimeConflict(
		ctx context.Context,
		staffID uint,
		start time.Time,
		end time.Time,
	) error

	// -------- Appointment (state change) --------
	GetAppointment(ctx context.Context, id uint) (*models.Appointment, error)
	UpdateAppointment(ctx context.Context, ap *models.Appointment) error

	// -------- Availability --------
	HasWorkingHours(ctx context.Context, staffID uint) (bool, error)

	GetWorkingHours(
		ctx context.Context,
		staffID uint,
		weekday int,
	) (*models.WorkingHours, error)

	ListAppointmentsForDay(
		ctx context.Context,
		staffID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	// ListAppointmentsForPeriod lists every staff member when staffID is 0.
	ListAppointmentsForPeriod(
		ctx context.Context,
		staffID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	// Enrollments shares this repository's connection or transaction.
	Enrollments() enrollment.Repository

	Transaction(ctx context.Context, fn func(Repository) error) error
}
