package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-pos/internal/domain/enrollment"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

func (r *AppointmentGormRepository) Transaction(
	ctx context.Context,
	fn func(domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewAppointmentGormRepository(tx))
	})
}

func (r *AppointmentGormRepository) Enrollments() enrollment.Repository {
	return NewEnrollmentGormRepository(r.db)
}

// --------------------------------------------------
// Participants
// --------------------------------------------------

func (r *AppointmentGormRepository) GetActiveClient(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *AppointmentGormRepository) GetActiveService(ctx context.Context, id uint) (*models.Service, error) {
	var s models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *AppointmentGormRepository) GetActiveStaff(ctx context.Context, id uint) (*models.StaffMember, error) {
	var s models.StaffMember
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	normalizeTimes(ap)
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(ap).Error
}

// LockStaff takes a row lock on the staff member. On postgres a second
// booking for the same staff waits here until the first commits; sqlite
// serializes writers on its own.
func (r *AppointmentGormRepository) LockStaff(ctx context.Context, staffID uint) error {
	q := r.db.WithContext(ctx).Model(&models.StaffMember{}).Where("id = ?", staffID)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var ids []uint
	if err := q.Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AssertNoTimeConflict must run after LockStaff in the same transaction.
func (r *AppointmentGormRepository) AssertNoTimeConflict(
	ctx context.Context,
	staffID uint,
	start time.Time,
	end time.Time,
) error {

	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where(
			"staff_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
			staffID,
			domain.ActiveStatuses,
			end.UTC(),
			start.UTC(),
		).
		Pluck("id", &ids).Error; err != nil {
		return err
	}

	if len(ids) > 0 {
		return httperr.ErrBusiness("time_conflict")
	}

	return nil
}

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Service").
		Preload("Staff").
		First(&ap, id).Error; err != nil {
		return nil, err
	}

	return &ap, nil
}

func (r *AppointmentGormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	normalizeTimes(ap)
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(ap).Error
}

// normalizeTimes stores instants in UTC so range comparisons stay valid on
// sqlite, which compares timestamps as text.
func normalizeTimes(ap *models.Appointment) {
	ap.StartTime = ap.StartTime.UTC()
	ap.EndTime = ap.EndTime.UTC()
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

func (r *AppointmentGormRepository) HasWorkingHours(ctx context.Context, staffID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WorkingHours{}).
		Where("staff_id = ?", staffID).
		Count(&count).Error
	return count > 0, err
}

func (r *AppointmentGormRepository) GetWorkingHours(
	ctx context.Context,
	staffID uint,
	weekday int,
) (*models.WorkingHours, error) {

	var wh models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("staff_id = ? AND weekday = ?", staffID, weekday).
		First(&wh).Error; err != nil {
		return nil, err
	}

	return &wh, nil
}

func (r *AppointmentGormRepository) ListAppointmentsForDay(
	ctx context.Context,
	staffID uint,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Select("id", "start_time", "end_time").
		Where(
			"staff_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
			staffID, domain.ActiveStatuses, end.UTC(), start.UTC(),
		).
		Order("start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *AppointmentGormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	staffID uint,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment

	q := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Service").
		Preload("Staff").
		Where("start_time >= ? AND start_time < ?", start.UTC(), end.UTC())
	if staffID != 0 {
		q = q.Where("staff_id = ?", staffID)
	}

	if err := q.Order("start_time ASC").Find(&apps).Error; err != nil {
		return nil, err
	}

	return apps, nil
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
