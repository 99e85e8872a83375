package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/enrollment"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

// ErrConcurrentUpdate is returned when a session counter keeps changing
// underneath an increment.
var ErrConcurrentUpdate = errors.New("session counter changed concurrently")

const maxIncrementAttempts = 3

type EnrollmentGormRepository struct {
	db *gorm.DB
}

func NewEnrollmentGormRepository(db *gorm.DB) *EnrollmentGormRepository {
	return &EnrollmentGormRepository{db: db}
}

func (r *EnrollmentGormRepository) Transaction(
	ctx context.Context,
	fn func(domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewEnrollmentGormRepository(tx))
	})
}

// --------------------------------------------------
// Lookups
// --------------------------------------------------

func (r *EnrollmentGormRepository) GetActiveClient(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *EnrollmentGormRepository) GetActivePackage(ctx context.Context, id uint) (*models.Package, error) {
	var p models.Package
	if err := r.db.WithContext(ctx).
		Preload("Services").
		Where("id = ? AND is_active = ?", id, true).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *EnrollmentGormRepository) GetActiveService(ctx context.Context, id uint) (*models.Service, error) {
	var s models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// --------------------------------------------------
// Client packages
// --------------------------------------------------

func (r *EnrollmentGormRepository) HasActivePackage(ctx context.Context, clientID, packageID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ClientPackage{}).
		Where("client_id = ? AND package_id = ? AND is_completed = ?", clientID, packageID, false).
		Count(&count).Error
	return count > 0, err
}

func (r *EnrollmentGormRepository) CreateClientPackage(ctx context.Context, cp *models.ClientPackage) error {
	return r.db.WithContext(ctx).Omit("Client", "Package").Create(cp).Error
}

func (r *EnrollmentGormRepository) GetClientPackage(ctx context.Context, clientID, id uint) (*models.ClientPackage, error) {
	var cp models.ClientPackage
	if err := r.db.WithContext(ctx).
		Preload("Package").
		Where("id = ? AND client_id = ?", id, clientID).
		First(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

// FindActivePackageForService returns the oldest open enrollment whose
// package includes the service.
func (r *EnrollmentGormRepository) FindActivePackageForService(
	ctx context.Context,
	clientID, serviceID uint,
) (*models.ClientPackage, error) {
	var cp models.ClientPackage
	if err := r.db.WithContext(ctx).
		Joins("JOIN package_services ps ON ps.package_id = client_packages.package_id").
		Where("client_packages.client_id = ? AND ps.service_id = ? AND client_packages.is_completed = ?", clientID, serviceID, false).
		Order("client_packages.assigned_at ASC, client_packages.id ASC").
		First(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *EnrollmentGormRepository) AddPackageSession(ctx context.Context, id uint, now time.Time) (bool, error) {
	var cp models.ClientPackage
	return r.addSession(ctx, &cp, &cp.SessionProgress, id, now)
}

// DeleteClientPackage detaches appointments before removing the row.
func (r *EnrollmentGormRepository) DeleteClientPackage(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Appointment{}).
			Where("client_package_id = ?", id).
			Update("client_package_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ClientPackage{}, id).Error
	})
}

// --------------------------------------------------
// Service sessions
// --------------------------------------------------

func (r *EnrollmentGormRepository) HasActiveServiceSession(ctx context.Context, clientID, serviceID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ClientServiceSession{}).
		Where("client_id = ? AND service_id = ? AND is_completed = ?", clientID, serviceID, false).
		Count(&count).Error
	return count > 0, err
}

func (r *EnrollmentGormRepository) CreateServiceSession(ctx context.Context, s *models.ClientServiceSession) error {
	return r.db.WithContext(ctx).Omit("Client", "Service").Create(s).Error
}

func (r *EnrollmentGormRepository) GetServiceSession(ctx context.Context, clientID, id uint) (*models.ClientServiceSession, error) {
	var s models.ClientServiceSession
	if err := r.db.WithContext(ctx).
		Preload("Service").
		Where("id = ? AND client_id = ?", id, clientID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *EnrollmentGormRepository) FindActiveServiceSession(
	ctx context.Context,
	clientID, serviceID uint,
) (*models.ClientServiceSession, error) {
	var s models.ClientServiceSession
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND service_id = ? AND is_completed = ?", clientID, serviceID, false).
		Order("started_at ASC, id ASC").
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *EnrollmentGormRepository) AddServiceSession(ctx context.Context, id uint, now time.Time) (bool, error) {
	var s models.ClientServiceSession
	return r.addSession(ctx, &s, &s.SessionProgress, id, now)
}

func (r *EnrollmentGormRepository) DeleteServiceSession(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Appointment{}).
			Where("client_service_session_id = ?", id).
			Update("client_service_session_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ClientServiceSession{}, id).Error
	})
}

// --------------------------------------------------
// Profile
// --------------------------------------------------

func (r *EnrollmentGormRepository) ListClientPackages(ctx context.Context, clientID uint) ([]models.ClientPackage, error) {
	var out []models.ClientPackage
	err := r.db.WithContext(ctx).
		Preload("Package").
		Preload("Package.Services").
		Where("client_id = ?", clientID).
		Order("assigned_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *EnrollmentGormRepository) ListServiceSessions(ctx context.Context, clientID uint) ([]models.ClientServiceSession, error) {
	var out []models.ClientServiceSession
	err := r.db.WithContext(ctx).
		Preload("Service").
		Where("client_id = ?", clientID).
		Order("started_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *EnrollmentGormRepository) ListActivePackages(ctx context.Context) ([]models.Package, error) {
	var out []models.Package
	err := r.db.WithContext(ctx).
		Preload("Services").
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

func (r *EnrollmentGormRepository) ListActiveServices(ctx context.Context) ([]models.Service, error) {
	var out []models.Service
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

// --------------------------------------------------
// Session counter
// --------------------------------------------------

// addSession applies enrollment.AddSession and writes it back only if the
// counter still holds the value that was read. record must be a pointer to
// the model embedding progress.
func (r *EnrollmentGormRepository) addSession(
	ctx context.Context,
	record any,
	progress *models.SessionProgress,
	id uint,
	now time.Time,
) (bool, error) {
	db := r.db.WithContext(ctx)

	for attempt := 0; attempt < maxIncrementAttempts; attempt++ {
		if err := db.First(record, id).Error; err != nil {
			return false, err
		}

		seen := progress.SessionsCompleted
		if !domain.AddSession(progress, now) {
			return false, nil
		}

		res := db.Model(record).
			Where("sessions_completed = ? AND sessions_completed < total_sessions", seen).
			Updates(map[string]any{
				"sessions_completed": progress.SessionsCompleted,
				"is_completed":       progress.IsCompleted,
				"completed_at":       progress.CompletedAt,
			})
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected == 1 {
			return true, nil
		}
	}

	return false, ErrConcurrentUpdate
}

// Compile-time check
var _ domain.Repository = (*EnrollmentGormRepository)(nil)
