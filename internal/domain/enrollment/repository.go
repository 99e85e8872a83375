package enrollment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type Repository interface {
	// -------- Lookups (active records only) --------
	GetActiveClient(ctx context.Context, id uint) (*models.Client, error)
	GetActivePackage(ctx context.Context, id uint) (*models.Package, error)
	GetActiveService(ctx context.Context, id uint) (*models.Service, error)

	// -------- Client packages --------
	HasActivePackage(ctx context.Context, clientID, packageID uint) (bool, error)
	CreateClientPackage(ctx context.Context, cp *models.ClientPackage) error
	GetClientPackage(ctx context.Context, clientID, id uint) (*models.ClientPackage, error)
	FindActivePackageForService(ctx context.Context, clientID, serviceID uint) (*models.ClientPackage, error)
	AddPackageSession(ctx context.Context, id uint, now time.Time) (bool, error)
	DeleteClientPackage(ctx context.Context, id uint) error

	// -------- Service sessions --------
	HasActiveServiceSession(ctx context.Context, clientID, serviceID uint) (bool, error)
	CreateServiceSession(ctx context.Context, s *models.ClientServiceSession) error
	GetServiceSession(ctx context.Context, clientID, id uint) (*models.ClientServiceSession, error)
	FindActiveServiceSession(ctx context.Context, clientID, serviceID uint) (*models.ClientServiceSession, error)
	AddServiceSession(ctx context.Context, id uint, now time.Time) (bool, error)
	DeleteServiceSession(ctx context.Context, id uint) error

	// -------- Profile --------
	ListClientPackages(ctx context.Context, clientID uint) ([]models.ClientPackage, error)
	ListServiceSessions(ctx context.Context, clientID uint) ([]models.ClientServiceSession, error)
	ListActivePackages(ctx context.Context) ([]models.Package, error)
	ListActiveServices(ctx context.Context) ([]models.Service, error)

	Transaction(ctx context.Context, fn func(Repository) error) error
}
