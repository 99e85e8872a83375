package enrollment

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/enrollment"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
	"github.com/BruksfildServices01/clinic-pos/internal/validators"
)

type AssignPackage struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewAssignPackage(repo domain.Repository, audit *audit.Dispatcher) *AssignPackage {
	return &AssignPackage{repo: repo, audit: audit}
}

// Execute enrolls the client in a package. rawPackageID is the submitted
// form value and is parsed here so malformed input never reaches the store.
func (uc *AssignPackage) Execute(
	ctx context.Context,
	a actor.Actor,
	clientID uint,
	rawPackageID string,
) (*models.ClientPackage, error) {

	client, err := uc.repo.GetActiveClient(ctx, clientID)
	if err != nil {
		return nil, notFound(err, "client_not_found")
	}

	packageID, err := validators.RequiredID(rawPackageID, "package_required", "invalid_package_id")
	if err != nil {
		return nil, err
	}

	pkg, err := uc.repo.GetActivePackage(ctx, packageID)
	if err != nil {
		return nil, notFound(err, "package_not_found")
	}

	cp := &models.ClientPackage{
		ClientID:        client.ID,
		PackageID:       pkg.ID,
		SessionProgress: domain.NewProgress(pkg.TotalSessions),
		AssignedAt:      timezone.Now(),
	}

	err = uc.repo.Transaction(ctx, func(repo domain.Repository) error {
		exists, err := repo.HasActivePackage(ctx, client.ID, pkg.ID)
		if err != nil {
			return err
		}
		if exists {
			return httperr.ErrBusiness("package_already_assigned")
		}
		return repo.CreateClientPackage(ctx, cp)
	})
	if err != nil {
		return nil, err
	}

	cp.Client = client
	cp.Package = pkg

	uc.audit.Dispatch(audit.Event{
		Actor:    a,
		Action:   "package_assigned",
		Entity:   "client_package",
		EntityID: &cp.ID,
		Metadata: map[string]any{"client_id": client.ID, "package_id": pkg.ID},
	})

	return cp, nil
}

// notFound maps a missing row to a business code and keeps other errors.
func notFound(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusiness(code)
	}
	return err
}
