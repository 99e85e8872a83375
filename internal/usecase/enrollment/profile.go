package enrollment

import (
	"context"

	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/enrollment"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type Profile struct {
	Client          *models.Client
	Packages        []models.ClientPackage
	ServiceSessions []models.ClientServiceSession

	// AvailablePackages leaves out packages the client holds open.
	AvailablePackages []models.Package
	AvailableServices []models.Service
}

type GetProfile struct {
	repo domain.Repository
}

func NewGetProfile(repo domain.Repository) *GetProfile {
	return &GetProfile{repo: repo}
}

func (uc *GetProfile) Execute(ctx context.Context, clientID uint) (*Profile, error) {
	client, err := uc.repo.GetActiveClient(ctx, clientID)
	if err != nil {
		return nil, notFound(err, "client_not_found")
	}

	p := &Profile{Client: client}

	if p.Packages, err = uc.repo.ListClientPackages(ctx, clientID); err != nil {
		return nil, err
	}
	if p.ServiceSessions, err = uc.repo.ListServiceSessions(ctx, clientID); err != nil {
		return nil, err
	}

	packages, err := uc.repo.ListActivePackages(ctx)
	if err != nil {
		return nil, err
	}
	open := make(map[uint]bool, len(p.Packages))
	for _, cp := range p.Packages {
		if !cp.IsCompleted {
			open[cp.PackageID] = true
		}
	}
	for _, pkg := range packages {
		if !open[pkg.ID] {
			p.AvailablePackages = append(p.AvailablePackages, pkg)
		}
	}

	if p.AvailableServices, err = uc.repo.ListActiveServices(ctx); err != nil {
		return nil, err
	}

	return p, nil
}
