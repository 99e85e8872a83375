package dto

import (
	"time"

	"github.com/BruksfildServices01/clinic-pos/internal/domain/enrollment"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type ProgressDTO struct {
	SessionsCompleted int        `json:"sessions_completed"`
	TotalSessions     int        `json:"total_sessions"`
	Remaining         int        `json:"remaining_sessions"`
	Percentage        int        `json:"progress_percentage"`
	IsCompleted       bool       `json:"is_completed"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

func newProgressDTO(p *models.SessionProgress) ProgressDTO {
	return ProgressDTO{
		SessionsCompleted: p.SessionsCompleted,
		TotalSessions:     p.TotalSessions,
		Remaining:         enrollment.Remaining(*p),
		Percentage:        enrollment.ProgressPercentage(*p),
		IsCompleted:       p.IsCompleted,
		CompletedAt:       p.CompletedAt,
	}
}

type ClientPackageDTO struct {
	ID          uint      `json:"id"`
	PackageID   uint      `json:"package_id"`
	PackageName string    `json:"package_name"`
	Services    []string  `json:"services"`
	AssignedAt  time.Time `json:"assigned_at"`
	ProgressDTO
}

type ServiceSessionDTO struct {
	ID          uint      `json:"id"`
	ServiceID   uint      `json:"service_id"`
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	ProgressDTO
}

type PackageOptionDTO struct {
	ID                 uint     `json:"id"`
	Name               string   `json:"name"`
	TotalSessions      int      `json:"total_sessions"`
	Price              float64  `json:"price"`
	OriginalPrice      *float64 `json:"original_price,omitempty"`
	DiscountPercentage float64  `json:"discount_percentage"`
}

type ServiceOptionDTO struct {
	ID               uint    `json:"id"`
	Name             string  `json:"name"`
	SessionsRequired int     `json:"sessions_required"`
	Price            float64 `json:"price"`
}

type ClientProfileDTO struct {
	Client            *models.Client      `json:"client"`
	Packages          []ClientPackageDTO  `json:"packages"`
	ServiceSessions   []ServiceSessionDTO `json:"service_sessions"`
	AvailablePackages []PackageOptionDTO  `json:"available_packages"`
	AvailableServices []ServiceOptionDTO  `json:"available_services"`
}

func NewClientPackageDTO(cp *models.ClientPackage, loc *time.Location) ClientPackageDTO {
	out := ClientPackageDTO{
		ID:          cp.ID,
		PackageID:   cp.PackageID,
		AssignedAt:  cp.AssignedAt.In(loc),
		Services:    []string{},
		ProgressDTO: newProgressDTO(&cp.SessionProgress),
	}
	if cp.Package != nil {
		out.PackageName = cp.Package.Name
		for _, s := range cp.Package.Services {
			out.Services = append(out.Services, s.Name)
		}
	}
	return out
}

func NewServiceSessionDTO(s *models.ClientServiceSession, loc *time.Location) ServiceSessionDTO {
	out := ServiceSessionDTO{
		ID:          s.ID,
		ServiceID:   s.ServiceID,
		StartedAt:   s.StartedAt.In(loc),
		ProgressDTO: newProgressDTO(&s.SessionProgress),
	}
	if s.Service != nil {
		out.ServiceName = s.Service.Name
	}
	return out
}

func NewClientProfileDTO(
	client *models.Client,
	packages []models.ClientPackage,
	sessions []models.ClientServiceSession,
	available []models.Package,
	services []models.Service,
	loc *time.Location,
) ClientProfileDTO {
	out := ClientProfileDTO{
		Client:            client,
		Packages:          make([]ClientPackageDTO, 0, len(packages)),
		ServiceSessions:   make([]ServiceSessionDTO, 0, len(sessions)),
		AvailablePackages: make([]PackageOptionDTO, 0, len(available)),
		AvailableServices: make([]ServiceOptionDTO, 0, len(services)),
	}
	for i := range packages {
		out.Packages = append(out.Packages, NewClientPackageDTO(&packages[i], loc))
	}
	for i := range sessions {
		out.ServiceSessions = append(out.ServiceSessions, NewServiceSessionDTO(&sessions[i], loc))
	}
	for _, p := range available {
		out.AvailablePackages = append(out.AvailablePackages, PackageOptionDTO{
			ID:                 p.ID,
			Name:               p.Name,
			TotalSessions:      p.TotalSessions,
			Price:              p.Price,
			OriginalPrice:      p.OriginalPrice,
			DiscountPercentage: p.DiscountPercentage(),
		})
	}
	for _, s := range services {
		out.AvailableServices = append(out.AvailableServices, ServiceOptionDTO{
			ID:               s.ID,
			Name:             s.Name,
			SessionsRequired: s.SessionsRequired,
			Price:            s.Price,
		})
	}
	return out
}
