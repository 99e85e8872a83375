package models

import (
	"math"
	"time"
)

// Package is a prepaid bundle of sessions covering several services.
type Package struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name          string   `gorm:"size:200;not null;index" json:"name"`
	Description   string   `gorm:"type:text" json:"description"`
	TotalSessions int      `gorm:"not null" json:"total_sessions"`
	OriginalPrice *float64 `json:"original_price"`
	Price         float64  `gorm:"not null" json:"price"`
	IsActive      bool     `gorm:"not null" json:"is_active"`

	Services []Service `gorm:"many2many:package_services;" json:"services,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PackageService is the join row behind Package.Services.
type PackageService struct {
	PackageID uint `gorm:"primaryKey" json:"package_id"`
	ServiceID uint `gorm:"primaryKey" json:"service_id"`
}

func (PackageService) TableName() string { return "package_services" }

func (p Package) HasDiscount() bool {
	return p.OriginalPrice != nil && *p.OriginalPrice > p.Price
}

// DiscountPercentage is rounded to a whole percent; 0 without an original price.
func (p Package) DiscountPercentage() float64 {
	if p.OriginalPrice == nil || *p.OriginalPrice <= 0 {
		return 0
	}
	return math.Round((*p.OriginalPrice - p.Price) / *p.OriginalPrice * 100)
}
