package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID  uint         `gorm:"not null;index" json:"client_id"`
	Client    *Client      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client,omitempty"`
	ServiceID uint         `gorm:"not null;index" json:"service_id"`
	Service   *Service     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"service,omitempty"`
	StaffID   uint         `gorm:"not null;index" json:"staff_id"`
	Staff     *StaffMember `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"staff,omitempty"`

	StartTime time.Time `gorm:"not null;index" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status string `gorm:"size:20;not null;index" json:"status"`
	Notes  string `gorm:"type:text" json:"notes"`

	ClientPackageID        *uint                 `json:"client_package_id"`
	ClientPackage          *ClientPackage        `gorm:"constraint:OnDelete:SET NULL;" json:"client_package,omitempty"`
	ClientServiceSessionID *uint                 `json:"client_service_session_id"`
	ClientServiceSession   *ClientServiceSession `gorm:"constraint:OnDelete:SET NULL;" json:"client_service_session,omitempty"`

	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
