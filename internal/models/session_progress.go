package models

import "time"

// SessionProgress is embedded by every record that counts consumed sessions
// against a purchased total.
type SessionProgress struct {
	TotalSessions     int        `gorm:"not null" json:"total_sessions"`
	SessionsCompleted int        `gorm:"not null" json:"sessions_completed"`
	IsCompleted       bool       `gorm:"not null;index" json:"is_completed"`
	CompletedAt       *time.Time `json:"completed_at"`
}

type ClientPackage struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID  uint     `gorm:"not null;index" json:"client_id"`
	Client    *Client  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client,omitempty"`
	PackageID uint     `gorm:"not null;index" json:"package_id"`
	Package   *Package `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"package,omitempty"`

	SessionProgress

	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`
	Notes      string    `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ClientServiceSession struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID  uint     `gorm:"not null;index" json:"client_id"`
	Client    *Client  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client,omitempty"`
	ServiceID uint     `gorm:"not null;index" json:"service_id"`
	Service   *Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"service,omitempty"`

	SessionProgress

	StartedAt time.Time `gorm:"not null" json:"started_at"`
	Notes     string    `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
